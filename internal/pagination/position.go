package pagination

import "context"

// Position identifies where the reader is inside a multi-chapter book.
// Progress is the overall percentage at the time the position was recorded;
// it is carried along for display and does not take part in navigation.
type Position struct {
	SpineIndex int `json:"spine_index"`
	PageIndex  int `json:"page_index"`
	Progress   int `json:"progress"`
}

// PositionStore is the persistence contract for reading positions.
//
// Load returns (nil, nil) when nothing was saved for documentID; a missing
// position is not an error and means "start at the beginning".
type PositionStore interface {
	Load(ctx context.Context, documentID string) (*Position, error)
	Save(ctx context.Context, documentID string, pos Position) error
}

// Scheduler accepts position saves without blocking the caller.
type Scheduler interface {
	Schedule(documentID string, pos Position)
}

// Move describes the outcome of a navigation request.
type Move struct {
	SpineIndex int `json:"spine_index"`
	PageIndex  int `json:"page_index"`
	Offset     int `json:"offset"`
	// SpineChanged means the caller must render and measure the new spine
	// item before Offset is meaningful.
	SpineChanged bool `json:"spine_changed"`
	// Moved is false when navigation hit the start or end of the book.
	Moved bool `json:"moved"`
}
