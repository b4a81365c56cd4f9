package entities

import (
	"time"
)

// Book is a library entry for one EPUB file together with the reader's
// progress through it. The file path is the natural key.
type Book struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	BookPath           string    `gorm:"uniqueIndex;size:1024;not null" json:"book_path"`
	Title              string    `gorm:"index;size:512" json:"title"`
	Authors            string    `gorm:"size:512" json:"authors"`
	SpineCount         int       `json:"spine_count"`
	TotalPages         int       `json:"total_pages"`  // chapters
	CurrentPage        int       `json:"current_page"` // chapter index
	CurrentSpineIndex  int       `json:"current_spine_index"`
	CurrentPageIndex   int       `json:"current_page_index"`
	ProgressPercentage float64   `json:"progress_percentage"`
	IsRead             bool      `json:"is_read"`
	TimesRead          int       `json:"times_read"`
	Rating             int       `json:"rating"`          // 0-5
	TotalTimeRead      int64     `json:"total_time_read"` // seconds
	CoverImageFilename string    `gorm:"size:1024" json:"cover_image_filename,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// MaxRating is the top of the rating scale.
const MaxRating = 5
