package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/database/books"
	"github.com/b4ndithelps/wave/internal/epub"
	"github.com/b4ndithelps/wave/internal/pagination"
	"github.com/b4ndithelps/wave/internal/reader"
)

// ReaderController drives pagination for open books. The client renders
// the HTML it gets from the spine endpoint, reports the measured heights,
// and then forwards scroll positions and page turns.
type ReaderController struct {
	reader ReaderService
}

func NewReaderController(r ReaderService) *ReaderController {
	return &ReaderController{reader: r}
}

// OpenResponse describes a freshly opened book.
type OpenResponse struct {
	BookID     uint                `json:"book_id"`
	Title      string              `json:"title"`
	Author     string              `json:"author"`
	SpineCount int                 `json:"spine_count"`
	Position   pagination.Position `json:"position"`
	Status     reader.Status       `json:"status"`
}

// MeasureRequest reports the rendered height of a spine document.
type MeasureRequest struct {
	SpineIndex     *int `json:"spine_index" binding:"required"`
	ContentHeight  int  `json:"content_height"`
	ViewportHeight int  `json:"viewport_height"`
}

// MeasureResponse carries the page table and the page to scroll to.
type MeasureResponse struct {
	Layout pagination.Layout `json:"layout"`
	Page   int               `json:"page"`
	Offset int               `json:"offset"`
	Status reader.Status     `json:"status"`
}

// ScrollRequest reports the live scroll offset.
type ScrollRequest struct {
	ScrollY int `json:"scroll_y"`
}

// GoToRequest jumps to a page in the current spine item or to the start of
// another spine item.
type GoToRequest struct {
	Page       *int `json:"page"`
	SpineIndex *int `json:"spine_index"`
}

// MoveResponse is the outcome of a navigation request.
type MoveResponse struct {
	Move   pagination.Move `json:"move"`
	Status reader.Status   `json:"status"`
}

// Open handles POST /api/reader/:id/open
func (rc *ReaderController) Open(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	session, err := rc.reader.Open(c.Request.Context(), id)
	if err != nil {
		rc.respondReaderError(c, err, "open book")
		return
	}

	c.JSON(http.StatusOK, OpenResponse{
		BookID:     session.BookID,
		Title:      session.Title,
		Author:     session.Author,
		SpineCount: session.SpineCount(),
		Position:   session.Tracker().Position(),
		Status:     session.Status(),
	})
}

// Spine handles GET /api/reader/:id/spine/:index and returns styled XHTML.
func (rc *ReaderController) Spine(c *gin.Context) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	index, ok := parseIntParam(c, "index")
	if !ok {
		return
	}

	data, err := session.SpineHTML(index)
	if err != nil {
		rc.respondReaderError(c, err, "render spine item")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// Resource handles GET /api/reader/:id/resource/*path for images and other
// files referenced by spine documents.
func (rc *ReaderController) Resource(c *gin.Context) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	href := strings.TrimPrefix(c.Param("path"), "/")
	if href == "" {
		respondBadRequest(c, "resource path is required")
		return
	}

	data, mediaType, err := session.Resource(href)
	if err != nil {
		rc.respondReaderError(c, err, "read resource")
		return
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, mediaType, data)
}

// Measure handles POST /api/reader/:id/measure
func (rc *ReaderController) Measure(c *gin.Context) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	var req MeasureRequest
	if !bindJSON(c, &req) {
		return
	}

	layout, page, err := session.Tracker().Measure(*req.SpineIndex, req.ContentHeight, req.ViewportHeight)
	if err != nil {
		rc.respondReaderError(c, err, "measure")
		return
	}

	c.JSON(http.StatusOK, MeasureResponse{
		Layout: layout,
		Page:   page,
		Offset: layout.OffsetOf(page),
		Status: session.Status(),
	})
}

// Scroll handles POST /api/reader/:id/scroll
func (rc *ReaderController) Scroll(c *gin.Context) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	var req ScrollRequest
	if !bindJSON(c, &req) {
		return
	}

	page, changed, err := session.Tracker().Scroll(req.ScrollY)
	if err != nil {
		rc.respondReaderError(c, err, "scroll")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":    page,
		"changed": changed,
		"status":  session.Status(),
	})
}

// Next handles POST /api/reader/:id/next
func (rc *ReaderController) Next(c *gin.Context) {
	rc.move(c, func(t *pagination.Tracker) (pagination.Move, error) {
		return t.Next()
	})
}

// Prev handles POST /api/reader/:id/prev
func (rc *ReaderController) Prev(c *gin.Context) {
	rc.move(c, func(t *pagination.Tracker) (pagination.Move, error) {
		return t.Prev()
	})
}

// GoTo handles POST /api/reader/:id/goto
func (rc *ReaderController) GoTo(c *gin.Context) {
	var req GoToRequest
	if !bindJSON(c, &req) {
		return
	}
	if (req.Page == nil) == (req.SpineIndex == nil) {
		respondBadRequest(c, "exactly one of page or spine_index is required")
		return
	}

	rc.move(c, func(t *pagination.Tracker) (pagination.Move, error) {
		if req.SpineIndex != nil {
			return t.GoToSpine(*req.SpineIndex), nil
		}
		return t.GoTo(*req.Page)
	})
}

// Status handles GET /api/reader/:id/status
func (rc *ReaderController) Status(c *gin.Context) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Status())
}

// Close handles POST /api/reader/:id/close. Pending position saves are
// flushed before the response.
func (rc *ReaderController) Close(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := rc.reader.Close(c.Request.Context(), id); err != nil {
		rc.respondReaderError(c, err, "close book")
		return
	}
	respondSuccess(c, "book closed")
}

// ListOpen handles GET /api/reader
func (rc *ReaderController) ListOpen(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"open": rc.reader.OpenSessions()})
}

func (rc *ReaderController) move(c *gin.Context, fn func(*pagination.Tracker) (pagination.Move, error)) {
	session, ok := rc.session(c)
	if !ok {
		return
	}
	mv, err := fn(session.Tracker())
	if err != nil {
		rc.respondReaderError(c, err, "navigate")
		return
	}
	c.JSON(http.StatusOK, MoveResponse{Move: mv, Status: session.Status()})
}

func (rc *ReaderController) session(c *gin.Context) (*reader.Session, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	session, err := rc.reader.Session(id)
	if err != nil {
		rc.respondReaderError(c, err, "find session")
		return nil, false
	}
	return session, true
}

func (rc *ReaderController) respondReaderError(c *gin.Context, err error, context string) {
	switch {
	case errors.Is(err, reader.ErrNotOpen):
		respondError(c, http.StatusConflict, CodeNotOpen, "book is not open")
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case errors.Is(err, epub.ErrSpineIndex), errors.Is(err, epub.ErrNoResource):
		respondNotFound(c, "spine item or resource")
	case errors.Is(err, pagination.ErrNotMeasured):
		respondError(c, http.StatusConflict, CodeNotMeasured, err.Error())
	case errors.Is(err, pagination.ErrStaleMeasure):
		respondError(c, http.StatusConflict, CodeStaleMeasure, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}
