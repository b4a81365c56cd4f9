package http

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/database/books"
	"github.com/b4ndithelps/wave/internal/library"
	"github.com/b4ndithelps/wave/internal/reader"
)

type BooksController struct {
	store    BookStore
	importer BookImporter
	queue    ImportQueue
	covers   CoverStore
	reader   ReaderService
}

func NewBooksController(store BookStore, importer BookImporter) *BooksController {
	return &BooksController{
		store:    store,
		importer: importer,
	}
}

// SetImportQueue enables background imports (optional).
func (controller *BooksController) SetImportQueue(queue ImportQueue) {
	controller.queue = queue
}

// SetCoverStore lets deletes drop cached covers (optional).
func (controller *BooksController) SetCoverStore(covers CoverStore) {
	controller.covers = covers
}

// SetReader lets deletes close an open book first (optional).
func (controller *BooksController) SetReader(r ReaderService) {
	controller.reader = r
}

// GetAllBooks handles GET /api/books
func (controller *BooksController) GetAllBooks(c *gin.Context) {
	all, err := controller.store.GetAllBooks()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": all, "count": len(all)})
}

// GetBook handles GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(id)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id. The EPUB file is left on disk.
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetBookByID(id)
	if errors.Is(err, books.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	if controller.reader != nil {
		if err := controller.reader.Close(c.Request.Context(), id); err != nil && !errors.Is(err, reader.ErrNotOpen) {
			respondInternalError(c, err, "close book")
			return
		}
	}
	if controller.covers != nil {
		_ = controller.covers.InvalidateCover(id)
	}
	if err := controller.store.DeleteBook(book.BookPath); err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// ImportRequest is the body of POST /api/books/import.
type ImportRequest struct {
	Path  string `json:"path" binding:"required"`
	Async bool   `json:"async"`
}

// Import handles POST /api/books/import. Async imports are queued and
// answered with the task ID.
func (controller *BooksController) Import(c *gin.Context) {
	var req ImportRequest
	if !bindJSON(c, &req) {
		return
	}
	if !library.IsEpub(req.Path) {
		respondBadRequest(c, "path must point to an .epub file")
		return
	}
	if _, err := os.Stat(req.Path); err != nil {
		respondBadRequest(c, "file not readable: "+req.Path)
		return
	}

	if req.Async {
		if controller.queue == nil {
			respondError(c, http.StatusServiceUnavailable, CodeNotConfigured, "task queue not configured")
			return
		}
		taskID, err := controller.queue.EnqueueImport(c.Request.Context(), req.Path)
		if err != nil {
			respondInternalError(c, err, "enqueue import")
			return
		}
		respondAccepted(c, "import enqueued", gin.H{"task_id": taskID})
		return
	}

	result, err := controller.importer.ImportBook(c.Request.Context(), req.Path)
	if err != nil {
		respondBadRequest(c, "import failed: "+err.Error())
		return
	}
	if result.Created {
		respondCreated(c, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RatingRequest is the body of PUT /api/books/:id/rating.
type RatingRequest struct {
	Rating *int `json:"rating" binding:"required"`
}

// SetRating handles PUT /api/books/:id/rating
func (controller *BooksController) SetRating(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RatingRequest
	if !bindJSON(c, &req) {
		return
	}

	err := controller.store.SetRating(id, *req.Rating)
	switch {
	case errors.Is(err, books.ErrInvalidRating):
		respondBadRequest(c, err.Error())
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case err != nil:
		respondInternalError(c, err, "set rating")
	default:
		respondSuccess(c, "rating saved")
	}
}

// MarkRead handles POST /api/books/:id/read
func (controller *BooksController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.store.MarkRead(id)
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		respondNotFound(c, "book")
	case err != nil:
		respondInternalError(c, err, "mark read")
	default:
		respondSuccess(c, "book marked as read")
	}
}
