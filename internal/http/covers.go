package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/database/books"
)

// CoversController handles book cover requests.
type CoversController struct {
	cache CoverStore
	books BookGetter
}

// NewCoversController creates a new CoversController.
func NewCoversController(cache CoverStore, books BookGetter) *CoversController {
	return &CoversController{
		cache: cache,
		books: books,
	}
}

// GetCover serves a cached book cover image, extracting it from the EPUB on
// first request.
// GET /api/books/:id/cover
func (cc *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := cc.books.GetBookByID(id)
	if errors.Is(err, books.ErrBookNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}

	cachePath, err := cc.cache.GetCover(id, book.BookPath)
	if err != nil {
		respondInternalError(c, err, "extract cover")
		return
	}
	if cachePath == "" {
		c.Status(http.StatusNotFound)
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.File(cachePath)
}
