package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/htmlstyling"
)

// StyleManager reads and writes the reader style.
type StyleManager interface {
	CurrentStyle() (htmlstyling.EpubStyle, error)
	Apply(update htmlstyling.StyleUpdate) (htmlstyling.EpubStyle, error)
	Reset() error
	Version() uint64
}

type StyleController struct {
	styles StyleManager
}

func NewStyleController(styles StyleManager) *StyleController {
	return &StyleController{styles: styles}
}

// StyleResponse is the current style together with its style sheet.
type StyleResponse struct {
	Style   htmlstyling.EpubStyle `json:"style"`
	CSS     string                `json:"css"`
	Version uint64                `json:"version"`
}

// GetStyle handles GET /api/style
func (sc *StyleController) GetStyle(c *gin.Context) {
	style, err := sc.styles.CurrentStyle()
	if err != nil {
		respondInternalError(c, err, "load style")
		return
	}
	sc.respond(c, style)
}

// UpdateStyle handles PUT /api/style. Only fields present in the body change.
func (sc *StyleController) UpdateStyle(c *gin.Context) {
	var update htmlstyling.StyleUpdate
	if !bindJSON(c, &update) {
		return
	}

	style, err := sc.styles.Apply(update)
	if errors.Is(err, htmlstyling.ErrInvalidStyle) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "save style")
		return
	}
	sc.respond(c, style)
}

// ResetStyle handles DELETE /api/style
func (sc *StyleController) ResetStyle(c *gin.Context) {
	if err := sc.styles.Reset(); err != nil {
		respondInternalError(c, err, "reset style")
		return
	}
	sc.GetStyle(c)
}

func (sc *StyleController) respond(c *gin.Context, style htmlstyling.EpubStyle) {
	c.JSON(http.StatusOK, StyleResponse{
		Style:   style,
		CSS:     style.CSS(),
		Version: sc.styles.Version(),
	})
}
