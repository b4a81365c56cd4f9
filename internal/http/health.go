package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/database"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// SessionLister reports the books currently open for reading.
type SessionLister interface {
	OpenSessions() []uint
}

type HealthController struct {
	db      *database.Database
	reader  SessionLister
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// SetReader adds the open-book count to health output (optional).
func (h *HealthController) SetReader(reader SessionLister) {
	h.reader = reader
}

func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = "ok"
			if n, err := h.db.Books().CountBooks(); err == nil {
				checks["library"] = fmt.Sprintf("%d books", n)
			}
		}
	} else {
		checks["database"] = "not configured"
	}

	if h.reader != nil {
		checks["reader"] = fmt.Sprintf("%d open", len(h.reader.OpenSessions()))
	}

	health := HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
