package mockserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status string           `json:"status"`
	Time   string           `json:"time"`
	Counts map[string]int64 `json:"counts"`
}

// health reports liveness plus the size of the in-memory library. It sits
// outside /api/v2 and needs no token.
func (s *Server) health(c *gin.Context) {
	books, highlights := s.Store.Counts()
	c.IndentedJSON(http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().Format(time.RFC3339),
		Counts: map[string]int64{
			"books":      int64(books),
			"highlights": int64(highlights),
		},
	})
}
