package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	collectordomain "github.com/smallbiznis/pamdes/internal/collector/domain"
)

type createCollectorRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (s *Server) CreateCollector(c *gin.Context) {
	var req createCollectorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.collectorSvc.Create(c.Request.Context(), collectordomain.CreateRequest{
		VillageID: villageID,
		Name:      strings.TrimSpace(req.Name),
		Role:      collectordomain.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCollectors(c *gin.Context) {
	q := readQuery(c)
	activeOnly := q.Bool("active")
	if !q.OK() {
		return
	}

	villageID, _ := villageFromContext(c)
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		resp, err := s.collectorSvc.FindByName(c.Request.Context(), villageID, name)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": []*collectordomain.Collector{resp}})
		return
	}

	resp, err := s.collectorSvc.List(c.Request.Context(), villageID, activeOnly != nil && *activeOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateCollector(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.collectorSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
