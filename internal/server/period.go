package server

import (
	"context"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	perioddomain "github.com/smallbiznis/pamdes/internal/billingperiod/domain"
)

func (s *Server) CreatePeriod(c *gin.Context) {
	var req perioddomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.VillageID, _ = villageFromContext(c)
	resp, err := s.periodSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListPeriods(c *gin.Context) {
	q := readQuery(c)
	activeOnly := q.Bool("active")
	if !q.OK() {
		return
	}

	villageID, _ := villageFromContext(c)
	var (
		resp []*perioddomain.BillingPeriod
		err  error
	)
	if activeOnly != nil && *activeOnly {
		resp, err = s.periodSvc.ActivePeriods(c.Request.Context(), villageID)
	} else {
		resp, err = s.periodSvc.List(c.Request.Context(), villageID)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPeriod(c *gin.Context) {
	s.periodAction(c, s.periodSvc.Get)
}

func (s *Server) ActivatePeriod(c *gin.Context) {
	s.periodAction(c, s.periodSvc.Activate)
}

func (s *Server) CompletePeriod(c *gin.Context) {
	s.periodAction(c, s.periodSvc.Complete)
}

func (s *Server) DeactivatePeriod(c *gin.Context) {
	s.periodAction(c, s.periodSvc.Deactivate)
}

func (s *Server) periodAction(c *gin.Context, fn func(context.Context, snowflake.ID) (*perioddomain.BillingPeriod, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
