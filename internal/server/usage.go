package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/smallbiznis/pamdes/internal/waterusage/domain"
)

func (s *Server) RecordReading(c *gin.Context) {
	var req usagedomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usageSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetReading(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.usageSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPeriodReadings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.usageSvc.ListByPeriod(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateFinalMeterRequest struct {
	FinalMeter *int64 `json:"final_meter"`
}

func (s *Server) UpdateReadingFinalMeter(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req updateFinalMeterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FinalMeter == nil {
		AbortWithError(c, newValidationError("final_meter", "invalid_final_meter", "final_meter is required"))
		return
	}

	resp, err := s.usageSvc.UpdateFinalMeter(c.Request.Context(), id, *req.FinalMeter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
