package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	tariffdomain "github.com/smallbiznis/pamdes/internal/tariff/domain"
)

// scopeVillage returns the village from the URL, or nil for the global schedule.
func scopeVillage(c *gin.Context) *uuid.UUID {
	if villageID, ok := villageFromContext(c); ok {
		return &villageID
	}
	return nil
}

func (s *Server) ListTariffs(c *gin.Context) {
	resp, err := s.tariffSvc.ListBrackets(c.Request.Context(), scopeVillage(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createTariffRangeRequest struct {
	UsageMin     *int64           `json:"usage_min"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

func (s *Server) CreateTariffRange(c *gin.Context) {
	var req createTariffRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.UsageMin == nil {
		AbortWithError(c, newValidationError("usage_min", "invalid_usage_min", "usage_min is required"))
		return
	}
	if req.PricePerUnit == nil {
		AbortWithError(c, newValidationError("price_per_unit", "invalid_price_per_unit", "price_per_unit is required"))
		return
	}

	resp, err := s.tariffSvc.CreateRange(c.Request.Context(), tariffdomain.CreateRangeRequest{
		VillageID:    scopeVillage(c),
		UsageMin:     *req.UsageMin,
		PricePerUnit: *req.PricePerUnit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetTariff(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.tariffSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTariffRange(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req tariffdomain.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.UpdateRange(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTariffEditableFields(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.tariffSvc.EditableFields(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ValidateTariffSchedule(c *gin.Context) {
	if err := s.tariffSvc.Validate(c.Request.Context(), scopeVillage(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"valid": true}})
}

func (s *Server) DeactivateTariffSchedule(c *gin.Context) {
	villageID, _ := villageFromContext(c)
	if err := s.tariffSvc.DeactivateSchedule(c.Request.Context(), villageID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type calculateBillRequest struct {
	Usage *int64 `json:"usage"`
}

func (s *Server) CalculateBill(c *gin.Context) {
	var req calculateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Usage == nil {
		AbortWithError(c, newValidationError("usage", "invalid_usage", "usage is required"))
		return
	}

	resp, err := s.tariffSvc.Calculate(c.Request.Context(), scopeVillage(c), *req.Usage)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
