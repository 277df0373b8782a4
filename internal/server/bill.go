package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	paymentdomain "github.com/smallbiznis/pamdes/internal/payment/domain"
)

func (s *Server) GenerateBill(c *gin.Context) {
	var req billdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.UsageID == 0 {
		AbortWithError(c, newValidationError("usage_id", "invalid_usage_id", "usage_id is required"))
		return
	}

	resp, err := s.billSvc.GenerateBill(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

type generatePeriodBillsRequest struct {
	AdminFee       *decimal.Decimal `json:"admin_fee"`
	MaintenanceFee *decimal.Decimal `json:"maintenance_fee"`
}

func (s *Server) GenerateBillsForPeriod(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req generatePeriodBillsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.billSvc.GenerateBillsForPeriod(c.Request.Context(), id, req.AdminFee, req.MaintenanceFee)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.billSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOverdueBills(c *gin.Context) {
	updated, err := s.billSvc.UpdateOverdueBills(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"updated": updated}})
}

func (s *Server) PayBill(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req paymentdomain.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.PayBill(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListBillPayments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.paymentSvc.ListByBill(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
