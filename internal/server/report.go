package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/pamdes/internal/ledger/domain"
)

func (s *Server) CollectionSummary(c *gin.Context) {
	q := readQuery(c)
	periodID := q.ID("period_id", true)
	if !q.OK() {
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.reportSvc.CollectionSummary(c.Request.Context(), villageID, periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) OutstandingReport(c *gin.Context) {
	villageID, _ := villageFromContext(c)
	resp, err := s.reportSvc.Outstanding(c.Request.Context(), villageID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TrendReport(c *gin.Context) {
	q := readQuery(c)
	periodID := q.ID("period_id", true)
	if !q.OK() {
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.reportSvc.Trend(c.Request.Context(), villageID, periodID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CollectorTotalsReport(c *gin.Context) {
	q := readQuery(c)
	from := q.Date("from", false)
	to := q.Date("to", true)
	if from == nil && q.raw("from") == "" {
		q.fail("from", "is required")
	}
	if !q.OK() {
		return
	}
	if to == nil {
		now := time.Now().UTC()
		to = &now
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.reportSvc.CollectorTotals(c.Request.Context(), villageID, *from, *to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetLedgerBalance(c *gin.Context) {
	account := ledgerdomain.LedgerAccountCode(strings.TrimSpace(c.Param("account")))

	villageID, _ := villageFromContext(c)
	balance, err := s.ledgerSvc.Balance(c.Request.Context(), villageID, account)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"account": account, "balance": balance}})
}
