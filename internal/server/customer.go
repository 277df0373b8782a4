package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billdomain "github.com/smallbiznis/pamdes/internal/bill/domain"
	customerdomain "github.com/smallbiznis/pamdes/internal/customer/domain"
	"github.com/smallbiznis/pamdes/pkg/db/pagination"
)

type createCustomerRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateRequest{
		VillageID: villageID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name   string `form:"name"`
		Status string `form:"status"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListRequest{
		VillageID: villageID,
		Status:    customerdomain.Status(strings.TrimSpace(query.Status)),
		Name:      strings.TrimSpace(query.Name),
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resp, err := s.customerSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCustomerByCode(c *gin.Context) {
	villageID, _ := villageFromContext(c)
	resp, err := s.customerSvc.GetByCode(c.Request.Context(), villageID, c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type setCustomerStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetCustomerStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setCustomerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.SetStatus(c.Request.Context(), id, customerdomain.Status(strings.TrimSpace(req.Status)))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerBills(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	filter := billdomain.ListFilter{CustomerID: id}
	for _, raw := range c.QueryArray("status") {
		for _, status := range strings.Split(raw, ",") {
			if status = strings.TrimSpace(status); status != "" {
				filter.Statuses = append(filter.Statuses, billdomain.BillStatus(status))
			}
		}
	}

	resp, err := s.billSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
