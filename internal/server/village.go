package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	villagedomain "github.com/smallbiznis/pamdes/internal/village/domain"
)

func (s *Server) CreateVillage(c *gin.Context) {
	var req villagedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.villageSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListVillages(c *gin.Context) {
	resp, err := s.villageSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVillage(c *gin.Context) {
	villageID, _ := villageFromContext(c)
	resp, err := s.villageSvc.Get(c.Request.Context(), villageID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateVillageSettings(c *gin.Context) {
	var req villagedomain.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	villageID, _ := villageFromContext(c)
	resp, err := s.villageSvc.UpdateSettings(c.Request.Context(), villageID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
