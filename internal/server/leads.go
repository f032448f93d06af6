package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	leaddomain "github.com/smallbiznis/clubos/internal/lead/domain"
	"github.com/smallbiznis/clubos/pkg/db/pagination"
)

func (s *Server) CreateLead(c *gin.Context) {
	var req leaddomain.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	lead, err := s.leadSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": lead})
}

func (s *Server) ListLeads(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.leadSvc.List(c.Request.Context(), leaddomain.ListLeadRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
