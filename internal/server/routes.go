package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/datalake/internal/types"
)

func registerRoutes(router *gin.Engine, s *Server) {
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	api.POST("/query", s.handleQuery)
	api.POST("/search", s.handleSearch)
	api.POST("/context", s.handleContext)
	api.POST("/actions", s.handleAction)
	api.POST("/jobs/:name", s.handleJob)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// The operations report their own failures in the result body, so handlers
// answer 200 for every well-formed request.

func (s *Server) handleQuery(c *gin.Context) {
	if s.services.Query == nil {
		unavailable(c, "query")
		return
	}
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question is required"})
		return
	}
	c.JSON(http.StatusOK, s.services.Query.Query(c.Request.Context(), req))
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.services.Search == nil {
		unavailable(c, "search")
		return
	}
	var req types.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	c.JSON(http.StatusOK, s.services.Search.Search(c.Request.Context(), req))
}

func (s *Server) handleContext(c *gin.Context) {
	if s.services.Context == nil {
		unavailable(c, "context")
		return
	}
	var req types.ContextRequest
	// An empty body asks for all defaults.
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, s.services.Context.Build(c.Request.Context(), req))
}

func (s *Server) handleAction(c *gin.Context) {
	if s.services.Actions == nil {
		unavailable(c, "actions")
		return
	}
	var req types.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.EventType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType is required"})
		return
	}
	c.JSON(http.StatusOK, s.services.Actions.Log(c.Request.Context(), req))
}

type jobRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleJob(c *gin.Context) {
	if s.services.Jobs == nil {
		unavailable(c, "jobs")
		return
	}
	var req jobRequest
	// The body is optional; it only overrides the configured input.
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	name := c.Param("name")
	out, ok := s.services.Jobs.Trigger(c.Request.Context(), name, req.Input)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job " + name + " not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": name, "message": out.Message, "error": out.Error})
}

// bindOptionalJSON decodes the body into obj, leaving obj untouched when the
// body is empty, whether or not a Content-Length was sent.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
}

func unavailable(c *gin.Context, name string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": name + " is not configured"})
}
