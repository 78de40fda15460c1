package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/morozRed/notegraph/internal/errs"
	"github.com/morozRed/notegraph/internal/notebook"
)

const defaultSearchLimit = 20

type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Generation uint64 `json:"generation"`
}

type RegionRequest struct {
	ID string `json:"id" binding:"required"`
}

type RegionResponse struct {
	ID      string `json:"id"`
	Applied bool   `json:"applied"`
}

type ResolveResponse struct {
	Path string `json:"path"`
	ID   string `json:"id"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "healthy",
		Version:    s.version,
		Generation: s.svc.Generation(),
	})
}

// handleGraph handles GET /v1/graph with the visible projection.
func (s *Server) handleGraph(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Project())
}

// handleCollapse handles POST /v1/regions/collapse. Unknown or already
// collapsed regions answer 200 with applied=false.
func (s *Server) handleCollapse(c *gin.Context) {
	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, RegionResponse{ID: req.ID, Applied: s.svc.Collapse(req.ID)})
}

func (s *Server) handleExpand(c *gin.Context) {
	var req RegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, RegionResponse{ID: req.ID, Applied: s.svc.Expand(req.ID)})
}

// handleResolve handles GET /v1/resolve?path=.
func (s *Server) handleResolve(c *gin.Context) {
	path := c.Query("path")
	id, ok := s.svc.ResolveVisible(path)
	if !ok {
		writeError(c, fmt.Errorf("%w: nothing visible at or above %q", errs.ErrNotFound, path))
		return
	}
	c.JSON(http.StatusOK, ResolveResponse{Path: path, ID: id})
}

func (s *Server) handleSearch(c *gin.Context) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"results": s.svc.Search(c.Query("q"), limit),
	})
}

func (s *Server) handleLinks(c *gin.Context) {
	path := c.Query("path")
	found, err := s.svc.Links(c.Request.Context(), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "links": found})
}

// handleScan handles POST /v1/scan. A scan overtaken by a newer one answers
// 409.
func (s *Server) handleScan(c *gin.Context) {
	report, err := s.svc.Rescan(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleAction handles POST /v1/actions/:name. The body is optional.
func (s *Server) handleAction(c *gin.Context) {
	var req notebook.ActionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	result, err := s.svc.Dispatch(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type pathHandlers struct {
	paths notebook.PathEditing
}

type FileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

type RenameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewPath string `json:"newPath" binding:"required"`
}

type PathResponse struct {
	Path string `json:"path"`
}

func (h pathHandlers) createFile(c *gin.Context) {
	var req FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, req.Path, http.StatusCreated, func(ctx context.Context) error {
		return h.paths.CreateFile(ctx, req.Path, req.Content)
	})
}

func (h pathHandlers) createDirectory(c *gin.Context) {
	var req FileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, req.Path, http.StatusCreated, func(ctx context.Context) error {
		return h.paths.CreateDirectory(ctx, req.Path)
	})
}

func (h pathHandlers) rename(c *gin.Context) {
	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.respond(c, req.NewPath, http.StatusOK, func(ctx context.Context) error {
		return h.paths.RenamePath(ctx, req.Path, req.NewPath)
	})
}

func (h pathHandlers) delete(c *gin.Context) {
	path := c.Query("path")
	h.respond(c, path, http.StatusOK, func(ctx context.Context) error {
		return h.paths.DeletePath(ctx, path)
	})
}

func (h pathHandlers) respond(c *gin.Context, path string, status int, op func(context.Context) error) {
	if err := op(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, PathResponse{Path: path})
}
