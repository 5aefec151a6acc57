package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/nodeshim/internal/api/middleware"
	"github.com/GriffinCanCode/nodeshim/internal/registry"
	"github.com/GriffinCanCode/nodeshim/internal/sandbox"
	"github.com/GriffinCanCode/nodeshim/internal/shared/paths"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	server *Server
}

// NewHandlers creates a new handler set
func NewHandlers(s *Server) *Handlers {
	return &Handlers{server: s}
}

// PathRequest is the body of every /path endpoint. Paths stay untyped so that
// non-string items can be rejected the way the JS binding rejects them.
type PathRequest struct {
	Paths []interface{} `json:"paths"`
	Base  string        `json:"base,omitempty"`
}

// ExecuteRequest is the body of /execute
type ExecuteRequest struct {
	Script string `json:"script" binding:"required"`
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "nodeshim",
		"version": "0.1.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"base_dir": h.server.base.String(),
		"modules":  len(h.server.manifest.Names()),
		"sandbox":  h.server.pool.Stats(),
	})
}

// ListModules lists the known module specifiers, optionally filtered by a
// glob in ?match=
func (h *Handlers) ListModules(c *gin.Context) {
	pattern := c.Query("match")
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid pattern %q", pattern)})
		return
	}

	modules := make([]gin.H, 0, len(h.server.manifest.Modules))
	for _, spec := range h.server.manifest.Specs() {
		name := registry.NormalizeSpecifier(spec.Name)
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, name); !ok {
				continue
			}
		}
		kind := spec.Kind
		if kind == "" {
			kind = registry.KindStub
		}
		modules = append(modules, gin.H{
			"name":        name,
			"kind":        kind,
			"description": spec.Description,
			"requires":    spec.Requires,
			"members":     len(spec.Members),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"modules": modules,
		"count":   len(modules),
	})
}

// Normalize handles POST /path/normalize with exactly one path
func (h *Handlers) Normalize(c *gin.Context) {
	args, _, ok := h.bindPaths(c, 1)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": paths.Normalize(args[0])})
}

// Join handles POST /path/join
func (h *Handlers) Join(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	joined, err := paths.JoinValues(req.Paths)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": joined})
}

// Resolve handles POST /path/resolve
func (h *Handlers) Resolve(c *gin.Context) {
	args, base, ok := h.bindPaths(c, -1)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": paths.Resolve(base, args...)})
}

// Relative handles POST /path/relative with a from and a to path
func (h *Handlers) Relative(c *gin.Context) {
	args, base, ok := h.bindPaths(c, 2)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": paths.Relative(base, args[0], args[1])})
}

// bindPaths decodes a PathRequest, checks that every path is a string and,
// when want >= 0, that exactly want paths were sent. The base defaults to the
// server's. On failure it writes a 400 and returns ok == false.
func (h *Handlers) bindPaths(c *gin.Context, want int) ([]string, paths.Base, bool) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}

	args, err := paths.Strings(req.Paths)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, "", false
	}
	if want >= 0 && len(args) != want {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("expected %d paths, got %d", want, len(args))})
		return nil, "", false
	}

	base := h.server.base
	if req.Base != "" {
		base, err = paths.ParseBase(req.Base)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, "", false
		}
	}
	return args, base, true
}

// Execute runs a script in a pooled sandbox
func (h *Handlers) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.server.pool.Execute(c.Request.Context(), req.Script)
	if result == nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sandbox.ErrTimeout) || errors.Is(err, sandbox.ErrPoolClosed) || errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		h.server.logger.Warn("Sandbox unavailable",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.server.metrics.RecordExecution(result.Duration, len(result.Requires), err)

	body := gin.H{
		"id":          result.ID,
		"value":       exportable(result.Value),
		"console":     result.Console,
		"requires":    result.Requires,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if err != nil {
		body["error"] = err.Error()
		c.JSON(http.StatusUnprocessableEntity, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// MetricsJSON returns the metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.server.metrics.Snapshot())
}

// exportable replaces values that cannot be encoded, such as exported JS
// functions, with their string form
func exportable(v interface{}) interface{} {
	if _, err := sonic.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}
