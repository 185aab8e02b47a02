// Package httpapi exposes the collaborator contract over HTTP and WebSocket.
// It is the reference server the core-side client talks to in integration
// tests and demo deployments.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"safetycore/internal/collab"
	"safetycore/internal/core"
	"safetycore/pkg/domain"
)

// Server routes collaborator requests to the core service and broadcasts
// committed changes to push subscribers.
type Server struct {
	svc    *core.Service
	hub    *Hub
	engine *gin.Engine
}

// NewServer builds the gin router and wires change notifications into the
// WebSocket hub.
func NewServer(svc *core.Service) *Server {
	hub := NewHub()
	svc.Subscribe(func(changes []domain.Change) {
		hub.Broadcast(collab.EventsFromChanges(changes))
	})

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	s := &Server{svc: svc, hub: hub, engine: engine}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/ws", gin.WrapH(hub))

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/snapshot", s.snapshot)
		v1.POST("/incidents", s.createIncident)
		v1.POST("/incidents/:id/status", s.setIncidentStatus)
		v1.POST("/tasks", s.createTask)
		v1.POST("/tasks/:id/status", s.setTaskStatus)
		v1.POST("/tasks/:id/comments", s.appendComment)
	}
	return s
}

// Handler returns the root http.Handler, mainly for httptest servers.
func (s *Server) Handler() http.Handler { return s.engine }

// Hub returns the push hub. Used by tests.
func (s *Server) Hub() *Hub { return s.hub }

// Run starts the HTTP listener on addr.
func (s *Server) Run(addr string) error { return s.engine.Run(addr) }

func (s *Server) snapshot(c *gin.Context) {
	store := s.svc.Store()
	payload := core.SnapshotPayload{
		Incidents: store.ListIncidents(),
		Tasks:     store.ListTasks(),
		Locations: store.ListLocations(),
		Users:     store.ListUsers(),
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) createIncident(c *gin.Context) {
	var in domain.Incident
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, _, err := s.svc.CreateIncident(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type incidentStatusRequest struct {
	Status   domain.IncidentStatus `json:"status"`
	Identity domain.Identity       `json:"identity"`
}

func (s *Server) setIncidentStatus(c *gin.Context) {
	var req incidentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, _, err := s.svc.SetIncidentStatus(c.Request.Context(), req.Identity, c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) createTask(c *gin.Context) {
	var t domain.Task
	if err := c.ShouldBindJSON(&t); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, _, err := s.svc.CreateTask(c.Request.Context(), t)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) setTaskStatus(c *gin.Context) {
	var req collab.StatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	var (
		updated domain.Task
		err     error
	)
	if req.Status == domain.TaskStatusDelayed {
		if req.Date == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delay date required"})
			return
		}
		updated, _, err = s.svc.MarkTaskDelayed(c.Request.Context(), id, req.Reason, *req.Date)
	} else {
		updated, _, err = s.svc.SetTaskStatus(c.Request.Context(), id, req.Status)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) appendComment(c *gin.Context) {
	var comment domain.Comment
	if err := c.ShouldBindJSON(&comment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	identity := domain.Identity{
		UserID: comment.AuthorID,
		Name:   comment.AuthorName,
		Role:   comment.AuthorRole,
	}
	updated, _, err := s.svc.AddTaskComment(c.Request.Context(), c.Param("id"), identity, comment.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func writeError(c *gin.Context, err error) {
	var (
		ruleErr domain.RuleViolationError
		permErr core.PermissionError
	)
	switch {
	case core.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case core.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &permErr):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &ruleErr):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "violations": ruleErr.Result.Violations})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
