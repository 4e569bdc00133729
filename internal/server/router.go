package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookit-dev/bookit/internal/metrics"
	"github.com/bookit-dev/bookit/internal/store"
)

// Router serves the simulated appointment API.
// Endpoints:
//
//	GET    /health        readiness probe target; body is not inspected by callers
//	GET    /metrics       Prometheus metrics
//	POST   /appointments  create one appointment
//	GET    /appointments  list all appointments
//	DELETE /appointments  clear all appointments
type Router struct {
	st  store.Store
	log *slog.Logger
}

func NewRouter(st store.Store, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{st: st, log: log}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/health", r.handleHealth)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	g.POST("/appointments", r.handleCreate)
	g.GET("/appointments", r.handleList)
	g.DELETE("/appointments", r.handleClear)
	return g
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createRequest struct {
	Title    string    `json:"title" binding:"required"`
	StartsAt time.Time `json:"starts_at" binding:"required"`
	Notes    string    `json:"notes"`
}

func (r *Router) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := r.st.Create(c.Request.Context(), store.Appointment{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		Notes:    req.Notes,
	})
	if err != nil {
		r.log.Error("create appointment", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.IncAppointmentOp("create")
	c.JSON(http.StatusCreated, a)
}

func (r *Router) handleList(c *gin.Context) {
	out, err := r.st.List(c.Request.Context())
	if err != nil {
		r.log.Error("list appointments", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if out == nil {
		out = []store.Appointment{}
	}
	metrics.IncAppointmentOp("list")
	c.JSON(http.StatusOK, out)
}

func (r *Router) handleClear(c *gin.Context) {
	n, err := r.st.Clear(c.Request.Context())
	if err != nil {
		r.log.Error("clear appointments", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	metrics.IncAppointmentOp("clear")
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
