package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hyperwatch/threat-monitor/internal/aggregate"
	"github.com/hyperwatch/threat-monitor/internal/drafter"
	"github.com/hyperwatch/threat-monitor/internal/escalate"
	"github.com/hyperwatch/threat-monitor/internal/models"
	"github.com/hyperwatch/threat-monitor/internal/monitor"
	"github.com/hyperwatch/threat-monitor/internal/notify"
	"github.com/hyperwatch/threat-monitor/internal/roster"
	"github.com/hyperwatch/threat-monitor/internal/sources"
)

type Handler struct {
	agg         *aggregate.Aggregator
	store       roster.Store
	drafter     *drafter.Service
	dispatcher  *notify.Dispatcher
	coordinator *escalate.Coordinator
	mon         *monitor.Monitor
	homeRegion  string
}

func NewHandler(agg *aggregate.Aggregator, store roster.Store, d *drafter.Service, n *notify.Dispatcher, c *escalate.Coordinator, mon *monitor.Monitor, homeRegion string) *Handler {
	return &Handler{
		agg:         agg,
		store:       store,
		drafter:     d,
		dispatcher:  n,
		coordinator: c,
		mon:         mon,
		homeRegion:  homeRegion,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/threats", h.getThreats)
	r.GET("/api/threats/geojson", h.getThreatsGeoJSON)
	r.POST("/api/draft", h.createDraft)
	r.POST("/api/notify", h.sendNotification)
	r.GET("/api/recipients", h.listRecipients)
	r.POST("/api/recipients", h.createRecipient)
	r.PATCH("/api/recipients/:id", h.updateRecipient)
	r.DELETE("/api/recipients/:id", h.deleteRecipient)
	r.GET("/api/alerts/status", h.alertStatus)
	r.POST("/api/alerts/acknowledge", h.acknowledgeAlerts)
	r.GET("/health", h.health)
	r.POST("/api/debug/simulate-threat", h.simulateThreat)
	r.DELETE("/api/debug/simulate-threat", h.clearSimulated)
}

// fetch runs an on-demand aggregation for the request's region and source
// selection. Unknown source names are ignored; every response carries the
// per-source errors alongside whatever threats the healthy sources produced.
func (h *Handler) fetch(c *gin.Context) aggregate.Result {
	region := c.DefaultQuery("region", h.homeRegion)

	var selection []models.Source
	if raw := c.Query("sources"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if src, ok := models.ParseSource(strings.TrimSpace(name)); ok {
				selection = append(selection, src)
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	return h.agg.FetchAll(ctx, region, selection)
}

func (h *Handler) getThreats(c *gin.Context) {
	result := h.fetch(c)

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{
		"threats":   result.Threats,
		"errors":    result.Errors,
		"timestamp": time.Now().UTC(),
	})
}

func (h *Handler) getThreatsGeoJSON(c *gin.Context) {
	result := h.fetch(c)

	fc := toGeoJSON(result.Threats)
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

type draftRequest struct {
	Threat  models.Threat `json:"threat" binding:"required"`
	Context string        `json:"context"`
}

func (h *Handler) createDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft request"})
		return
	}

	draft, fallback := h.drafter.Draft(c.Request.Context(), req.Threat, req.Context)
	c.JSON(http.StatusOK, gin.H{
		"message":   draft.Message,
		"audiences": draft.Audiences,
		"channels":  draft.Channels,
		"fallback":  fallback,
	})
}

type notifyRequest struct {
	Message   string                `json:"message" binding:"required"`
	Audiences []string              `json:"audiences"`
	Channels  []models.Channel      `json:"channels"`
	Threat    *models.ThreatSummary `json:"threat"`
}

func (h *Handler) sendNotification(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notify request"})
		return
	}

	// An unreadable roster degrades to an empty one; the dispatcher then
	// reports the missing recipients.
	recipients, err := h.store.List(c.Request.Context())
	if err != nil {
		slog.Warn("recipient roster unavailable, treating as empty", "error", err)
		recipients = nil
	}

	draft := models.Draft{
		Message:   req.Message,
		Audiences: req.Audiences,
		Channels:  req.Channels,
	}
	result, err := h.dispatcher.Send(c.Request.Context(), draft, recipients, req.Threat)
	if err != nil {
		if errors.Is(err, notify.ErrNoRecipients) || errors.Is(err, notify.ErrNoChannels) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "notification dispatch failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) listRecipients(c *gin.Context) {
	recipients, err := h.store.List(c.Request.Context())
	if err != nil {
		slog.Warn("recipient roster unavailable, treating as empty", "error", err)
	}
	if recipients == nil {
		recipients = []models.Recipient{}
	}
	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

type recipientRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Category string `json:"category"`
	IsActive *bool  `json:"isActive"`
}

func (h *Handler) createRecipient(c *gin.Context) {
	var req recipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient"})
		return
	}
	if req.Email == "" && req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient needs an email address or a phone number"})
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	created, err := h.store.Create(c.Request.Context(), models.Recipient{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Category: req.Category,
		IsActive: active,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipient"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

type recipientPatch struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Category *string `json:"category"`
	IsActive *bool   `json:"isActive"`
}

func (h *Handler) updateRecipient(c *gin.Context) {
	var req recipientPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient update"})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), c.Param("id"), roster.Update{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     req.Role,
		Category: req.Category,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update recipient"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteRecipient(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete recipient"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) alertStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":    h.coordinator.State(),
		"history":  h.coordinator.History(),
		"snapshot": h.mon.Latest(),
	})
}

func (h *Handler) acknowledgeAlerts(c *gin.Context) {
	state := h.coordinator.Acknowledge()
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type simulateRequest struct {
	State     string  `json:"state"`
	County    string  `json:"county"`
	Customers int     `json:"customers"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// simulateThreat pins a synthetic outage into the monitor's snapshot. It is
// never persisted; clearing it removes all trace.
func (h *Handler) simulateThreat(c *gin.Context) {
	req := simulateRequest{
		State:     h.homeRegion,
		County:    "Test",
		Customers: 25000,
		Latitude:  36.77,
		Longitude: -119.41,
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation request"})
			return
		}
	}

	threat := sources.SimulatedOutage(req.State, req.County, req.Customers, req.Latitude, req.Longitude)
	h.mon.Pin(c.Request.Context(), threat)

	c.JSON(http.StatusOK, gin.H{
		"message": "simulated threat pinned (not persisted)",
		"id":      threat.ID,
	})
}

func (h *Handler) clearSimulated(c *gin.Context) {
	n := h.mon.ClearPinned(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
