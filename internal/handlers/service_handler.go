package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

// Services are rendered as bare JSON, without an envelope.
type ServiceHandler struct {
	store storage.ServiceStore
	audit *audit.Dispatcher
}

func NewServiceHandler(store storage.ServiceStore, audit *audit.Dispatcher) *ServiceHandler {
	return &ServiceHandler{store: store, audit: audit}
}

// --------- Requests ---------

// Title and Duration are accepted as older spellings of Name and
// DurationMinutes.
type ServiceRequest struct {
	Name            *string  `json:"name"`
	Title           *string  `json:"title"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price"`
	DurationMinutes *int     `json:"durationMinutes"`
	Duration        *int     `json:"duration"`
}

func (r ServiceRequest) name() *string {
	if r.Name != nil {
		return r.Name
	}
	return r.Title
}

func (r ServiceRequest) duration() *int {
	if r.DurationMinutes != nil {
		return r.DurationMinutes
	}
	return r.Duration
}

// --------- Handlers ---------

func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.store.ListServices(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if services == nil {
		services = []models.Service{}
	}
	httpresp.OK(c, services)
}

func (h *ServiceHandler) Get(c *gin.Context) {
	svc, err := h.store.GetService(c.Request.Context(), c.Param("serviceId"))
	if err != nil {
		writeStoreError(c, err, domain.ErrServiceNotFound)
		return
	}
	httpresp.OK(c, svc)
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	name, duration := req.name(), req.duration()
	if name == nil || strings.TrimSpace(*name) == "" || duration == nil || *duration <= 0 {
		badRequest(c, "Title and duration are required")
		return
	}

	svc := models.Service{
		ServiceID:       uuid.NewString(),
		Name:            strings.TrimSpace(*name),
		DurationMinutes: *duration,
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			badRequest(c, "Price must not be negative")
			return
		}
		svc.Price = *req.Price
	}

	if err := h.store.CreateService(c.Request.Context(), &svc); err != nil {
		writeError(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "service_created",
		Entity:   "service",
		EntityID: svc.ServiceID,
	})

	httpresp.Created(c, svc)
}

func (h *ServiceHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	svc, err := h.store.GetService(ctx, c.Param("serviceId"))
	if err != nil {
		writeStoreError(c, err, domain.ErrServiceNotFound)
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	changed := false
	if name := req.name(); name != nil {
		if strings.TrimSpace(*name) == "" {
			badRequest(c, "Title must not be empty")
			return
		}
		svc.Name = strings.TrimSpace(*name)
		changed = true
	}
	if d := req.duration(); d != nil {
		if *d <= 0 {
			badRequest(c, "Duration must be positive")
			return
		}
		svc.DurationMinutes = *d
		changed = true
	}
	if req.Description != nil {
		svc.Description = *req.Description
		changed = true
	}
	if req.Price != nil {
		if *req.Price < 0 {
			badRequest(c, "Price must not be negative")
			return
		}
		svc.Price = *req.Price
		changed = true
	}

	if !changed {
		httperr.BadRequest(c, codeNoValidFields, "No valid fields to update")
		return
	}

	if err := h.store.UpdateService(ctx, svc); err != nil {
		writeStoreError(c, err, domain.ErrServiceNotFound)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "service_updated",
		Entity:   "service",
		EntityID: svc.ServiceID,
		Metadata: req,
	})

	httpresp.OK(c, svc)
}

func (h *ServiceHandler) Delete(c *gin.Context) {
	serviceID := c.Param("serviceId")

	if err := h.store.DeleteService(c.Request.Context(), serviceID); err != nil {
		writeStoreError(c, err, domain.ErrServiceNotFound)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "service_deleted",
		Entity:   "service",
		EntityID: serviceID,
	})

	httpresp.NoContent(c)
}
