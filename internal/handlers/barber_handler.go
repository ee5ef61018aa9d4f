package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/photos"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

// PhotoUploader stores a barber photo and returns its public URL.
type PhotoUploader interface {
	Upload(ctx context.Context, barberID string, r io.Reader) (string, error)
}

type BarberHandler struct {
	store    storage.BarberStore
	uploader PhotoUploader
	audit    *audit.Dispatcher
}

func NewBarberHandler(
	store storage.BarberStore,
	uploader PhotoUploader,
	audit *audit.Dispatcher,
) *BarberHandler {
	return &BarberHandler{
		store:    store,
		uploader: uploader,
		audit:    audit,
	}
}

// --------- Requests ---------

// Specialties is the older name of ServiceIDs.
type CreateBarberRequest struct {
	Name        string   `json:"name"`
	ServiceIDs  []string `json:"serviceIds"`
	Specialties []string `json:"specialties"`
	Rating      *float64 `json:"rating"`
	PhotoURL    string   `json:"photoUrl"`
}

type UpdateBarberRequest struct {
	Name        *string   `json:"name"`
	ServiceIDs  *[]string `json:"serviceIds"`
	Specialties *[]string `json:"specialties"`
	Rating      *float64  `json:"rating"`
	PhotoURL    *string   `json:"photoUrl"`
}

func validRating(r float64) bool {
	return r >= 0 && r <= 5
}

// --------- Handlers ---------

func (h *BarberHandler) List(c *gin.Context) {
	barbers, err := h.store.ListBarbers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	httpresp.List(c, "barbers", barbers)
}

func (h *BarberHandler) Get(c *gin.Context) {
	b, err := h.store.GetBarber(c.Request.Context(), c.Param("barberId"))
	if err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}
	httpresp.Item(c, http.StatusOK, "barber", b)
}

func (h *BarberHandler) Create(c *gin.Context) {
	var req CreateBarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	serviceIDs := req.ServiceIDs
	if serviceIDs == nil {
		serviceIDs = req.Specialties
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || serviceIDs == nil {
		badRequest(c, "Name and serviceIds are required")
		return
	}

	b := models.Barber{
		BarberID:   uuid.NewString(),
		Name:       name,
		ServiceIDs: models.StringList(serviceIDs),
		PhotoURL:   req.PhotoURL,
	}
	if req.Rating != nil {
		if !validRating(*req.Rating) {
			badRequest(c, "Rating must be between 0 and 5")
			return
		}
		b.Rating = *req.Rating
	}
	if b.PhotoURL == "" {
		b.PhotoURL = models.DefaultPhotoURL
	}

	if err := h.store.CreateBarber(c.Request.Context(), &b); err != nil {
		writeError(c, err)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "barber_created",
		Entity:   "barber",
		EntityID: b.BarberID,
	})

	httpresp.Item(c, http.StatusCreated, "barber", b)
}

func (h *BarberHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	b, err := h.store.GetBarber(ctx, c.Param("barberId"))
	if err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}

	var req UpdateBarberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	changed := false
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		b.Name = strings.TrimSpace(*req.Name)
		changed = true
	}
	if req.ServiceIDs != nil {
		b.ServiceIDs = models.StringList(*req.ServiceIDs)
		changed = true
	} else if req.Specialties != nil {
		b.ServiceIDs = models.StringList(*req.Specialties)
		changed = true
	}
	if req.Rating != nil {
		if !validRating(*req.Rating) {
			badRequest(c, "Rating must be between 0 and 5")
			return
		}
		b.Rating = *req.Rating
		changed = true
	}
	if req.PhotoURL != nil && *req.PhotoURL != "" {
		b.PhotoURL = *req.PhotoURL
		changed = true
	}

	if !changed {
		httperr.BadRequest(c, codeNoValidFields, "No valid fields to update")
		return
	}

	if err := h.store.UpdateBarber(ctx, b); err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "barber_updated",
		Entity:   "barber",
		EntityID: b.BarberID,
		Metadata: req,
	})

	httpresp.Item(c, http.StatusOK, "barber", b)
}

func (h *BarberHandler) Delete(c *gin.Context) {
	barberID := c.Param("barberId")

	if err := h.store.DeleteBarber(c.Request.Context(), barberID); err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "barber_deleted",
		Entity:   "barber",
		EntityID: barberID,
	})

	httpresp.NoContent(c)
}

// UploadPhoto takes a multipart "photo" field and points the barber's
// photoUrl at the stored copy.
func (h *BarberHandler) UploadPhoto(c *gin.Context) {
	if h.uploader == nil {
		httperr.Unavailable(c, codePhotosDisabled, "Photo uploads are not configured")
		return
	}

	ctx := c.Request.Context()

	b, err := h.store.GetBarber(ctx, c.Param("barberId"))
	if err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, photos.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "Multipart field \"photo\" is required")
		return
	}
	if fh.Size > photos.MaxUploadBytes {
		badRequest(c, "Photo is too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(ctx, b.BarberID, f)
	if err != nil {
		if errors.Is(err, photos.ErrUnsupportedImage) {
			httperr.BadRequest(c, codeInvalidImage, "Photo must be a JPEG, PNG or WebP image")
			return
		}
		writeError(c, err)
		return
	}

	b.PhotoURL = url
	if err := h.store.UpdateBarber(ctx, b); err != nil {
		writeStoreError(c, err, domain.ErrBarberNotFound)
		return
	}

	h.audit.Dispatch(audit.Event{
		Actor:    middleware.Actor(c),
		Action:   "barber_photo_uploaded",
		Entity:   "barber",
		EntityID: b.BarberID,
		Metadata: map[string]string{"photoUrl": url},
	})

	httpresp.Item(c, http.StatusOK, "barber", b)
}
