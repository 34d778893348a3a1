package journal

import (
	"errors"
	"net/http"
	"strconv"

	"photojournal/internal/imagestore"
	"photojournal/internal/pkg/response"
	"photojournal/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler exposes the journal CRUD over the classic form-post routes
// the PWA front end uses: /, /add_entry, /edit_entry/:id,
// /delete_entry/:id. Responses are JSON; the pages consume them with
// fetch.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the journal routes on an authenticated group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.List)
	r.POST("/add_entry", h.Create)
	r.POST("/edit_entry/:id", h.Update)
	r.POST("/delete_entry/:id", h.Delete)
}

func (h *Handler) List(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	entries, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to load entries")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"visibility": h.service.Visibility(),
		"entries":    entries,
	})
}

func (h *Handler) Create(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}

	var form EntryForm
	if err := c.ShouldBind(&form); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Title and body are required", validator.Validate(form))
		return
	}

	// FormFile errors when the part is absent; the store rejects the
	// rest (empty name, bad extension, oversize).
	fileHeader, err := c.FormFile("image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "IMAGE_REQUIRED", "No image uploaded")
		return
	}

	entry, err := h.service.Create(c.Request.Context(), userID, form, fileHeader)
	if err != nil {
		respondImageError(c, err, "CREATE_FAILED", "Failed to add entry")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"entry": entry})
}

func (h *Handler) Update(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	var form EntryForm
	if err := c.ShouldBind(&form); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Title and body are required", validator.Validate(form))
		return
	}

	// Image is optional on edit. A present-but-empty file input from a
	// browser form arrives as a part with an empty filename; treat that
	// as "keep the current image", matching the old behavior.
	fileHeader, err := c.FormFile("image")
	if err != nil || fileHeader.Filename == "" {
		fileHeader = nil
	}

	entry, err := h.service.Update(c.Request.Context(), userID, entryID, form, fileHeader)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Entry not found or access denied")
			return
		}
		respondImageError(c, err, "UPDATE_FAILED", "Failed to update entry")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"entry": entry})
}

func (h *Handler) Delete(c *gin.Context) {
	userID := mustUserID(c)
	if userID == 0 {
		return
	}
	entryID, ok := entryIDParam(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, entryID); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Entry not found or access denied")
			return
		}
		response.Error(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete entry")
		return
	}

	response.Message(c, http.StatusOK, "Entry deleted")
}

func respondImageError(c *gin.Context, err error, fallbackCode, fallbackMsg string) {
	switch {
	case errors.Is(err, imagestore.ErrMissingFile), errors.Is(err, imagestore.ErrEmptyFilename):
		response.Error(c, http.StatusBadRequest, "IMAGE_REQUIRED", "No image selected")
	case errors.Is(err, imagestore.ErrBadExtension):
		response.Error(c, http.StatusBadRequest, "UNSUPPORTED_IMAGE_TYPE", "Invalid file type")
	case errors.Is(err, imagestore.ErrTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE", "Image exceeds the size limit")
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMsg)
	}
}

func entryIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid entry ID")
		return 0, false
	}
	return id, true
}

func mustUserID(c *gin.Context) int64 {
	id, exists := c.Get("user_id")
	if !exists {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0
	}
	v, ok := id.(int64)
	if !ok || v == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return 0
	}
	return v
}
