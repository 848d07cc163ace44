package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/service"
	"github.com/jkarimi/iou-engine/pkg/response"
)

type NotificationHandler struct {
	service   *service.NotificationService
	validator *validator.Validate
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		validator: validator.New(),
	}
}

// GetPreferences handles GET /api/v1/notifications/preferences
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	pref, err := h.service.GetPreferences(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, pref)
}

// UpdatePreferences handles PATCH /api/v1/notifications/preferences
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	var req domain.UpdatePreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return
	}

	pref, err := h.service.UpdatePreferences(r.Context(), userID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, pref)
}

// History handles GET /api/v1/notifications/history
func (h *NotificationHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := actorID(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.BadRequest(w, "Invalid limit parameter", err)
			return
		}
		limit = parsed
	}

	logs, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, logs)
}

// ListReminderTemplates handles GET /api/v1/notifications/templates
func (h *NotificationHandler) ListReminderTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListReminderTemplates(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, templates)
}
