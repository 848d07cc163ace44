package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/service"
	apperrors "github.com/jkarimi/iou-engine/pkg/errors"
	"github.com/jkarimi/iou-engine/pkg/response"
)

// UserIDHeader carries the acting creditor's id. Authentication itself
// happens upstream; the service layer still checks ownership.
const UserIDHeader = "X-User-ID"

type DebtHandler struct {
	service   *service.DebtService
	validator *validator.Validate
}

func NewDebtHandler(service *service.DebtService) *DebtHandler {
	return &DebtHandler{
		service:   service,
		validator: validator.New(),
	}
}

// CreateDebt handles POST /api/v1/debts
func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}

	var req domain.CreateDebtRequest
	if !h.decode(w, r, &req) {
		return
	}

	debt, err := h.service.CreateDebt(r.Context(), creditorID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, debt)
}

// ListDebts handles GET /api/v1/debts
func (h *DebtHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}

	debts, err := h.service.ListDebts(r.Context(), creditorID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, debts)
}

// GetDebt handles GET /api/v1/debts/{id}
func (h *DebtHandler) GetDebt(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	debt, err := h.service.GetDebt(r.Context(), creditorID, debtID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, debt)
}

// DeleteDebt handles DELETE /api/v1/debts/{id}
func (h *DebtHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDebt(r.Context(), creditorID, debtID); err != nil {
		respondError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"deleted": debtID.String()})
}

// RecordPayment handles POST /api/v1/debts/{id}/payments
func (h *DebtHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.RecordPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), creditorID, debtID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, payment)
}

// ListPayments handles GET /api/v1/debts/{id}/payments
func (h *DebtHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), creditorID, debtID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, payments)
}

// CreatePaymentPlan handles POST /api/v1/debts/{id}/payment-plan
func (h *DebtHandler) CreatePaymentPlan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.CreatePlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.service.CreatePaymentPlan(r.Context(), creditorID, debtID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, plan)
}

// GetPaymentPlan handles GET /api/v1/debts/{id}/payment-plan
func (h *DebtHandler) GetPaymentPlan(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	plan, err := h.service.GetPaymentPlan(r.Context(), creditorID, debtID)
	if err != nil {
		respondError(w, err)
		return
	}
	if plan == nil {
		response.NotFound(w, "No payment plan for this debt")
		return
	}

	response.Success(w, plan)
}

// MarkPaid handles POST /api/v1/debts/{id}/mark-paid
func (h *DebtHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	debt, err := h.service.MarkPaid(r.Context(), creditorID, debtID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, debt)
}

// SendReminder handles POST /api/v1/debts/{id}/remind
func (h *DebtHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	req := domain.SendReminderRequest{}
	if r.ContentLength > 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	debt, err := h.service.SendReminder(r.Context(), creditorID, debtID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, debt)
}

// ScheduleReminder handles POST /api/v1/debts/{id}/remind/schedule
func (h *DebtHandler) ScheduleReminder(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}
	debtID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req domain.ScheduleReminderRequest
	if !h.decode(w, r, &req) {
		return
	}

	sched, err := h.service.ScheduleReminder(r.Context(), creditorID, debtID, &req)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Created(w, sched)
}

// Statistics handles GET /api/v1/debts/stats
func (h *DebtHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	creditorID, ok := actorID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Statistics(r.Context(), creditorID)
	if err != nil {
		respondError(w, err)
		return
	}

	response.Success(w, stats)
}

func (h *DebtHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		response.BadRequest(w, "Validation failed", err)
		return false
	}
	return true
}

// actorID extracts the acting user from the X-User-ID header.
func actorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get(UserIDHeader)
	if raw == "" {
		response.Error(w, http.StatusUnauthorized, "Missing "+UserIDHeader+" header", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid "+UserIDHeader+" header", err)
		return uuid.Nil, false
	}
	return id, true
}

// pathID extracts the {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		response.BadRequest(w, "Invalid id in path", err)
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps business errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	var bizErr *apperrors.BusinessError
	if !errors.As(err, &bizErr) {
		response.InternalServerError(w, "Internal server error", err)
		return
	}

	switch bizErr.Code {
	case apperrors.ErrCodeDebtNotFound, apperrors.ErrCodeTemplateNotFound:
		response.Error(w, http.StatusNotFound, bizErr.Message, bizErr.Err)
	case apperrors.ErrCodeForbidden:
		response.Error(w, http.StatusForbidden, bizErr.Message, bizErr.Err)
	case apperrors.ErrCodePlanAlreadyExists:
		response.Error(w, http.StatusConflict, bizErr.Message, bizErr.Err)
	case apperrors.ErrCodeInvalidPaymentAmount,
		apperrors.ErrCodePaymentExceedsBalance,
		apperrors.ErrCodeDebtAlreadyPaid,
		apperrors.ErrCodePlanUnderfunded,
		apperrors.ErrCodeScheduleInPast,
		apperrors.ErrCodeNoContent:
		response.BadRequest(w, bizErr.Message, bizErr.Err)
	default:
		response.InternalServerError(w, bizErr.Message, bizErr.Err)
	}
}
