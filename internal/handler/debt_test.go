package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jkarimi/iou-engine/internal/domain"
	"github.com/jkarimi/iou-engine/internal/notify"
	"github.com/jkarimi/iou-engine/internal/service"
	"github.com/jkarimi/iou-engine/pkg/taskqueue"
	"github.com/jkarimi/iou-engine/tests/mocks"
)

type handlerFixture struct {
	debts    *mocks.MockDebtRepository
	plans    *mocks.MockPaymentPlanRepository
	payments *mocks.MockPaymentRepository
	router   *mux.Router
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		debts:    &mocks.MockDebtRepository{},
		plans:    &mocks.MockPaymentPlanRepository{},
		payments: &mocks.MockPaymentRepository{},
	}

	queue := taskqueue.New(taskqueue.Options{})
	tasks := notify.NewTasks(f.debts, f.payments, nil, nil, queue)
	tasks.RegisterAll()

	svc := service.NewDebtService(f.debts, f.plans, f.payments,
		&mocks.MockNotificationRepository{}, mocks.MockTransactor{}, tasks, nil)
	h := NewDebtHandler(svc)

	f.router = mux.NewRouter()
	f.router.HandleFunc("/api/v1/debts", h.CreateDebt).Methods("POST")
	f.router.HandleFunc("/api/v1/debts/{id}", h.GetDebt).Methods("GET")
	f.router.HandleFunc("/api/v1/debts/{id}/payments", h.RecordPayment).Methods("POST")

	return f
}

func doRequest(router *mux.Router, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateDebt_Created(t *testing.T) {
	f := newHandlerFixture()
	creditorID := uuid.New()

	f.debts.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec := doRequest(f.router, "POST", "/api/v1/debts", creditorID.String(), map[string]interface{}{
		"debtor_name": "Alice",
		"description": "shared rent",
		"amount":      "1000",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Success bool        `json:"success"`
		Data    domain.Debt `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, "Alice", envelope.Data.DebtorName)
	assert.Equal(t, creditorID, envelope.Data.CreditorID)
}

func TestCreateDebt_MissingUserHeader(t *testing.T) {
	f := newHandlerFixture()

	rec := doRequest(f.router, "POST", "/api/v1/debts", "", map[string]interface{}{
		"debtor_name": "Alice",
		"description": "rent",
		"amount":      "100",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	f.debts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateDebt_ValidationFailure(t *testing.T) {
	f := newHandlerFixture()

	rec := doRequest(f.router, "POST", "/api/v1/debts", uuid.New().String(), map[string]interface{}{
		"description": "missing debtor name",
		"amount":      "100",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDebt_NotFoundAndForbidden(t *testing.T) {
	f := newHandlerFixture()
	creditorID := uuid.New()

	missingID := uuid.New()
	f.debts.On("GetByID", mock.Anything, missingID).Return(nil, sql.ErrNoRows)

	rec := doRequest(f.router, "GET", "/api/v1/debts/"+missingID.String(), creditorID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	foreign := &domain.Debt{
		ID:         uuid.New(),
		Status:     domain.DebtStatusActive,
		Amount:     decimal.NewFromInt(100),
		CreditorID: uuid.New(),
	}
	f.debts.On("GetByID", mock.Anything, foreign.ID).Return(foreign, nil)

	rec = doRequest(f.router, "GET", "/api/v1/debts/"+foreign.ID.String(), creditorID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRecordPayment_Overpayment(t *testing.T) {
	f := newHandlerFixture()
	creditorID := uuid.New()

	debt := &domain.Debt{
		ID:             uuid.New(),
		Status:         domain.DebtStatusActive,
		Amount:         decimal.NewFromInt(600),
		OriginalAmount: decimal.NewFromInt(1000),
		CreditorID:     creditorID,
	}
	f.debts.On("GetByID", mock.Anything, debt.ID).Return(debt, nil)

	rec := doRequest(f.router, "POST", "/api/v1/debts/"+debt.ID.String()+"/payments", creditorID.String(), map[string]interface{}{
		"amount":         "700",
		"payment_method": "cash",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "exceeds outstanding balance")
}
