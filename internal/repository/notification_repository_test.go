package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockNotificationRepository(t *testing.T) (NotificationRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return NewNotificationRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func preferenceColumns() []string {
	return []string{
		"user_id", "email_enabled", "sms_enabled", "email", "phone_number",
		"debt_reminders_email", "debt_reminders_sms",
		"payment_confirmations_email", "payment_confirmations_sms",
		"debt_created_email", "debt_created_sms", "reminder_frequency_days",
		"created_at", "updated_at",
	}
}

func TestGetOrCreatePreference_ReturnsExistingRow(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT user_id, email_enabled").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(preferenceColumns()).
			AddRow(userID, true, false, "creditor@example.com", "", true, false, true, false, true, false, 7, now, now))

	pref, err := repo.GetOrCreatePreference(context.Background(), userID)

	assert.NoError(t, err)
	assert.Equal(t, userID, pref.UserID)
	assert.Equal(t, "creditor@example.com", pref.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreatePreference_InsertsDefaultsOnFirstUse(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT user_id, email_enabled").
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO notification_preferences").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT user_id, email_enabled").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(preferenceColumns()).
			AddRow(userID, true, false, "", "", true, false, true, false, true, false, 7, now, now))

	pref, err := repo.GetOrCreatePreference(context.Background(), userID)

	assert.NoError(t, err)
	assert.True(t, pref.EmailEnabled)
	assert.False(t, pref.SMSEnabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreatePreference_PropagatesSelectErrors(t *testing.T) {
	repo, mock := newMockNotificationRepository(t)
	userID := uuid.New()
	dbDown := errors.New("connection refused")

	mock.ExpectQuery("SELECT user_id, email_enabled").
		WithArgs(userID).
		WillReturnError(dbDown)

	_, err := repo.GetOrCreatePreference(context.Background(), userID)

	// Infrastructure failures surface as-is; only a missing row triggers
	// the default insert.
	assert.ErrorIs(t, err, dbDown)
	assert.NoError(t, mock.ExpectationsWereMet())
}
