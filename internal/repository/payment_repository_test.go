package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
)

func TestApplyEventUpdatesSubscriptions(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	paid := models.PaymentPaid
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (provider_event_id) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE course_subscriptions SET payment_status = $2")).
		WithArgs("pi_123", paid, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := repo.ApplyEvent(context.Background(), &models.PaymentEvent{ProviderEventID: "evt_1", EventType: "payment_intent.succeeded", Payload: []byte(`{}`)}, "pi_123", &paid)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyEventDuplicateIsSkipped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	paid := models.PaymentPaid
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (provider_event_id) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	applied, err := repo.ApplyEvent(context.Background(), &models.PaymentEvent{ProviderEventID: "evt_1", EventType: "payment_intent.succeeded", Payload: []byte(`{}`)}, "pi_123", &paid)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
