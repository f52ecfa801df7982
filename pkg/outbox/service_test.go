package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/creamcommerce/commerce-backend/pkg/db/models"
	"github.com/creamcommerce/commerce-backend/pkg/enums"
	"github.com/creamcommerce/commerce-backend/pkg/outbox/payloads"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  published_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestEmitStoresEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	orderID := uuid.New()
	userID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Actor:         &ActorRef{UserID: userID},
		Data: payloads.OrderPaidEvent{
			OrderID: orderID,
			UserID:  userID,
			Amount:  decimal.NewFromInt(100),
		},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, event)
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventOrderPaid, row.EventType)
	assert.Equal(t, enums.AggregateOrder, row.AggregateType)
	assert.Equal(t, orderID, row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, userID, envelope.Actor.UserID)

	var data payloads.OrderPaidEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, orderID, data.OrderID)
	assert.True(t, data.Amount.Equal(decimal.NewFromInt(100)))
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestFetchUnpublishedAndMark(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	var ids []uuid.UUID
	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < 3; i++ {
			aggID := uuid.New()
			ids = append(ids, aggID)
			event := DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   aggID,
				Data:          payloads.OrderCreatedEvent{OrderID: aggID},
			}
			if err := svc.Emit(context.Background(), tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	pending, err := repo.FetchUnpublished(2)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, repo.MarkPublished(pending[0].ID))
	require.NoError(t, repo.MarkFailed(pending[1].ID, errors.New("broker down")))

	remaining, err := repo.FetchUnpublished(10)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	for _, row := range remaining {
		assert.NotEqual(t, pending[0].ID, row.ID)
	}

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", pending[1].ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "broker down", *failed.LastError)
}
