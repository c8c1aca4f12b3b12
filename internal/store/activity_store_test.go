package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/housecheck/internal/domain"
)

func TestActivityStoreAppendAndList(t *testing.T) {
	activity := NewActivityStore(openTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := &domain.ActivityRecord{SessionID: "s-1", UserID: "user-1", EventType: domain.EventSessionStarted, CreatedAt: now}
	require.NoError(t, activity.Append(ctx, first))
	assert.NotZero(t, first.ID)

	require.NoError(t, activity.Append(ctx, &domain.ActivityRecord{
		SessionID: "s-1",
		UserID:    "user-1",
		EventType: domain.EventItemToggled,
		Payload:   map[string]any{"item_id": "exterior.locks", "completed": true},
		CreatedAt: now.Add(time.Second),
	}))
	require.NoError(t, activity.Append(ctx, &domain.ActivityRecord{
		SessionID: "s-2", UserID: "user-1", EventType: domain.EventSessionStarted, CreatedAt: now,
	}))

	records, err := activity.ListBySession(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, domain.EventSessionStarted, records[0].EventType)
	assert.Empty(t, records[0].Payload)
	assert.Equal(t, domain.EventItemToggled, records[1].EventType)
	assert.Equal(t, "exterior.locks", records[1].Payload["item_id"])
	assert.Equal(t, true, records[1].Payload["completed"])
}

func TestActivityStoreList_Empty(t *testing.T) {
	activity := NewActivityStore(openTestDB(t))

	records, err := activity.ListBySession(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, records)
}
