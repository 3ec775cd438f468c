package usersink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-bakeryops/pkg/activity"
)

type recordingSink struct {
	records []types.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record types.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookRecordsManualAlert(t *testing.T) {
	sink := &recordingSink{}
	session := uuid.New()
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	err := Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:           "alert.report",
		ActorID:        session.String(),
		ObjectType:     "alert",
		ObjectID:       "M7",
		Channel:        "http",
		DefinitionCode: "alert:manual",
		Recipients:     []string{"ops@bakery.example"},
		Metadata:       map[string]any{"branch": "Maadi", "severity": "error"},
		OccurredAt:     at,
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, session, record.ActorID)
	assert.Equal(t, uuid.Nil, record.UserID)
	assert.Equal(t, uuid.Nil, record.TenantID)
	assert.Equal(t, "alert.report", record.Verb)
	assert.Equal(t, "alert", record.ObjectType)
	assert.Equal(t, "M7", record.ObjectID)
	assert.Equal(t, "http", record.Channel)
	assert.Equal(t, at, record.OccurredAt)
	assert.Equal(t, "Maadi", record.Data["branch"])
	assert.Equal(t, "alert:manual", record.Data["definition_code"])
	assert.Equal(t, []string{"ops@bakery.example"}, record.Data["recipients"])
}

func TestHookMapsUnparseableActorToNil(t *testing.T) {
	sink := &recordingSink{}
	require.NoError(t, Hook{Sink: sink}.Notify(context.Background(), activity.Event{
		Verb:       "sync.run",
		ActorID:    "id-1",
		ObjectType: "sync",
		ObjectID:   "run-1",
	}))
	require.Len(t, sink.records, 1)
	assert.Equal(t, uuid.Nil, sink.records[0].ActorID)
	assert.NotContains(t, sink.records[0].Data, "definition_code")
}

func TestHookSkipsAndPropagates(t *testing.T) {
	assert.NoError(t, Hook{}.Notify(context.Background(), activity.Event{Verb: "session.login"}))

	sink := &recordingSink{err: errors.New("audit store down")}
	hook := Hook{Sink: sink}
	assert.NoError(t, hook.Notify(context.Background(), activity.Event{}))
	assert.Empty(t, sink.records)

	err := hook.Notify(context.Background(), activity.Event{Verb: "session.login", ObjectType: "session"})
	assert.EqualError(t, err, "audit store down")
}
