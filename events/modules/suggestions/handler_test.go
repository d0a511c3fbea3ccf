package suggestions

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAggregationService struct {
	rebuilt []string
	applied []string
}

func (f *fakeAggregationService) RebuildSuggestion(_ context.Context, suggestionKey string) error {
	f.rebuilt = append(f.rebuilt, suggestionKey)
	return nil
}

func (f *fakeAggregationService) ApplySuggestionEdits(_ context.Context, suggestionKey string) error {
	f.applied = append(f.applied, suggestionKey)
	return nil
}

func eventBytes(t *testing.T, eventType, suggestionKey string) []byte {
	t.Helper()
	msg, err := json.Marshal(Event{
		EventType:     eventType,
		EventID:       "e1",
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		SuggestionKey: suggestionKey,
		CveID:         "CVE-2024-0001",
	})
	require.NoError(t, err)
	return msg
}

func TestHandleEventDispatchesCreated(t *testing.T) {
	service := &fakeAggregationService{}
	err := HandleEventWithService(context.Background(), eventBytes(t, EventTypeCreated, "s1"), service)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, service.rebuilt)
	assert.Empty(t, service.applied)
}

func TestHandleEventDispatchesEditsChanged(t *testing.T) {
	service := &fakeAggregationService{}
	err := HandleEventWithService(context.Background(), eventBytes(t, EventTypeEditsChanged, "s2"), service)
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, service.applied)
	assert.Empty(t, service.rebuilt)
}

func TestHandleEventRejectsMissingKey(t *testing.T) {
	service := &fakeAggregationService{}
	err := HandleEventWithService(context.Background(), eventBytes(t, EventTypeCreated, ""), service)
	assert.Error(t, err)
}

func TestHandleEventRejectsUnknownType(t *testing.T) {
	service := &fakeAggregationService{}
	err := HandleEventWithService(context.Background(), eventBytes(t, "suggestion.unknown", "s3"), service)
	assert.Error(t, err)
}

func TestHandleEventRejectsMalformedPayload(t *testing.T) {
	service := &fakeAggregationService{}
	err := HandleEventWithService(context.Background(), []byte("{not json"), service)
	assert.Error(t, err)
}
