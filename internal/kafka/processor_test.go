package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tweag/nix-security-tracker/events/modules/suggestions"
)

// fakeReader plays back queued messages and cancels the context once the
// queue is drained, ending the consume loop.
type fakeReader struct {
	msgs      []kafka.Message
	cancel    context.CancelFunc
	committed []int64
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		f.cancel()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.msgs[0]
	f.msgs = f.msgs[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		f.committed = append(f.committed, msg.Offset)
	}
	return nil
}

func TestConsumeCommitsOnlyHandledMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte("fails")},
			{Offset: 2, Value: []byte("ok")},
		},
	}

	handled := []string{}
	consume(ctx, reader, func(_ context.Context, msg []byte) error {
		handled = append(handled, string(msg))
		if string(msg) == "fails" {
			return errors.New("handler failure")
		}
		return nil
	})

	assert.Equal(t, []string{"fails", "ok"}, handled)
	// The failed message's offset stays uncommitted for redelivery.
	assert.Equal(t, []int64{2}, reader.committed)
}

func TestConsumeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader := &fakeReader{cancel: func() {}}
	consume(ctx, reader, func(_ context.Context, _ []byte) error {
		t.Fatal("no message should be handled")
		return nil
	})
	assert.Empty(t, reader.committed)
}

func TestDispatchSkipsMalformedAndUnknownEvents(t *testing.T) {
	// Neither path may reach a handler, so empty services are safe; both
	// must report success so the offset is committed and the message is
	// never redelivered.
	err := dispatch(context.Background(), []byte("{not json"), Services{})
	require.NoError(t, err)

	unknown, err := json.Marshal(suggestions.Event{
		EventType:     "suggestion.unknown",
		EventID:       "e1",
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		SuggestionKey: "s1",
	})
	require.NoError(t, err)
	err = dispatch(context.Background(), unknown, Services{})
	require.NoError(t, err)
}
