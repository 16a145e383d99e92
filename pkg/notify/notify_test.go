package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"supplyhub/pkg/notify"
	"supplyhub/pkg/notify/notifytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_StampsTimeAndSwallowsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	rec := &notifytest.Recorder{Err: errors.New("broker down")}

	notify.Send(context.Background(), rec, log, notify.Event{Type: notify.OrderCreated, Entity: "order", EntityID: 5})

	events := rec.Events()
	require.Len(t, events, 1)
	assert.False(t, events[0].OccurredAt.IsZero())
	assert.Contains(t, buf.String(), "publish event failed")
	assert.Contains(t, buf.String(), "broker down")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := notify.NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, p.Publish(context.Background(), notify.Event{Type: notify.QuoteConverted, Entity: "quote", EntityID: 2}))
	assert.Contains(t, buf.String(), "type=quote.converted")
}
