package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queuedHandler(size int) *MongoHandler {
	return &MongoHandler{
		sink:  &sink{queue: make(chan LogDocument, size)},
		level: slog.LevelInfo,
	}
}

func TestMongoHandlerBuildsDocument(t *testing.T) {
	h := queuedHandler(4)
	log := slog.New(h).With("request_id", "rid-1").WithGroup("lead")

	log.Info("lead converted", "id", "abc", "err", errors.New("boom"))

	require.Len(t, h.sink.queue, 1)
	doc := <-h.sink.queue
	assert.Equal(t, "lead converted", doc.Msg)
	assert.Equal(t, "INFO", doc.Level)
	assert.Equal(t, "rid-1", doc.RequestID)
	assert.Equal(t, "abc", doc.Attrs["lead.id"])
	assert.Equal(t, "boom", doc.Attrs["lead.err"])
	assert.Equal(t, time.UTC, doc.Time.Location())
}

func TestMongoHandlerRespectsLevel(t *testing.T) {
	h := queuedHandler(4)
	slog.New(h).Debug("noise")
	assert.Len(t, h.sink.queue, 0)
}

func TestMongoHandlerDropsWhenFull(t *testing.T) {
	h := queuedHandler(1)
	log := slog.New(h)

	log.Info("one")
	log.Info("two")
	log.Info("three")

	assert.Len(t, h.sink.queue, 1)
	assert.EqualValues(t, 2, h.Dropped())
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(m).With("request_id", "r1")

	log.Info("hello")
	log.Warn("careful")

	assert.Contains(t, a.String(), "hello")
	assert.Contains(t, a.String(), "careful")
	assert.NotContains(t, b.String(), "hello")
	assert.Contains(t, b.String(), "careful")
	assert.Contains(t, b.String(), "request_id=r1")
}

func TestWithCtx(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	tagged := L.With("request_id", "x")
	ctx := InjectLogger(context.Background(), tagged)
	assert.Same(t, tagged, WithCtx(ctx))
}

func TestSetupWithoutURIIsNoop(t *testing.T) {
	t.Setenv("LOG_MONGO_URI", "")
	closeFn, err := Setup()
	require.NoError(t, err)
	closeFn()
}
