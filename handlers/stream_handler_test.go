package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/bracket-engine/brackets"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/repositories"
	"github.com/Dosada05/bracket-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncResponseWriter is a flushable recorder safe to read while the stream
// handler keeps writing from its own goroutine.
type syncResponseWriter struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSyncResponseWriter() *syncResponseWriter {
	return &syncResponseWriter{header: make(http.Header)}
}

func (w *syncResponseWriter) Header() http.Header { return w.header }

func (w *syncResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = code
}

func (w *syncResponseWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *syncResponseWriter) Flush() {}

func (w *syncResponseWriter) body() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func newStreamFixture(t *testing.T) (services.BracketService, *brackets.Broadcaster, *chi.Mux) {
	t.Helper()
	broadcaster := brackets.NewBroadcaster()
	bracketSvc := services.NewBracketService(repositories.NewMemoryBracketRepository(), broadcaster, testLogger())
	router := chi.NewRouter()
	router.Get("/tournaments/{tournamentID}/bracket/stream", NewStreamHandler(bracketSvc, broadcaster).Stream)
	return bracketSvc, broadcaster, router
}

func TestStreamUnknownTournament(t *testing.T) {
	_, _, router := newStreamFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/missing/bracket/stream", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeErrorEnvelope(t, rec).Kind)
}

func TestStreamDeliversAndUnsubscribesOnDisconnect(t *testing.T) {
	bracketSvc, broadcaster, router := newStreamFixture(t)
	ctx := context.Background()

	_, err := bracketSvc.CreateBracket(ctx, "t1", []string{"a", "b"}, models.BracketSingle)
	require.NoError(t, err)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/tournaments/t1/bracket/stream", nil).WithContext(reqCtx)
	w := newSyncResponseWriter()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return broadcaster.SubscriberCount("t1") == 1
	}, time.Second, 5*time.Millisecond, "stream never subscribed")

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, w.body(), "event: snapshot")

	// A mutation arrives as an update event.
	_, err = bracketSvc.ApplyMutation(ctx, "t1", func(b *models.Bracket) error {
		return brackets.Report(b, models.Coordinate{Side: models.SideWinners, Round: 0, Position: 0}, 1, 0, nil)
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(w.body(), "event: update")
	}, time.Second, 5*time.Millisecond, "update event never delivered")

	// Disconnecting ends the handler and tears the subscription down with it.
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream handler did not return after client disconnect")
	}
	assert.Zero(t, broadcaster.SubscriberCount("t1"))
}
