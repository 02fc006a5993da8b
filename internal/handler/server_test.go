package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/racevault/market-server/internal/chain"
	"github.com/racevault/market-server/internal/codestore"
	"github.com/racevault/market-server/internal/events"
	"github.com/racevault/market-server/internal/service"
	"github.com/racevault/market-server/internal/sse"
)

type stubAssets struct {
	assets *chain.Assets
	err    error
}

func (s stubAssets) Assets(ctx context.Context, wallet string) (*chain.Assets, error) {
	return s.assets, s.err
}

type testServer struct {
	router   http.Handler
	codes    *codestore.MemoryStore
	users    *mockUserRepo
	vehicles *mockVehicleRepo
	mods     *mockModRepo
	hub      *sse.Hub
	waiters  *sse.Waiters

	handlers RouterConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		codes:    codestore.NewMemoryStore(),
		users:    new(mockUserRepo),
		vehicles: new(mockVehicleRepo),
		mods:     new(mockModRepo),
		hub:      sse.NewHub(),
		waiters:  sse.NewWaiters(),
	}
	t.Cleanup(func() {
		ts.hub.Close()
		ts.waiters.Close()
	})

	assets := stubAssets{assets: &chain.Assets{
		Wallet:   "0x00000000000000000000000000000000000000aa",
		Balance:  decimal.RequireFromString("12.5"),
		Vehicles: []string{"7"},
	}}
	publisher := &events.NoopPublisher{}

	syncService := service.NewSyncService(ts.codes, ts.users, ts.waiters, publisher, assets, 5*time.Minute)
	vehicleService := service.NewVehicleService(ts.vehicles, ts.mods, ts.users, ts.hub, publisher)

	ts.handlers = RouterConfig{
		Sync:        NewSyncHandler(syncService, ts.waiters),
		Events:      NewEventsHandler(ts.hub),
		Webhook:     NewWebhookHandler(vehicleService),
		Vehicles:    NewVehicleHandler(vehicleService),
		CORSOrigins: []string{"*"},
	}
	ts.router = NewRouter(ts.handlers)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if s, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(s))
	} else if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// openStream starts an SSE request against srv and returns its data payloads.
// The channel closes when the stream ends.
func openStream(t *testing.T, srv *httptest.Server, path string) <-chan string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	frames := make(chan string, 16)
	go func() {
		defer close(frames)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				frames <- data
			}
		}
	}()
	return frames
}

func nextFrame(t *testing.T, frames <-chan string) string {
	t.Helper()
	select {
	case frame, ok := <-frames:
		require.True(t, ok, "stream ended before a frame arrived")
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return ""
	}
}
