package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/charsheet/internal/testutils"
	"github.com/aretw0/charsheet/pkg/adapters/memory"
	"github.com/aretw0/charsheet/pkg/domain"
	"github.com/aretw0/charsheet/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	streams *StreamManager
	mgr     *session.Manager
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	streams := NewStreamManager(nil)
	mgr := session.NewManager(memory.NewEngine(), nil,
		session.WithStore(memory.NewStore()),
		session.WithPage(testutils.SheetPage),
		session.WithHooks(streams.Hooks()),
	)
	opts = append([]Option{WithStreams(streams)}, opts...)
	return &fixture{handler: NewHandler(mgr, opts...), streams: streams, mgr: mgr}
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) create(t *testing.T) string {
	t.Helper()
	w := f.do("POST", "/sheets", testutils.SheetJSON)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["key"])
	return resp["key"]
}

func (f *fixture) userValue(t *testing.T, key, name string) string {
	t.Helper()
	w := f.do("GET", "/sheets/"+key+"/snapshot", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap, err := domain.DecodeSnapshot(w.Body.Bytes())
	require.NoError(t, err)
	v, ok := snap.UserValue(name)
	require.True(t, ok, name)
	return v.String()
}

func TestHealthAndInfo(t *testing.T) {
	f := newFixture(t, WithVersion("1.2.3\n"))

	w := f.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do("GET", "/info", "")
	assert.JSONEq(t, `{"app":"charsheet-http","version":"1.2.3"}`, w.Body.String())
}

func TestSheetLifecycle(t *testing.T) {
	f := newFixture(t)
	key := f.create(t)

	w := f.do("GET", "/sheets", "")
	assert.JSONEq(t, `{"sheets":["`+key+`"]}`, w.Body.String())

	w = f.do("GET", "/sheets/"+key, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `value="2d4+2"`)

	w = f.do("POST", "/sheets/"+key+"/input", `{"id":"strength","value":"14"}`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, "14", f.userValue(t, key, "strength"))

	w = f.do("POST", "/sheets/"+key+"/changes", `[{"type":"user-input","property":"resilience","value":{"number":3}}]`)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	assert.Equal(t, "3", f.userValue(t, key, "resilience"))

	w = f.do("GET", "/sheets/"+key+"/required", "")
	assert.JSONEq(t, `{"required":["resilience","speed","strength"]}`, w.Body.String())

	w = f.do("DELETE", "/sheets/"+key, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do("GET", "/sheets/"+key+"/snapshot", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRestore(t *testing.T) {
	f := newFixture(t)
	key := f.create(t)
	f.do("POST", "/sheets/"+key+"/input", `{"id":"speed","value":"1d12"}`)

	w := f.do("POST", "/sheets/restore/"+key, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEqual(t, key, resp["key"])
	assert.Equal(t, "1d12", f.userValue(t, resp["key"], "speed"))

	w = f.do("POST", "/sheets/restore/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	key := f.create(t)

	cases := []struct {
		name, method, target, body string
		status                     int
	}{
		{"bad document", "POST", "/sheets", "{", http.StatusBadRequest},
		{"unknown sheet", "GET", "/sheets/nope/snapshot", "", http.StatusNotFound},
		{"unknown element", "POST", "/sheets/" + key + "/input", `{"id":"nope","value":"1"}`, http.StatusNotFound},
		{"missing id", "POST", "/sheets/" + key + "/input", `{"value":"1"}`, http.StatusBadRequest},
		{"oversized input", "POST", "/sheets/" + key + "/input", `{"id":"strength","value":"` + strings.Repeat("1", 2048) + `"}`, http.StatusBadRequest},
		{"bad changes", "POST", "/sheets/" + key + "/changes", `"text"`, http.StatusBadRequest},
		{"unsupported change", "POST", "/sheets/" + key + "/changes", `{"type":"bogus","property":"x"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := f.do(tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestNilLoggerKeepsDefault(t *testing.T) {
	f := newFixture(t, WithLogger(nil))
	assert.NotPanics(t, func() {
		key := f.create(t)
		w := f.do("GET", "/sheets/nope/snapshot", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = f.do("DELETE", "/sheets/"+key, "")
		assert.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do("GET", "/metrics", "").Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("charsheet_synchronize_total 1\n"))
	})
	f = newFixture(t, WithMetrics(metrics))
	w := f.do("GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "charsheet_synchronize_total")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	w := f.do("OPTIONS", "/sheets", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	key := f.create(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/sheets/"+key+"/events", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	require.Eventually(t, func() bool {
		f.streams.mu.RLock()
		defer f.streams.mu.RUnlock()
		return len(f.streams.subscribers[key]) == 1
	}, time.Second, 10*time.Millisecond)

	w := f.do("POST", "/sheets/"+key+"/input", `{"id":"strength","value":"16"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	// Give the stream loop time to drain the buffered message.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"strength":{"number":16}`)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, unsubscribe := sm.Subscribe("k")

	sm.Broadcast("k", "hello")
	sm.Broadcast("other", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("k", "flood")
	}
	assert.Len(t, ch, cap(ch), "overflow is dropped, not blocked")

	unsubscribe()
	unsubscribe()
	assert.Empty(t, sm.subscribers)
}
