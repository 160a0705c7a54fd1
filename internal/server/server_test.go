package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/petasbytes/go-assistant/internal/server"
	"github.com/petasbytes/go-assistant/memory"
)

// echoRunner answers with the number of prior messages and the utterance.
type echoRunner struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (e *echoRunner) Respond(_ context.Context, conv memory.Conversation, utterance string) (string, memory.Conversation, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return "", conv, e.err
	}
	reply := strings.Repeat("+", len(conv)) + utterance
	out := append(conv.Clone(), memory.UserMessage(utterance), memory.AssistantMessage(reply))
	return reply, out, nil
}

type fakeDocs struct {
	err  error
	docs []string
}

func (f *fakeDocs) AddDocument(_ context.Context, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.docs = append(f.docs, content)
	return uuid.NewString(), nil
}

type failingStore struct{ memory.Store }

func (failingStore) Load(context.Context, string) (memory.Conversation, error) {
	return nil, errors.New("redis: connection refused")
}

func newTestServer(t *testing.T, opts server.Options) *httptest.Server {
	t.Helper()
	if opts.Mode == "" {
		opts.Mode = "chat"
	}
	srv := httptest.NewServer(server.New(opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, session, body string) (*http.Response, gjson.Result) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(server.SessionHeader, session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, gjson.ParseBytes(b)
}

func TestChat_ReturnsResponse_AndKeepsHistoryPerSession(t *testing.T) {
	store := memory.NewMemoryStore()
	srv := newTestServer(t, server.Options{Runner: &echoRunner{}, Store: store})

	resp, body := post(t, srv.URL+"/chat", "alice", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hi", body.Get("response").String())
	assert.Equal(t, "alice", resp.Header.Get(server.SessionHeader))

	_, body = post(t, srv.URL+"/chat", "alice", `{"content":"again"}`)
	assert.Equal(t, "++again", body.Get("response").String(), "second turn should see two prior messages")

	_, body = post(t, srv.URL+"/chat", "bob", `{"content":"hello"}`)
	assert.Equal(t, "hello", body.Get("response").String(), "sessions must not share history")

	conv, err := store.Load(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, conv, 4)
}

func TestChat_NewSessionWhenHeaderMissing(t *testing.T) {
	srv := newTestServer(t, server.Options{Runner: &echoRunner{}})

	resp1, _ := post(t, srv.URL+"/chat", "", `{"content":"a"}`)
	resp2, body2 := post(t, srv.URL+"/chat", "", `{"content":"b"}`)

	id1 := resp1.Header.Get(server.SessionHeader)
	id2 := resp2.Header.Get(server.SessionHeader)
	_, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, "b", body2.Get("response").String())
}

func TestChat_ValidationErrors(t *testing.T) {
	runner := &echoRunner{}
	srv := newTestServer(t, server.Options{Runner: runner})

	tests := []struct {
		name    string
		session string
		body    string
		detail  string
	}{
		{"malformed json", "", `{"content":`, "invalid request body"},
		{"empty body", "", ``, "request body is empty"},
		{"missing content", "", `{}`, "content must not be empty"},
		{"blank content", "", `{"content":"   "}`, "content must not be empty"},
		{"wrong type", "", `{"content":42}`, "invalid request body"},
		{"bad session id", "../etc", `{"content":"x"}`, "ERR_INVALID_SESSION_ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, srv.URL+"/chat", tt.session, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, body.Get("detail").String(), tt.detail)
		})
	}
	assert.Zero(t, runner.calls, "runner must not be called for invalid requests")
}

func TestChat_UpstreamFailure_Is500AndHistoryUnchanged(t *testing.T) {
	store := memory.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "s1", memory.Conversation{memory.UserMessage("q"), memory.AssistantMessage("a")}))
	srv := newTestServer(t, server.Options{Runner: &echoRunner{err: errors.New("upstream model call failed: 503")}, Store: store})

	resp, body := post(t, srv.URL+"/chat", "s1", `{"content":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "upstream model call failed: 503", body.Get("detail").String())

	conv, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, conv, 2)
}

func TestChat_StoreFailure_Is500(t *testing.T) {
	srv := newTestServer(t, server.Options{Runner: &echoRunner{}, Store: failingStore{}})

	resp, body := post(t, srv.URL+"/chat", "s1", `{"content":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body.Get("detail").String(), "connection refused")
}

func TestChat_ConcurrentSameSession_AllTurnsRecorded(t *testing.T) {
	store := memory.NewMemoryStore()
	srv := newTestServer(t, server.Options{Runner: &echoRunner{}, Store: store})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := post(t, srv.URL+"/chat", "shared", `{"content":"x"}`)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
		}()
	}
	wg.Wait()

	conv, err := store.Load(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, conv, 20, "no turn may be lost to a concurrent write")
}

func TestDocument(t *testing.T) {
	docs := &fakeDocs{}
	srv := newTestServer(t, server.Options{Mode: "rag", Runner: &echoRunner{}, Documents: docs})

	resp, _ := post(t, srv.URL+"/document", "", `{"content":"The sky is blue."}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"The sky is blue."}, docs.docs)

	resp, body := post(t, srv.URL+"/document", "", `{"content":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotEmpty(t, body.Get("detail").String())

	docs.err = errors.New("embedding quota exceeded")
	resp, body = post(t, srv.URL+"/document", "", `{"content":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "embedding quota exceeded", body.Get("detail").String())
}

func TestDocument_NotRoutedWithoutIndexer(t *testing.T) {
	srv := newTestServer(t, server.Options{Runner: &echoRunner{}})

	resp, _ := post(t, srv.URL+"/document", "", `{"content":"x"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, server.Options{Mode: "smarthome", Runner: &echoRunner{}})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "ok", gjson.GetBytes(b, "status").String())
	assert.Equal(t, "smarthome", gjson.GetBytes(b, "mode").String())

	resp2, err := http.Get(srv.URL + "/chat")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp2.StatusCode)
}

func TestStart_ReturnsNilAfterShutdown(t *testing.T) {
	srv := server.New(server.Options{Mode: "chat", Runner: &echoRunner{}})
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start("127.0.0.1:0") }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
