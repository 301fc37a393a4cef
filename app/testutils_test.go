package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/postline/internal/commentservice"
	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/mediaservice"
	"github.com/sushihentaime/postline/internal/postservice"
	"github.com/sushihentaime/postline/internal/taxonomyservice"
	"github.com/sushihentaime/postline/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

// memoryStore keeps uploaded objects in memory.
type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[key] = data

	return nil
}

func (s *memoryStore) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

func testConfig() *Config {
	return &Config{
		Port:               ":4000",
		Environment:        "testing",
		Version:            "test",
		TrustedOrigins:     []string{"http://localhost:3000"},
		CacheTTL:           time.Minute,
		AggregationMode:    string(common.AggregationLenient),
		CommentFanoutLimit: 4,
	}
}

// newTestApplication wires every service against a fresh postgres container. Messages are
// recorded by a MockProducer instead of a broker.
func newTestApplication(t *testing.T) (*application, *common.MockProducer, *memoryStore) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mb := &common.MockProducer{}
	store := &memoryStore{}

	cfg := testConfig()
	cache := common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	mode := cfg.aggregationMode()

	app := &application{
		config:          cfg,
		logger:          logger,
		cache:           cache,
		userService:     userservice.NewUserService(db, mb, logger),
		postService:     postservice.NewPostService(db, cache, mb, logger, mode),
		commentService:  commentservice.NewCommentService(db, cache, mb, logger, mode, cfg.CommentFanoutLimit),
		taxonomyService: taxonomyservice.NewTaxonomyService(db, cache, mb, logger),
		mediaService:    mediaservice.NewMediaService(store, logger),
	}

	return app, mb, store
}

// registerAndLogin creates a user through the API and returns its bearer token.
func (ts *testServer) registerAndLogin(t *testing.T, username string) string {
	status, _, _ := ts.do(t, http.MethodPost, "/v1/users/register", nil, map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "Test_1234!",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _, body := ts.do(t, http.MethodPost, "/v1/users/login", nil, map[string]any{
		"username": username,
		"password": "Test_1234!",
	})
	require.Equal(t, http.StatusOK, status)

	token, ok := body["token"].(map[string]any)
	require.True(t, ok)

	return token["token"].(string)
}

func (ts *testServer) do(t *testing.T, method, path string, token *string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) post(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) put(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) patch(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPatch, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}
