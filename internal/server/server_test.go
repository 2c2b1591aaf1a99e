package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
	"github.com/snappy-gold/appraisal-api/internal/lead"
	"github.com/snappy-gold/appraisal-api/internal/model"
	"github.com/snappy-gold/appraisal-api/internal/pricing"
	"github.com/snappy-gold/appraisal-api/internal/store"
)

// --- test doubles ---

type stubRunner struct {
	mu   sync.Mutex
	reqs []appraise.Request
	a    *model.Appraisal
	err  error
}

func (r *stubRunner) Run(_ context.Context, req appraise.Request) (*model.Appraisal, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	cp := *r.a
	return &cp, nil
}

type fakeStore struct {
	mu     sync.Mutex
	quotes []model.Quote
	leads  []model.Lead
}

func (s *fakeStore) CreateQuote(_ context.Context, a model.Appraisal) (*model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := model.Quote{ID: "q-1", Appraisal: a, CreatedAt: time.Now()}
	s.quotes = append(s.quotes, q)
	return &q, nil
}

func (s *fakeStore) RecentQuotes(_ context.Context, limit int) ([]model.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > 0 && limit < len(s.quotes) {
		return s.quotes[:limit], nil
	}
	return s.quotes, nil
}

func (s *fakeStore) CreateLead(_ context.Context, p model.LeadPayload) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := model.Lead{ID: "l-1", Payload: p, CreatedAt: time.Now()}
	s.leads = append(s.leads, l)
	return &l, nil
}

func (s *fakeStore) ListLeads(_ context.Context, _ store.LeadFilter) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leads, nil
}

func (s *fakeStore) Migrate(_ context.Context) error { return nil }
func (s *fakeStore) Close() error                    { return nil }

type captureSink struct {
	mu    sync.Mutex
	leads []model.Lead
}

func (c *captureSink) Name() string { return "capture" }

func (c *captureSink) Deliver(_ context.Context, l model.Lead) error {
	c.mu.Lock()
	c.leads = append(c.leads, l)
	c.mu.Unlock()
	return nil
}

type staticSource struct{}

func (staticSource) Fetch(_ context.Context) (float64, float64, error) {
	return 5000, 90, nil
}

func stubAppraisal() *model.Appraisal {
	return &model.Appraisal{
		ItemType:   model.ItemNecklace,
		Title:      "14K Gold Rope Chain",
		Confidence: model.ConfidenceMedium,
		Details:    []model.Detail{{Label: "Material", Value: "14K Yellow Gold"}},
		OfferLow:   3280,
		OfferHigh:  4687,
	}
}

type testEnv struct {
	srv    *Server
	router http.Handler
	runner *stubRunner
	store  *fakeStore
	sink   *captureSink
	relay  *lead.Relay
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	runner := &stubRunner{a: stubAppraisal()}
	st := &fakeStore{}
	sink := &captureSink{}
	relay := lead.NewRelay([]lead.Sink{sink})
	spots := pricing.NewCache(staticSource{})

	srv := New(runner, spots, st, relay, opts)
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:    srv,
		router: srv.Router(),
		runner: runner,
		store:  st,
		sink:   sink,
		relay:  relay,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

const testDataURL = "data:image/jpeg;base64,aGVsbG8="

// --- tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestSpotPrices(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodGet, "/api/spot-prices", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Date    string             `json:"date"`
		Gold    float64            `json:"gold"`
		Silver  float64            `json:"silver"`
		PerGram map[string]float64 `json:"per_gram"`
	}](t, rec)

	assert.Equal(t, 5000.0, body.Gold)
	assert.Equal(t, 90.0, body.Silver)
	assert.InDelta(t, 93.73, body.PerGram["gold_14k"], 0.001)
	assert.InDelta(t, 2.68, body.PerGram["sterling_silver"], 0.001)
}

func TestAnalyze_Success(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{
		"images": []string{testDataURL},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[analyzeResponse](t, rec)
	assert.NotEmpty(t, body.SessionID)
	require.NotNil(t, body.Appraisal)
	assert.Equal(t, "14K Gold Rope Chain", body.Appraisal.Title)

	// The recognized appraisal lands in the quotes feed.
	assert.Len(t, env.store.quotes, 1)

	// The runner saw the decoded image, not the data-URL wrapper.
	require.Len(t, env.runner.reqs, 1)
	require.Len(t, env.runner.reqs[0].Images, 1)
	assert.Equal(t, "image/jpeg", env.runner.reqs[0].Images[0].MediaType)
	assert.Equal(t, "aGVsbG8=", env.runner.reqs[0].Images[0].Data)
}

func TestAnalyze_BadRequests(t *testing.T) {
	env := newTestEnv(t, Options{MaxImagesPerReq: 2})

	tests := []struct {
		name string
		body any
	}{
		{"no images", map[string]any{"images": []string{}}},
		{"not a data URL", map[string]any{"images": []string{"https://example.com/a.jpg"}}},
		{"missing base64 marker", map[string]any{"images": []string{"data:image/jpeg;hello"}}},
		{"too many images", map[string]any{"images": []string{testDataURL, testDataURL, testDataURL}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyze_RateLimited(t *testing.T) {
	env := newTestEnv(t, Options{AnalyzesPerDay: 2})

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAnalyze_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.runner.err = &appraise.Error{Reason: appraise.ReasonUpstream}

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream_error", decode[map[string]string](t, rec)["reason"])
	assert.Empty(t, env.store.quotes)
}

func TestReestimate_Flow(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := decode[analyzeResponse](t, rec).SessionID

	rec = env.do(t, http.MethodPost, "/api/reestimate", map[string]any{
		"session_id": sessionID,
		"fields":     map[string]string{"Material": "18K Gold"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The correction reached the model as serialized authoritative text.
	env.runner.mu.Lock()
	defer env.runner.mu.Unlock()
	require.Len(t, env.runner.reqs, 2)
	assert.Contains(t, env.runner.reqs[1].Corrections, "Material: 18K Gold")
}

func TestReestimate_UnknownSession(t *testing.T) {
	env := newTestEnv(t, Options{})
	rec := env.do(t, http.MethodPost, "/api/reestimate", map[string]any{
		"session_id": "nope",
		"fields":     map[string]string{"Material": "18K Gold"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReestimate_NoEffectiveCorrections(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := decode[analyzeResponse](t, rec).SessionID

	// Re-entering the original value is a no-op, so there is nothing to run.
	rec = env.do(t, http.MethodPost, "/api/reestimate", map[string]any{
		"session_id": sessionID,
		"fields":     map[string]string{"Material": "14K Yellow Gold"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitLead(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	require.Equal(t, http.StatusOK, rec.Code)
	sessionID := decode[analyzeResponse](t, rec).SessionID

	rec = env.do(t, http.MethodPost, "/api/submit-lead", map[string]any{
		"session_id": sessionID,
		"firstName":  "Ada",
		"lastName":   "Lovelace",
		"email":      "ada@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])

	// Persisted locally with the session's item snapshot attached.
	require.Len(t, env.store.leads, 1)
	saved := env.store.leads[0].Payload
	assert.Equal(t, "ada@example.com", saved.Email)
	assert.Equal(t, "14K Gold Rope Chain", saved.Item)
	assert.Equal(t, "$3,280 – $4,687", saved.OfferRange)

	// Relayed to the sink in the background.
	env.relay.Drain()
	env.sink.mu.Lock()
	defer env.sink.mu.Unlock()
	require.Len(t, env.sink.leads, 1)
}

func TestSubmitLead_WithoutSession(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodPost, "/api/submit-lead", map[string]any{
		"firstName": "Ada",
		"email":     "ada@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, env.store.leads, 1)
	assert.Empty(t, env.store.leads[0].Payload.Item)
}

func TestRecentQuotes(t *testing.T) {
	env := newTestEnv(t, Options{})

	rec := env.do(t, http.MethodGet, "/api/recent-quotes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Quotes []model.Quote `json:"quotes"`
	}](t, rec)
	assert.Empty(t, body.Quotes)

	env.do(t, http.MethodPost, "/api/analyze", map[string]any{"images": []string{testDataURL}})
	rec = env.do(t, http.MethodGet, "/api/recent-quotes", nil)
	body = decode[struct {
		Quotes []model.Quote `json:"quotes"`
	}](t, rec)
	require.Len(t, body.Quotes, 1)
	assert.Equal(t, "14K Gold Rope Chain", body.Quotes[0].Appraisal.Title)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, Options{AllowedOrigins: []string{"https://snappygold.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://snappygold.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://snappygold.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
