package routes

import (
	"context"
	"encoding/json"
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

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/api/middleware"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/bets"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/draws"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/games"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/internal/ledger"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/auth"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/config"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/enums"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

// memoryCache is an in-process stand-in for the Redis client.
type memoryCache struct {
	mu       sync.Mutex
	data     map[string]string
	ttls     map[string]time.Duration
	counters map[string]int64
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ttls: map[string]time.Duration{}, counters: map[string]int64{}}
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func (m *memoryCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

// storedTTLs returns the expiry of every completed idempotency record.
func (m *memoryCache) storedTTLs() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, 0, len(m.ttls))
	for _, ttl := range m.ttls {
		out = append(out, ttl)
	}
	return out
}

func (m *memoryCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryCache) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryCache) IdempotencyKey(scope, id string) string {
	return "dp:idempotency:" + scope + ":" + id
}

func (m *memoryCache) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[scope]++
	count := m.counters[scope]
	return count <= limit, count, nil
}

type stubLedgerService struct {
	ledger.Service
}

func (stubLedgerService) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return 120, nil
}

func (stubLedgerService) AcceptDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{ID: entryID, Status: enums.LedgerEntryStatusAccepted}, nil
}

func (stubLedgerService) RejectDeposit(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{ID: entryID, Status: enums.LedgerEntryStatusRejected}, nil
}

func (stubLedgerService) CancelEntry(ctx context.Context, entryID uuid.UUID) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{ID: entryID, Status: enums.LedgerEntryStatusCancelled}, nil
}

type stubGameService struct {
	games.Service
}

type stubDrawService struct {
	draws.Service
}

func (stubDrawService) DrawWinningNumbers(ctx context.Context, gameID uuid.UUID, winningNumbers string, adminID uuid.UUID) (*games.GameView, error) {
	return &games.GameView{ID: gameID, WinningNumbers: &winningNumbers, IsDrawn: true}, nil
}

type countingBetService struct {
	bets.Service
	mu    sync.Mutex
	calls int
}

func (s *countingBetService) PlaceBet(ctx context.Context, accountID uuid.UUID, numbers []int, price int) (*bets.PlacedBet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &bets.PlacedBet{
		WagerID:          uuid.New(),
		CanonicalNumbers: "1,2,3,4,5",
		Count:            len(numbers),
		Price:            price,
		CreatedAt:        time.Now(),
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret: "secret",
			Issuer: "dead-pigeons",
		},
		BetRateLimit: config.BetRateLimitConfig{
			Window: time.Minute,
			Limit:  2,
		},
	}
}

func newTestRouter(cfg *config.Config, cache *memoryCache, betService bets.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		cache,
		stubLedgerService{},
		stubGameService{},
		betService,
		stubDrawService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, accountID uuid.UUID, role enums.AccountRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, auth.AccessTokenPayload{
		AccountID: accountID,
		Role:      role,
	})
	require.NoError(t, err)
	return token
}

func placeBetRequest(t *testing.T, token, key string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bets", strings.NewReader(`{"numbers":[1,2,3,4,5],"count":5,"price":20}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), newMemoryCache(), &countingBetService{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "test", resp.Header().Get("X-DeadPigeons-Env"))
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(testConfig(), newMemoryCache(), &countingBetService{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestPlayerRoutesRequireToken(t *testing.T) {
	router := newTestRouter(testConfig(), newMemoryCache(), &countingBetService{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil))

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestBalanceForAuthenticatedPlayer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, newMemoryCache(), &countingBetService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data struct {
			Balance int `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, 120, envelope.Data.Balance)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, newMemoryCache(), &countingBetService{})
	entryID := uuid.New()

	player := httptest.NewRequest(http.MethodPost, "/api/admin/v1/ledger/"+entryID.String()+"/accept", nil)
	player.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer))
	player.Header.Set("Idempotency-Key", "accept-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, player)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	admin := httptest.NewRequest(http.MethodPost, "/api/admin/v1/ledger/"+entryID.String()+"/accept", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.AccountRoleAdmin))
	admin.Header.Set("Idempotency-Key", "accept-1")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestPlaceBetRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	betService := &countingBetService{}
	router := newTestRouter(cfg, newMemoryCache(), betService)
	token := buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, placeBetRequest(t, token, ""))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Zero(t, betService.calls)
}

func TestPlaceBetReplaysRetries(t *testing.T) {
	cfg := testConfig()
	betService := &countingBetService{}
	router := newTestRouter(cfg, newMemoryCache(), betService)
	token := buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, placeBetRequest(t, token, "bet-1"))
	require.Equal(t, http.StatusCreated, first.Code)

	retry := httptest.NewRecorder()
	router.ServeHTTP(retry, placeBetRequest(t, token, "bet-1"))
	require.Equal(t, http.StatusCreated, retry.Code)

	assert.Equal(t, "true", retry.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), retry.Body.String())
	assert.Equal(t, 1, betService.calls)
}

func TestPlaceBetRateLimited(t *testing.T) {
	cfg := testConfig()
	betService := &countingBetService{}
	router := newTestRouter(cfg, newMemoryCache(), betService)
	token := buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer)

	for i, key := range []string{"a", "b"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, placeBetRequest(t, token, key))
		require.Equal(t, http.StatusCreated, resp.Code, "attempt %d", i)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, placeBetRequest(t, token, "c"))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, 2, betService.calls)
}

func TestPlaceBetKeepsRecordForDefaultTTL(t *testing.T) {
	cfg := testConfig()
	cache := newMemoryCache()
	router := newTestRouter(cfg, cache, &countingBetService{})
	token := buildToken(t, cfg, uuid.New(), enums.AccountRolePlayer)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, placeBetRequest(t, token, "bet-ttl"))
	require.Equal(t, http.StatusCreated, resp.Code)

	assert.Equal(t, []time.Duration{middleware.DefaultIdempotencyTTL}, cache.storedTTLs())
}

func TestAdminDrawKeepsRecordForCriticalTTL(t *testing.T) {
	cfg := testConfig()
	cache := newMemoryCache()
	router := newTestRouter(cfg, cache, &countingBetService{})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/games/"+uuid.NewString()+"/draw", strings.NewReader(`{"winningNumbers":"3,9,14"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, uuid.New(), enums.AccountRoleAdmin))
	req.Header.Set("Idempotency-Key", "draw-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, []time.Duration{middleware.CriticalIdempotencyTTL}, cache.storedTTLs())
}
