package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starpool/starpool-backend/internal/auth"
	"github.com/starpool/starpool-backend/internal/config"
	"github.com/starpool/starpool-backend/internal/repository/memory"
	"github.com/starpool/starpool-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := config.Config{
		Env:               "test",
		JWTSecret:         "access-secret",
		JWTRefreshSecret:  "refresh-secret",
		JWTIssuer:         "starpool-backend",
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
	}
	repos := memory.NewRepositories()
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.JWTIssuer, 15*time.Minute, time.Hour)

	srv := httptest.NewServer(NewRouter(RouterDeps{
		Cfg:        cfg,
		TM:         tm,
		PoolSvc:    services.NewPoolService(repos.Pools, repos.Contributions, repos.PoolEvents),
		ContribSvc: services.NewContributionService(repos.Pools, repos.PoolEvents),
		BalanceSvc: services.NewBalanceService(repos.Profiles, repos.Transactions, repos.Contributions),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func login(t *testing.T, base string) string {
	t.Helper()
	status, body := doJSON(t, http.MethodPost, base+"/api/v1/auth/login", "",
		map[string]string{"username": "admin", "password": "s3cret"})
	require.Equal(t, http.StatusOK, status, string(body))
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(body, &tok))
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

type poolBody struct {
	PoolID               string  `json:"pool_id"`
	Status               string  `json:"status"`
	CurrentAmount        int64   `json:"current_amount"`
	CurrentPricePerUser  int64   `json:"current_price_per_user"`
	ContributorsCount    int     `json:"contributors_count"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type contributionBody struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AmountCharged int64  `json:"amount_charged"`
	NextPrice     int64  `json:"next_price"`
	PoolCompleted bool   `json:"pool_completed"`
	Error         string `json:"error"`
}

func TestPoolLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv.URL)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", token, map[string]any{
		"creator_name":     "Luna",
		"content_title":    "Acoustic set",
		"content_type":     "music",
		"total_cost":       100,
		"max_contributors": 4,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var pool poolBody
	require.NoError(t, json.Unmarshal(body, &pool))
	require.NotEmpty(t, pool.PoolID)
	assert.Equal(t, "active", pool.Status)
	assert.Equal(t, int64(25), pool.CurrentPricePerUser) // even split until someone pays
	assert.Zero(t, pool.CompletionPercentage)

	t.Run("listed publicly", func(t *testing.T) {
		status, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/pools", "", nil)
		require.Equal(t, http.StatusOK, status)
		var list []poolBody
		require.NoError(t, json.Unmarshal(body, &list))
		require.Len(t, list, 1)
		assert.Equal(t, pool.PoolID, list[0].PoolID)
	})

	contribute := func(userID, ref string) (int, contributionBody) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools/"+pool.PoolID+"/contributions", "",
			map[string]string{"user_id": userID, "payment_reference": ref})
		var out contributionBody
		require.NoError(t, json.Unmarshal(body, &out))
		return status, out
	}

	status, first := contribute("alice", "PAY-1")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, first.Success)
	assert.Equal(t, int64(50), first.AmountCharged)
	assert.False(t, first.PoolCompleted)

	t.Run("duplicate contributor", func(t *testing.T) {
		status, out := contribute("alice", "PAY-2")
		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, out.Success)
		assert.Equal(t, "already_contributed", out.Error)
	})

	status, second := contribute("bob", "PAY-3")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, second.Success)
	assert.Equal(t, int64(50), second.AmountCharged)
	assert.True(t, second.PoolCompleted)

	t.Run("pool reports completed", func(t *testing.T) {
		status, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/pools/"+pool.PoolID, "", nil)
		require.Equal(t, http.StatusOK, status)
		var got poolBody
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "completed", got.Status)
		assert.Equal(t, int64(100), got.CurrentAmount)
		assert.Equal(t, float64(100), got.CompletionPercentage)
	})

	t.Run("contribution after completion", func(t *testing.T) {
		status, out := contribute("carol", "")
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "invalid_state", out.Error)
	})

	t.Run("contributors and events", func(t *testing.T) {
		status, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/pools/"+pool.PoolID+"/contributors", "", nil)
		require.Equal(t, http.StatusOK, status)
		var contribs []map[string]any
		require.NoError(t, json.Unmarshal(body, &contribs))
		assert.Len(t, contribs, 2)

		status, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/pools/"+pool.PoolID+"/events", token, nil)
		require.Equal(t, http.StatusOK, status)
		var events []struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.Unmarshal(body, &events))
		require.Len(t, events, 2)
		assert.Equal(t, "created", events[0].Action)
		assert.Equal(t, "completed", events[1].Action)
	})

	t.Run("unknown pool", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools/POOL-NOPE/contributions", "",
			map[string]string{"user_id": "alice"})
		assert.Equal(t, http.StatusNotFound, status)
		var out contributionBody
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "not_found", out.Error)
	})
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	createBody := map[string]any{"creator_name": "Luna", "content_title": "Set", "total_cost": 100}

	status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", "", createBody)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", "garbage", createBody)
	assert.Equal(t, http.StatusUnauthorized, status)

	t.Run("bad credentials", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
			map[string]string{"username": "admin", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
			map[string]string{"username": "root", "password": "s3cret"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", "",
			map[string]string{"username": "admin", "password": "s3cret"})
		require.Equal(t, http.StatusOK, status)
		var tok struct {
			RefreshToken string `json:"refresh_token"`
		}
		require.NoError(t, json.Unmarshal(body, &tok))

		status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", tok.RefreshToken, createBody)
		assert.Equal(t, http.StatusUnauthorized, status)

		// but it does mint a fresh pair
		status, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/refresh", "",
			map[string]string{"refresh_token": tok.RefreshToken})
		require.Equal(t, http.StatusOK, status)
		var fresh struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.Unmarshal(body, &fresh))

		status, _ = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", fresh.AccessToken, createBody)
		assert.Equal(t, http.StatusCreated, status)
	})
}

func TestBalanceEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv.URL)

	type profileBody struct {
		UserID     string `json:"user_id"`
		Balance    int64  `json:"balance"`
		TotalSpent int64  `json:"total_spent"`
	}

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/balances/add", token,
		map[string]any{"user_id": "alice", "amount": 100})
	require.Equal(t, http.StatusOK, status, string(body))
	var prof profileBody
	require.NoError(t, json.Unmarshal(body, &prof))
	assert.Equal(t, int64(100), prof.Balance)

	t.Run("deduct beyond balance", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/balances/deduct", token,
			map[string]any{"user_id": "alice", "amount": 150})
		assert.Equal(t, http.StatusPaymentRequired, status)
		var e struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, "insufficient_balance", e.Code)
	})

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/balances/deduct", token,
		map[string]any{"user_id": "alice", "amount": 40, "description": "merch order"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &prof))
	assert.Equal(t, int64(60), prof.Balance)
	assert.Equal(t, int64(40), prof.TotalSpent)

	t.Run("profile and ledger are public", func(t *testing.T) {
		status, body := doJSON(t, http.MethodGet, srv.URL+"/api/v1/profiles/alice", "", nil)
		require.Equal(t, http.StatusOK, status)
		var got profileBody
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, int64(60), got.Balance)

		status, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/profiles/alice/transactions", "", nil)
		require.Equal(t, http.StatusOK, status)
		var txns []struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(body, &txns))
		require.Len(t, txns, 2)
		assert.Equal(t, "balance_deduction", txns[0].Type)
	})

	t.Run("validation errors", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/balances/add", token,
			map[string]any{"user_id": "alice", "amount": 0})
		assert.Equal(t, http.StatusBadRequest, status)
		var e struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, "validation_error", e.Code)
	})

	t.Run("mutations are admin-only", func(t *testing.T) {
		status, _ := doJSON(t, http.MethodPost, srv.URL+"/api/v1/balances/add", "",
			map[string]any{"user_id": "alice", "amount": 10})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestCancelAndCleanupOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv.URL)

	status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools", token, map[string]any{
		"creator_name":  "Luna",
		"content_title": "Acoustic set",
		"total_cost":    100,
	})
	require.Equal(t, http.StatusCreated, status)
	var pool poolBody
	require.NoError(t, json.Unmarshal(body, &pool))

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools/"+pool.PoolID+"/contributions", "",
		map[string]string{"user_id": "alice", "payment_reference": "PAY-1"})
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools/"+pool.PoolID+"/cancel", token,
		map[string]string{"reason": "weather"})
	require.Equal(t, http.StatusOK, status)
	var cancelled struct {
		Success  bool `json:"success"`
		Refunded int  `json:"refunded"`
	}
	require.NoError(t, json.Unmarshal(body, &cancelled))
	assert.True(t, cancelled.Success)
	assert.Equal(t, 1, cancelled.Refunded)

	status, body = doJSON(t, http.MethodGet, srv.URL+"/api/v1/profiles/alice/transactions", "", nil)
	require.Equal(t, http.StatusOK, status)
	var txns []struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(body, &txns))
	require.Len(t, txns, 2)
	assert.Equal(t, "refund", txns[0].Type)
	assert.Contains(t, txns[0].Description, "weather")

	t.Run("cleanup with nothing expired", func(t *testing.T) {
		status, body := doJSON(t, http.MethodPost, srv.URL+"/api/v1/pools/cleanup", token, nil)
		require.Equal(t, http.StatusOK, status)
		var out struct {
			Cleaned int `json:"cleaned"`
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Zero(t, out.Cleaned)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))

	status, _ = doJSON(t, http.MethodGet, srv.URL+"/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
}
