//go:build integration

package e2e

// e2e_test.go
// End-to-end integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   T-E2E-1: Session lifecycle (login → open → opening balance → cash sale → entry → report → close)
//   T-E2E-2: Card sales never touch the drawer balance
//   T-E2E-3: Reduced tip demands a justification before the sale is accepted
//   T-E2E-4: Tip distribution persist idempotency + payout paid exactly once

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/conektaolatam-netizen/conektao-sub000/internal/config"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/infra"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/router"
	"github.com/conektaolatam-netizen/conektao-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
	engine *gin.Engine
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("conektao_test"),
		tcPostgres.WithUsername("conektao"),
		tcPostgres.WithPassword("conektao"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	// Build config
	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		DefaultTipPercent:  10,
		RequireTipReason:   true,
		TipDistributionOn:  true,
		WorkerPoolSize:     1,
		ReportStoragePath:  t.TempDir(),
	}

	// Connect DB — NewDatabase migrates the schema on the fresh container
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin user
	hash, err := bcrypt.GenerateFromPassword([]byte("conektao2026"), bcrypt.DefaultCost)
	require.NoError(t, err)
	err = db.Exec(`INSERT INTO users (id, username, name, email, password_hash, role, active, created_at, updated_at)
		VALUES (gen_random_uuid(), 'admin', 'Admin E2E', 'admin@e2e.test', ?, 'admin', true, NOW(), NOW())
		ON CONFLICT (username) DO NOTHING`, string(hash)).Error
	require.NoError(t, err)

	// Build router. Workers are not started: jobs queue up in Redis and the
	// HTTP surface under test never depends on their completion.
	dispatcher := worker.NewDispatcher(rdb)
	r := router.New(cfg, db, rdb, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	// Login as admin
	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "conektao2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{
		server: srv,
		token:  loginBody.AccessToken,
		engine: r,
	}
}

// openSession opens a till for today and sets its opening balance.
func openSession(t *testing.T, env *testEnv, till int, opening float64) string {
	t.Helper()
	openResp := do(t, env.server, "POST", "/v1/sessions/open",
		jsonBody(t, map[string]any{"till": till}), env.token)
	require.Equal(t, http.StatusOK, openResp.StatusCode)
	var session struct {
		ID string `json:"id"`
	}
	decodeJSON(t, openResp, &session)

	setResp := do(t, env.server, "PUT", "/v1/sessions/"+session.ID+"/opening-balance",
		jsonBody(t, map[string]any{"amount": opening}), env.token)
	require.Equal(t, http.StatusNoContent, setResp.StatusCode)
	_ = setResp.Body.Close()
	return session.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

// T-E2E-1: Session lifecycle
func TestE2E_SessionLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Open session for till 1
	openResp := do(t, env.server, "POST", "/v1/sessions/open",
		jsonBody(t, map[string]any{"till": 1}), env.token)
	require.Equal(t, http.StatusOK, openResp.StatusCode)
	var session struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		OpeningBalanceSet bool   `json:"opening_balance_set"`
	}
	decodeJSON(t, openResp, &session)
	assert.Equal(t, "open", session.Status)
	assert.False(t, session.OpeningBalanceSet)

	// Re-opening the same till on the same date returns the same session
	reopenResp := do(t, env.server, "POST", "/v1/sessions/open",
		jsonBody(t, map[string]any{"till": 1}), env.token)
	require.Equal(t, http.StatusOK, reopenResp.StatusCode)
	var reopened struct {
		ID string `json:"id"`
	}
	decodeJSON(t, reopenResp, &reopened)
	assert.Equal(t, session.ID, reopened.ID)

	// 2. Set opening balance — once
	setResp := do(t, env.server, "PUT", "/v1/sessions/"+session.ID+"/opening-balance",
		jsonBody(t, map[string]any{"amount": 100.0}), env.token)
	require.Equal(t, http.StatusNoContent, setResp.StatusCode)
	_ = setResp.Body.Close()

	againResp := do(t, env.server, "PUT", "/v1/sessions/"+session.ID+"/opening-balance",
		jsonBody(t, map[string]any{"amount": 200.0}), env.token)
	assert.Equal(t, http.StatusConflict, againResp.StatusCode)
	_ = againResp.Body.Close()

	// 3. Finalize a cash sale
	saleID := uuid.NewString()
	saleReq := map[string]any{
		"sale_id":        saleID,
		"session_id":     session.ID,
		"subtotal":       50.0,
		"tip_amount":     5.0,
		"payment_method": "efectivo",
	}
	saleResp := do(t, env.server, "POST", "/v1/sales/finalize", jsonBody(t, saleReq), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID        string  `json:"id"`
		EntryKind string  `json:"entry_kind"`
		Total     float64 `json:"total,string"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, saleID, sale.ID)
	assert.Equal(t, "cash_sale", sale.EntryKind)
	assert.InDelta(t, 55.0, sale.Total, 0.001)

	// Retrying the same event returns the original sale, no double count
	retryResp := do(t, env.server, "POST", "/v1/sales/finalize", jsonBody(t, saleReq), env.token)
	require.Equal(t, http.StatusCreated, retryResp.StatusCode)
	var retried struct {
		ID string `json:"id"`
	}
	decodeJSON(t, retryResp, &retried)
	assert.Equal(t, saleID, retried.ID)

	// 4. Manual withdrawal
	entryResp := do(t, env.server, "POST", "/v1/sessions/"+session.ID+"/entries",
		jsonBody(t, map[string]any{
			"kind":        "manual_withdrawal",
			"amount":      10.5,
			"description": "change run to the bank",
		}), env.token)
	require.Equal(t, http.StatusCreated, entryResp.StatusCode)
	var balance struct {
		CashBalance float64 `json:"cash_balance,string"`
	}
	decodeJSON(t, entryResp, &balance)
	assert.InDelta(t, 144.50, balance.CashBalance, 0.001) // 100 + 55 − 10.50

	// 5. Report reflects the fold
	reportResp := do(t, env.server, "GET", "/v1/sessions/"+session.ID+"/report", nil, env.token)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)
	var report struct {
		CashBalance float64           `json:"cash_balance,string"`
		SumsByKind  map[string]string `json:"sums_by_kind"`
	}
	decodeJSON(t, reportResp, &report)
	assert.InDelta(t, 144.50, report.CashBalance, 0.001)
	assert.Equal(t, "55", report.SumsByKind["cash_sale"])

	// 6. Close with a shortfall
	closeResp := do(t, env.server, "POST", "/v1/sessions/"+session.ID+"/close",
		jsonBody(t, map[string]any{"counted_cash": 140.0}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		ExpectedCash float64 `json:"expected_cash,string"`
		CountedCash  float64 `json:"counted_cash,string"`
		Variance     float64 `json:"variance,string"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.InDelta(t, 144.50, closed.ExpectedCash, 0.001)
	assert.InDelta(t, -4.50, closed.Variance, 0.001)

	// Close is exactly-once
	recloseResp := do(t, env.server, "POST", "/v1/sessions/"+session.ID+"/close",
		jsonBody(t, map[string]any{"counted_cash": 140.0}), env.token)
	assert.Equal(t, http.StatusConflict, recloseResp.StatusCode)
	_ = recloseResp.Body.Close()

	// Closed sessions accept no further movements
	lateEntryResp := do(t, env.server, "POST", "/v1/sessions/"+session.ID+"/entries",
		jsonBody(t, map[string]any{
			"kind":        "manual_deposit",
			"amount":      5.0,
			"description": "too late for this one",
		}), env.token)
	assert.Equal(t, http.StatusConflict, lateEntryResp.StatusCode)
	_ = lateEntryResp.Body.Close()
}

// T-E2E-2: Card sales never touch the drawer
func TestE2E_CardSaleStaysOutOfDrawer(t *testing.T) {
	env := setupTestEnv(t)
	sessionID := openSession(t, env, 2, 100.0)

	saleResp := do(t, env.server, "POST", "/v1/sales/finalize",
		jsonBody(t, map[string]any{
			"sale_id":        uuid.NewString(),
			"session_id":     sessionID,
			"subtotal":       80.0,
			"tip_amount":     8.0,
			"payment_method": "card",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		EntryKind string `json:"entry_kind"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "card_sale", sale.EntryKind)

	reportResp := do(t, env.server, "GET", "/v1/sessions/"+sessionID+"/report", nil, env.token)
	require.Equal(t, http.StatusOK, reportResp.StatusCode)
	var report struct {
		CashBalance float64 `json:"cash_balance,string"`
	}
	decodeJSON(t, reportResp, &report)
	assert.InDelta(t, 100.0, report.CashBalance, 0.001)
}

// T-E2E-3: Reduced tip demands a justification
func TestE2E_ReducedTipRequiresReason(t *testing.T) {
	env := setupTestEnv(t)
	sessionID := openSession(t, env, 3, 50.0)

	saleID := uuid.NewString()
	// Suggested tip for 100.00 at 10% is 10.00; 2.00 is a reduction.
	saleReq := map[string]any{
		"sale_id":        saleID,
		"session_id":     sessionID,
		"subtotal":       100.0,
		"tip_amount":     2.0,
		"payment_method": "efectivo",
	}
	rejResp := do(t, env.server, "POST", "/v1/sales/finalize", jsonBody(t, saleReq), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, rejResp.StatusCode)
	_ = rejResp.Body.Close()

	saleReq["reason_type"] = "service_issue"
	okResp := do(t, env.server, "POST", "/v1/sales/finalize", jsonBody(t, saleReq), env.token)
	require.Equal(t, http.StatusCreated, okResp.StatusCode)
	_ = okResp.Body.Close()

	adjResp := do(t, env.server, "GET", "/v1/tips/adjustments/"+saleID, nil, env.token)
	require.Equal(t, http.StatusOK, adjResp.StatusCode)
	var adj struct {
		SuggestedAmount float64 `json:"suggested_amount,string"`
		FinalAmount     float64 `json:"final_amount,string"`
		ReasonType      string  `json:"reason_type"`
	}
	decodeJSON(t, adjResp, &adj)
	assert.InDelta(t, 10.0, adj.SuggestedAmount, 0.001)
	assert.InDelta(t, 2.0, adj.FinalAmount, 0.001)
	assert.Equal(t, "service_issue", adj.ReasonType)
}

// T-E2E-4: Distribution persist idempotency + payout paid exactly once
func TestE2E_TipDistribution(t *testing.T) {
	env := setupTestEnv(t)
	sessionID := openSession(t, env, 4, 0.0)

	// Staff on shift today
	var employeeIDs []string
	for _, name := range []string{"Ana Díaz", "Ben Ortiz", "Carla Ruiz"} {
		resp := do(t, env.server, "POST", "/v1/employees",
			jsonBody(t, map[string]any{"name": name}), env.token)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var e struct {
			ID string `json:"id"`
		}
		decodeJSON(t, resp, &e)
		employeeIDs = append(employeeIDs, e.ID)

		inResp := do(t, env.server, "POST", "/v1/shifts/clock-in",
			jsonBody(t, map[string]any{"employee_id": e.ID}), env.token)
		require.Equal(t, http.StatusCreated, inResp.StatusCode)
		_ = inResp.Body.Close()
	}

	staffResp := do(t, env.server, "GET",
		"/v1/distributions/eligible-staff?date="+time.Now().Format("2006-01-02"), nil, env.token)
	require.Equal(t, http.StatusOK, staffResp.StatusCode)
	var staff []struct {
		EmployeeID string `json:"employee_id"`
		Name       string `json:"name"`
	}
	decodeJSON(t, staffResp, &staff)
	require.Len(t, staff, 3)
	assert.Equal(t, "Ana Díaz", staff[0].Name)

	// The sale the tip pool belongs to
	saleID := uuid.NewString()
	saleResp := do(t, env.server, "POST", "/v1/sales/finalize",
		jsonBody(t, map[string]any{
			"sale_id":        saleID,
			"session_id":     sessionID,
			"subtotal":       200.0,
			"tip_amount":     100.0,
			"payment_method": "efectivo",
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	_ = saleResp.Body.Close()

	// Preview: equal split leaves the indivisible centavo with the first share
	compResp := do(t, env.server, "POST", "/v1/distributions/compute",
		jsonBody(t, map[string]any{
			"total_tip": 100.0,
			"policy":    "equal",
			"participants": []map[string]any{
				{"employee_id": employeeIDs[0]},
				{"employee_id": employeeIDs[1]},
				{"employee_id": employeeIDs[2]},
			},
		}), env.token)
	require.Equal(t, http.StatusOK, compResp.StatusCode)
	var preview []struct {
		Amount float64 `json:"amount,string"`
	}
	decodeJSON(t, compResp, &preview)
	require.Len(t, preview, 3)
	assert.InDelta(t, 33.34, preview[0].Amount, 0.001)
	assert.InDelta(t, 33.33, preview[1].Amount, 0.001)
	assert.InDelta(t, 33.33, preview[2].Amount, 0.001)

	// Persist a manual split
	persistReq := map[string]any{
		"sale_id":   saleID,
		"total_tip": 100.0,
		"policy":    "manual",
		"participants": []map[string]any{
			{"employee_id": employeeIDs[0], "weight": 60},
			{"employee_id": employeeIDs[1], "weight": 30},
			{"employee_id": employeeIDs[2], "weight": 10},
		},
	}
	persistResp := do(t, env.server, "POST", "/v1/distributions", jsonBody(t, persistReq), env.token)
	require.Equal(t, http.StatusCreated, persistResp.StatusCode)
	var dist struct {
		ID      string `json:"id"`
		Payouts []struct {
			ID     string  `json:"id"`
			Amount float64 `json:"amount,string"`
			Status string  `json:"status"`
		} `json:"payouts"`
	}
	decodeJSON(t, persistResp, &dist)
	require.Len(t, dist.Payouts, 3)
	assert.InDelta(t, 60.0, dist.Payouts[0].Amount, 0.001)
	assert.InDelta(t, 30.0, dist.Payouts[1].Amount, 0.001)
	assert.InDelta(t, 10.0, dist.Payouts[2].Amount, 0.001)
	assert.Equal(t, "pending", dist.Payouts[0].Status)

	// Retrying the persist returns the existing distribution
	dupResp := do(t, env.server, "POST", "/v1/distributions", jsonBody(t, persistReq), env.token)
	require.Equal(t, http.StatusCreated, dupResp.StatusCode)
	var dup struct {
		ID string `json:"id"`
	}
	decodeJSON(t, dupResp, &dup)
	assert.Equal(t, dist.ID, dup.ID)

	// Pay the first share — exactly once
	payResp := do(t, env.server, "POST", "/v1/distributions/payouts/"+dist.Payouts[0].ID+"/pay", nil, env.token)
	assert.Equal(t, http.StatusNoContent, payResp.StatusCode)
	_ = payResp.Body.Close()

	repayResp := do(t, env.server, "POST", "/v1/distributions/payouts/"+dist.Payouts[0].ID+"/pay", nil, env.token)
	assert.Equal(t, http.StatusConflict, repayResp.StatusCode)
	_ = repayResp.Body.Close()

	// A correction is blocked once money went out
	correctResp := do(t, env.server, "POST", "/v1/distributions/correct", jsonBody(t, persistReq), env.token)
	assert.Equal(t, http.StatusConflict, correctResp.StatusCode)
	_ = correctResp.Body.Close()

	// The live distribution is still the original
	getResp := do(t, env.server, "GET", "/v1/distributions/"+saleID, nil, env.token)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var live struct {
		ID string `json:"id"`
	}
	decodeJSON(t, getResp, &live)
	assert.Equal(t, dist.ID, live.ID)
}
