package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finflow/internal/services"
	"finflow/internal/storage/memory"
)

var fixedNow = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)

const budgetTOML = `
cycle = "monthly"
start_date = "2025-01-01"
currency = "VND"
monthly_income = 10000000

[[wallet]]
name = "Needs"
share = 55
categories = ["Food", "Housing"]

[[wallet]]
name = "Wants"
share = 25
categories = ["Entertainment"]

[[wallet]]
name = "Savings"
share = 20
`

func newTestServer(t *testing.T, rpm int) *Server {
	t.Helper()
	store := memory.New()
	svc := services.NewTransactionService(services.Deps{Store: store})
	srv := NewServer(":0", svc, store, nil, Options{
		RequestsPerMinute: rpm,
		Clock:             func() time.Time { return fixedNow },
	})
	t.Cleanup(func() { srv.limiter.Stop() })
	return srv
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndHeaders(t *testing.T) {
	srv := newTestServer(t, 0)
	rr := do(t, srv, http.MethodGet, "/healthz", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing middleware headers: %v", rr.Header())
	}
	if rr := do(t, srv, http.MethodGet, "/api/parse", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /api/parse, got %d", rr.Code)
	}
}

func TestParseConfirmAndHistory(t *testing.T) {
	srv := newTestServer(t, 0)

	rr := do(t, srv, http.MethodPost, "/api/parse", `{"text":"Ăn sáng 20k, lương 15 triệu"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("parse status=%d body=%s", rr.Code, rr.Body)
	}
	parsed := decode[struct {
		Drafts []draftDTO `json:"drafts"`
	}](t, rr)
	if len(parsed.Drafts) != 2 || parsed.Drafts[0].Amount != 20000 || parsed.Drafts[1].Type != "income" {
		t.Fatalf("unexpected drafts %+v", parsed.Drafts)
	}

	body, _ := json.Marshal(confirmRequest{Drafts: parsed.Drafts})
	rr = do(t, srv, http.MethodPost, "/api/transactions", string(body))
	if rr.Code != http.StatusOK {
		t.Fatalf("confirm status=%d body=%s", rr.Code, rr.Body)
	}
	confirmed := decode[struct {
		Results []confirmResultDTO `json:"results"`
	}](t, rr)
	if len(confirmed.Results) != 2 || confirmed.Results[0].Duplicate || confirmed.Results[0].Transaction == nil {
		t.Fatalf("unexpected results %+v", confirmed.Results)
	}
	if confirmed.Results[0].Awarded != 10 || confirmed.Results[0].Streak != 1 {
		t.Fatalf("first confirmation of the day should award 10 coins: %+v", confirmed.Results[0])
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", string(body))
	again := decode[struct {
		Results []confirmResultDTO `json:"results"`
	}](t, rr)
	if len(again.Results) != 2 || !again.Results[0].Duplicate || !again.Results[1].Duplicate {
		t.Fatalf("resubmission should be suppressed: %+v", again.Results)
	}

	rr = do(t, srv, http.MethodGet, "/api/transactions?days=7", "")
	history := decode[struct {
		Transactions []transactionDTO `json:"transactions"`
	}](t, rr)
	if len(history.Transactions) != 2 {
		t.Fatalf("expected 2 stored transactions, got %+v", history.Transactions)
	}

	rr = do(t, srv, http.MethodGet, "/api/streak", "")
	st := decode[streakDTO](t, rr)
	if st.Current != 1 || st.Balance != 10 || !st.CompletedToday || len(st.Calendar) != 14 {
		t.Fatalf("unexpected streak %+v", st)
	}
}

func TestRequestValidation(t *testing.T) {
	srv := newTestServer(t, 0)
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"empty text", http.MethodPost, "/api/parse", `{"text":"  "}`, http.StatusUnprocessableEntity},
		{"unknown field", http.MethodPost, "/api/parse", `{"txt":"cafe 20k"}`, http.StatusBadRequest},
		{"empty body", http.MethodPost, "/api/parse", ``, http.StatusBadRequest},
		{"no drafts", http.MethodPost, "/api/transactions", `{"drafts":[]}`, http.StatusUnprocessableEntity},
		{"bad source", http.MethodPost, "/api/transactions", `{"source":"fax","drafts":[]}`, http.StatusUnprocessableEntity},
		{"invalid draft", http.MethodPost, "/api/transactions",
			`{"drafts":[{"amount":0,"currency":"VND","description":"x","category":"Food","date":"2025-01-15","type":"expense"}]}`,
			http.StatusUnprocessableEntity},
		{"bad days", http.MethodGet, "/api/transactions?days=0", ``, http.StatusBadRequest},
		{"no budget", http.MethodGet, "/api/budget", ``, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.method, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.want, rr.Body)
			}
			if e := decode[errorBody](t, rr); e.Error == "" || e.RequestID == "" {
				t.Fatalf("error body incomplete: %+v", e)
			}
		})
	}
}

func TestBudgetFlowRaisesApproachingEvent(t *testing.T) {
	srv := newTestServer(t, 0)

	bad := strings.Replace(budgetTOML, "share = 20", "share = 10", 1)
	if rr := do(t, srv, http.MethodPut, "/api/budget", bad); rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("allocation of 90%% should be rejected, got %d %s", rr.Code, rr.Body)
	}

	rr := do(t, srv, http.MethodPut, "/api/budget", budgetTOML)
	if rr.Code != http.StatusCreated {
		t.Fatalf("save budget status=%d body=%s", rr.Code, rr.Body)
	}
	report := decode[reportDTO](t, rr)
	if report.Income != 10000000 || len(report.Wallets) != 3 || report.Wallets[0].Limit != 5500000 {
		t.Fatalf("unexpected report %+v", report)
	}

	draft := `{"drafts":[{"amount":4500000,"currency":"VND","description":"đi chợ","category":"Food","date":"2025-01-15","type":"expense"}]}`
	rr = do(t, srv, http.MethodPost, "/api/transactions", draft)
	res := decode[struct {
		Results []confirmResultDTO `json:"results"`
	}](t, rr)
	if len(res.Results) != 1 || len(res.Results[0].Events) != 1 {
		t.Fatalf("expected one threshold event, got %+v", res.Results)
	}
	if ev := res.Results[0].Events[0]; ev.Kind != "approaching_limit" || ev.Wallet != "Needs" {
		t.Fatalf("unexpected event %+v", ev)
	}

	rr = do(t, srv, http.MethodGet, "/api/budget", "")
	report = decode[reportDTO](t, rr)
	if report.Wallets[0].Spend != 4500000 || len(report.Events) != 1 {
		t.Fatalf("unexpected progress %+v", report)
	}

	rr = do(t, srv, http.MethodGet, "/api/budget/suggestion", "")
	suggestion := decode[struct {
		Grade   string      `json:"grade"`
		Wallets []walletDTO `json:"wallets"`
	}](t, rr)
	if suggestion.Grade != "A" || len(suggestion.Wallets) != 3 {
		t.Fatalf("unexpected suggestion %+v", suggestion)
	}
}

func TestImportAndRedeem(t *testing.T) {
	srv := newTestServer(t, 0)

	rr := do(t, srv, http.MethodPost, "/api/import",
		`{"records":[{"amount":50000,"description":"cafe","type":"weird","confidence":0.4},{"amount":0,"description":"blur"}]}`)
	imported := decode[struct {
		Drafts  []draftDTO `json:"drafts"`
		Skipped int        `json:"skipped"`
	}](t, rr)
	if len(imported.Drafts) != 1 || imported.Skipped != 1 || imported.Drafts[0].Type != "expense" {
		t.Fatalf("unexpected import %+v", imported)
	}

	rr = do(t, srv, http.MethodPost, "/api/rewards/coffee/redeem", "")
	red := decode[redeemDTO](t, rr)
	if rr.Code != http.StatusOK || red.OK || red.Reason != "insufficient balance" {
		t.Fatalf("unexpected redemption %d %+v", rr.Code, red)
	}

	rr = do(t, srv, http.MethodPost, "/api/rewards/yacht/redeem", "")
	if red := decode[redeemDTO](t, rr); red.OK || !strings.Contains(red.Reason, "unknown reward") {
		t.Fatalf("unexpected redemption %+v", red)
	}

	rr = do(t, srv, http.MethodGet, "/api/rewards", "")
	rewards := decode[struct {
		Rewards []rewardDTO `json:"rewards"`
	}](t, rr)
	if len(rewards.Rewards) == 0 || rewards.Rewards[0].Cost > rewards.Rewards[len(rewards.Rewards)-1].Cost {
		t.Fatalf("rewards should be sorted by cost: %+v", rewards.Rewards)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, 2)
	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		if rr := do(t, srv, http.MethodGet, "/healthz", ""); rr.Code != want {
			t.Fatalf("request %d: status=%d want %d", i, rr.Code, want)
		}
	}
}
