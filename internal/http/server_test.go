package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"finapp/internal/ledger"
	applog "finapp/internal/log"
	"finapp/internal/memory"
)

func newTestServer(t *testing.T, exclusions ...string) *httptest.Server {
	t.Helper()
	led, err := ledger.Open(context.Background(), memory.New())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	srv := NewServer(":0", led, exclusions, applog.New("test", slog.LevelError))
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAccountLifecycle(t *testing.T) {
	ts := newTestServer(t)

	var created accountResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/api/accounts",
		accountRequest{Name: "Checking", InitialBalance: "1.000,00"}, &created)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.InitialBalanceCents != 100000 || created.Balance != "1.000,00" {
		t.Fatalf("created = %+v", created)
	}

	var txResp transactionResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "2025-01-10", Kind: "expense", Amount: "150,00", AccountID: created.ID,
	}, &txResp)
	if status != http.StatusCreated {
		t.Fatalf("create transaction status = %d", status)
	}

	var list []accountResponse
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/accounts", nil, &list); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(list) != 1 || list[0].BalanceCents != 85000 {
		t.Fatalf("list = %+v", list)
	}

	var updated accountResponse
	status = doJSON(t, http.MethodPut, ts.URL+"/api/accounts/"+created.ID,
		accountRequest{Name: "Main", InitialBalance: "1.000,00"}, &updated)
	if status != http.StatusOK || updated.Name != "Main" {
		t.Fatalf("update: status = %d, %+v", status, updated)
	}

	status = doJSON(t, http.MethodDelete, ts.URL+"/api/accounts/"+created.ID, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete status = %d", status)
	}

	// The transaction survives with its account reference cleared.
	var txs []transactionResponse
	doJSON(t, http.MethodGet, ts.URL+"/api/transactions", nil, &txs)
	if len(txs) != 1 || txs[0].AccountID != "" {
		t.Fatalf("transactions after delete = %+v", txs)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)

	// Validation failure.
	status := doJSON(t, http.MethodPost, ts.URL+"/api/accounts", accountRequest{Name: " "}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status = %d", status)
	}

	// Dangling reference.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "2025-01-10", Kind: "expense", Amount: "10,00", AccountID: "ghost",
	}, nil)
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("bad reference status = %d", status)
	}

	// Missing id.
	status = doJSON(t, http.MethodDelete, ts.URL+"/api/accounts/ghost", nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("missing id status = %d", status)
	}

	// Malformed body.
	resp, err := http.Post(ts.URL+"/api/accounts", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", resp.StatusCode)
	}

	// Bad date layout.
	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "10/01/2025", Kind: "expense", Amount: "10,00",
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad date status = %d", status)
	}
}

func TestCardLimitConflict(t *testing.T) {
	ts := newTestServer(t)

	var card cardResponse
	doJSON(t, http.MethodPost, ts.URL+"/api/cards",
		cardRequest{Name: "Visa", CreditLimit: "500,00", DueDay: 10}, &card)

	status := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "2025-01-10", Kind: "expense", Amount: "400,00", CardID: card.ID,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("first expense status = %d", status)
	}

	status = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "2025-01-11", Kind: "expense", Amount: "200,00", CardID: card.ID,
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("over-limit status = %d", status)
	}

	var cards []cardResponse
	doJSON(t, http.MethodGet, ts.URL+"/api/cards", nil, &cards)
	if len(cards) != 1 || cards[0].UsedCents != 40000 || cards[0].RemainingCents != 10000 {
		t.Fatalf("cards = %+v", cards)
	}
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t, "Transferência")

	var cat categoryResponse
	doJSON(t, http.MethodPost, ts.URL+"/api/categories",
		categoryRequest{Name: "Transferência", Kind: "both"}, &cat)

	for _, tx := range []transactionRequest{
		{Date: "2025-01-05", Kind: "income", Amount: "5.000,00"},
		{Date: "2025-01-10", Kind: "expense", Amount: "1.200,00"},
		{Date: "2025-02-01", Kind: "expense", Amount: "9.999,00", CategoryID: cat.ID},
	} {
		if status := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", tx, nil); status != http.StatusCreated {
			t.Fatalf("seed %+v: status = %d", tx, status)
		}
	}

	var dash dashboardResponse
	if status := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard", nil, &dash); status != http.StatusOK {
		t.Fatalf("dashboard status = %d", status)
	}
	// The transfer is excluded from totals by default.
	if dash.Income.Cents != 500000 || dash.Expense.Cents != 120000 {
		t.Fatalf("totals = %+v", dash)
	}
	if dash.Net.Formatted != "3.800,00" {
		t.Fatalf("net = %+v", dash.Net)
	}

	// An explicit empty exclude disables the configured exclusions.
	doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?exclude=", nil, &dash)
	if dash.Expense.Cents != 1119900 {
		t.Fatalf("unexcluded expense = %d", dash.Expense.Cents)
	}

	// Month filter.
	doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?year=2025&month=1", nil, &dash)
	if dash.Income.Cents != 500000 || dash.Expense.Cents != 120000 {
		t.Fatalf("january totals = %+v", dash)
	}

	status := doJSON(t, http.MethodGet, ts.URL+"/api/dashboard?month=13", nil, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("bad month status = %d", status)
	}
}

func TestDashboardCacheInvalidation(t *testing.T) {
	ts := newTestServer(t)

	var dash dashboardResponse
	doJSON(t, http.MethodGet, ts.URL+"/api/dashboard", nil, &dash)
	if dash.Income.Cents != 0 {
		t.Fatalf("initial income = %d", dash.Income.Cents)
	}

	status := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", transactionRequest{
		Date: "2025-01-05", Kind: "income", Amount: "100,00",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}

	// The mutation purged the cached zero summary.
	doJSON(t, http.MethodGet, ts.URL+"/api/dashboard", nil, &dash)
	if dash.Income.Cents != 10000 {
		t.Fatalf("income after mutation = %d", dash.Income.Cents)
	}
}

func TestMethodRouting(t *testing.T) {
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/accounts", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
