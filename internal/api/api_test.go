package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"smart_wallet/internal/account"
	"smart_wallet/internal/advice"
	"smart_wallet/internal/catalog"
	"smart_wallet/internal/domain"
	"smart_wallet/internal/events"
	"smart_wallet/internal/ledger"
	"smart_wallet/internal/session"
	"smart_wallet/internal/store/memory"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const secret = "0123456789abcdef0123456789abcdef"

type fakeAdvisor struct {
	mu       sync.Mutex
	summary  string
	messages []string
}

func (f *fakeAdvisor) Advise(_ context.Context, summary string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = summary
	return "Spend less on food."
}

func (f *fakeAdvisor) Chat(_ context.Context, summary, message string, history []advice.Message) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = summary
	f.messages = append(f.messages, message)
	return "You are doing fine."
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	t       *testing.T
	router  *gin.Engine
	store   *memory.Store
	hub     *events.Hub
	redis   *miniredis.Miniredis
	advisor *fakeAdvisor
	clock   *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	st := memory.New()
	hub := events.NewHub()
	clk := &clock{now: time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)}
	accounts := account.NewService(st, hub, account.Credentials{Username: "admin", Password: "admin123"})
	accounts.HashCost = bcrypt.MinCost
	adv := &fakeAdvisor{}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Store:    st,
		Accounts: accounts,
		Ledger:   ledger.NewService(st, hub),
		Catalog:  catalog.NewService(st, hub),
		Sessions: session.NewManager(session.NewMemoryStore(clk.Now), 30*time.Minute, secret),
		Events:   hub,
		Advisor:  adv,
		Redis:    rdb,
		CacheTTL: time.Minute,
		Now:      clk.Now,
	})
	return &harness{t: t, router: r, store: st, hub: hub, redis: mr, advisor: adv, clock: clk}
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func (h *harness) register(username string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/register", "", gin.H{"username": username, "fullName": "User " + username, "password": "secret1"})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return h.login(username, "secret1")
}

func (h *harness) login(username, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/login", "", gin.H{"username": username, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[AuthResponse](h.t, w)
	require.NotEmpty(h.t, resp.Token)
	return resp.Token
}

func (h *harness) createWallet(token, name string, balance int64) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/wallets", token, gin.H{"name": name, "type": "Cash", "balance": balance})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		ID string `json:"id"`
	}](h.t, w).ID
}

type txResponse struct {
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
	Wallet *struct {
		Balance int64 `json:"balance"`
	} `json:"wallet"`
}

func (h *harness) addTx(token, walletID, category, typ string, amount int64, date, note string) txResponse {
	h.t.Helper()
	w := h.do(http.MethodPost, "/transactions", token, gin.H{
		"walletId": walletID, "categoryId": category, "type": typ, "amount": amount, "date": date, "note": note,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[txResponse](h.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")

	w := h.do(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"joni"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = h.do(http.MethodPost, "/auth/register", "", gin.H{"username": "JONI", "fullName": "Again", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = h.do(http.MethodPost, "/auth/register", "", gin.H{"username": "ab", "fullName": "Short", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(http.MethodPost, "/auth/login", "", gin.H{"username": "joni", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/profile", token, nil).Code)
}

func TestSessionExpiresAfterInactivity(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")

	h.clock.Advance(25 * time.Minute)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/wallets", token, nil).Code)
	h.clock.Advance(25 * time.Minute)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/wallets", token, nil).Code)

	h.clock.Advance(31 * time.Minute)
	w := h.do(http.MethodGet, "/wallets", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBalanceScenarioOverHTTP(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)

	expense := h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-05", "lunch")
	require.NotNil(t, expense.Wallet)
	assert.Equal(t, int64(80000), expense.Wallet.Balance)

	income := h.addTx(token, walletID, "cat-6", "Income", 5000, "2024-01-20", "bonus")
	assert.Equal(t, int64(85000), income.Wallet.Balance)

	w := h.do(http.MethodDelete, "/transactions/"+expense.Transaction.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(105000), decode[txResponse](t, w).Wallet.Balance)

	w = h.do(http.MethodDelete, "/transactions/"+expense.Transaction.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTransactionValidation(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100)
	h.do(http.MethodGet, "/categories", token, nil)

	cases := map[string]gin.H{
		"zero amount":    {"walletId": walletID, "categoryId": "cat-1", "type": "Expense", "amount": 0, "date": "2024-01-05"},
		"missing wallet": {"categoryId": "cat-1", "type": "Expense", "amount": 5, "date": "2024-01-05"},
		"unknown wallet": {"walletId": "nope", "categoryId": "cat-1", "type": "Expense", "amount": 5, "date": "2024-01-05"},
		"bad type":       {"walletId": walletID, "categoryId": "cat-1", "type": "Transfer", "amount": 5, "date": "2024-01-05"},
		"bad date":       {"walletId": walletID, "categoryId": "cat-1", "type": "Expense", "amount": 5, "date": "05/01/2024"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := h.do(http.MethodPost, "/transactions", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := h.do(http.MethodGet, "/wallets", token, nil)
	assert.Contains(t, w.Body.String(), `"balance":100`)
	assert.Contains(t, h.do(http.MethodGet, "/transactions", token, nil).Body.String(), `"transactions":[]`)
}

func TestOwnersAreIsolated(t *testing.T) {
	h := newHarness(t)
	joni := h.register("joni")
	budi := h.register("budi")
	walletID := h.createWallet(joni, "Main", 100)

	w := h.do(http.MethodPost, "/transactions", budi, gin.H{
		"walletId": walletID, "categoryId": "cat-1", "type": "Expense", "amount": 5, "date": "2024-01-05",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/wallets/"+walletID, budi, nil).Code)
	assert.Contains(t, h.do(http.MethodGet, "/wallets", budi, nil).Body.String(), `"wallets":[]`)
}

func TestTransactionListFilter(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)
	h.addTx(token, walletID, "cat-5", "Expense", 1500000, "2024-01-03", "Rent January")
	h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-10", "lunch")
	h.addTx(token, walletID, "cat-1", "Expense", 30000, "2023-12-28", "old")

	type listResponse struct {
		Transactions []struct {
			Note string `json:"note"`
		} `json:"transactions"`
	}
	// Default range is the current month
	got := decode[listResponse](t, h.do(http.MethodGet, "/transactions", token, nil))
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "lunch", got.Transactions[0].Note)

	got = decode[listResponse](t, h.do(http.MethodGet, "/transactions?q=rent", token, nil))
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "Rent January", got.Transactions[0].Note)

	got = decode[listResponse](t, h.do(http.MethodGet, "/transactions?from=2023-12-01&to=2023-12-31", token, nil))
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "old", got.Transactions[0].Note)

	for _, path := range []string{"/transactions?from=2024-1-5", "/dashboard?to=31-01-2024", "/dashboard/stream?from=x"} {
		w := h.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Body.String(), domain.ErrInvalidDate.Error(), path)
	}
}

func TestDashboardIsCachedAndInvalidated(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)
	h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-05", "lunch")
	h.addTx(token, walletID, "cat-6", "Income", 5000, "2024-01-20", "bonus")

	first := decode[DashboardResponse](t, h.do(http.MethodGet, "/dashboard", token, nil))
	assert.False(t, first.Cached)
	assert.Equal(t, int64(85000), first.Stats.TotalBalance)
	assert.Equal(t, int64(5000), first.Stats.TotalIncome)
	assert.Equal(t, int64(20000), first.Stats.TotalExpense)
	require.Len(t, first.Stats.CategoryData, 1)
	assert.Equal(t, "Food & Drinks", first.Stats.CategoryData[0].Name)
	assert.Equal(t, "2024-01-01", first.Filter.Start)
	assert.Equal(t, "2024-01-31", first.Filter.End)

	second := decode[DashboardResponse](t, h.do(http.MethodGet, "/dashboard", token, nil))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Stats, second.Stats)

	h.addTx(token, walletID, "cat-1", "Expense", 1000, "2024-01-21", "snack")
	third := decode[DashboardResponse](t, h.do(http.MethodGet, "/dashboard", token, nil))
	assert.False(t, third.Cached)
	assert.Equal(t, int64(21000), third.Stats.TotalExpense)

	empty := decode[DashboardResponse](t, h.do(http.MethodGet, "/dashboard?from=2023-01-01&to=2023-01-31", token, nil))
	assert.True(t, empty.Empty)
	assert.Equal(t, int64(84000), empty.Stats.TotalBalance, "total balance ignores the date range")

	h.redis.FastForward(2 * time.Minute)
	assert.False(t, decode[DashboardResponse](t, h.do(http.MethodGet, "/dashboard", token, nil)).Cached)
}

func TestCategories(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")

	w := h.do(http.MethodGet, "/categories", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Categories []any `json:"categories"`
	}](t, w).Categories, 8)

	w = h.do(http.MethodPost, "/categories", token, gin.H{"name": "Pets"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		ID   string `json:"id"`
		Icon string `json:"icon"`
	}](t, w)
	assert.True(t, strings.HasPrefix(created.ID, "custom-"))
	assert.NotEmpty(t, created.Icon)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/categories", token, gin.H{}).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/categories/"+created.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/categories/"+created.ID, token, nil).Code)
}

func TestRenameKeepsSessionAndRecords(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)
	h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-05", "lunch")
	h.register("budi")

	w := h.do(http.MethodPut, "/profile", token, gin.H{"username": "budi", "fullName": "Joni"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPut, "/profile", token, gin.H{"username": "joni2", "fullName": "Joni Two", "email": "j@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"moved":{"wallets":1,"transactions":1,"categories":8}`)

	// The same token now acts as the new identity
	w = h.do(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"joni2"`)
	w = h.do(http.MethodGet, "/wallets", token, nil)
	assert.Contains(t, w.Body.String(), `"balance":80000`, "wallets follow the rename")

	w = h.do(http.MethodPost, "/auth/login", "", gin.H{"username": "joni", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	h.login("joni2", "secret1")
}

func TestRenameSignsOutOtherDevices(t *testing.T) {
	h := newHarness(t)
	phone := h.register("joni")
	laptop := h.login("joni", "secret1")
	h.createWallet(phone, "Main", 100000)

	w := h.do(http.MethodPut, "/profile", phone, gin.H{"username": "joni2", "fullName": "Joni"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/wallets", laptop, nil).Code)

	// The freed name goes to someone else; the old laptop token must not reach it
	stranger := h.register("joni")
	h.createWallet(stranger, "Stranger", 5000)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/wallets", laptop, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/wallets", laptop, gin.H{"name": "X", "type": "Cash"}).Code)

	w = h.do(http.MethodGet, "/wallets", phone, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Main"`)
	assert.NotContains(t, w.Body.String(), "Stranger")
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t)
	joni := h.register("joni")
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/admin/users", joni, nil).Code)

	admin := h.login("admin", "admin123")
	w := h.do(http.MethodPost, "/admin/users", admin, gin.H{"username": "siti", "fullName": "Siti", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = h.do(http.MethodPost, "/admin/users", admin, gin.H{"username": "siti", "fullName": "Siti", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Users  []UserAdminResponse `json:"users"`
		Cached bool                `json:"cached"`
	}](t, w)
	assert.False(t, list.Cached)
	require.Len(t, list.Users, 3)
	assert.Equal(t, "admin", list.Users[0].Username)
	assert.Equal(t, "admin", list.Users[0].Role)
	assert.NotContains(t, w.Body.String(), "password")

	assert.True(t, decode[struct {
		Cached bool `json:"cached"`
	}](t, h.do(http.MethodGet, "/admin/users", admin, nil)).Cached)

	h.login("siti", "secret1")
}

func TestAdvice(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)
	h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-05", "lunch")

	w := h.do(http.MethodPost, "/advice", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"advice":"Spend less on food."}`, w.Body.String())
	assert.Equal(t, "Total balance: Rp80.000. Recent transactions: 2024-01-05: Expense Rp20.000 (Food & Drinks - lunch).", h.advisor.summary)

	w = h.do(http.MethodPost, "/advice/chat", token, gin.H{"message": "How am I doing?", "history": []gin.H{{"role": "user", "text": "hi"}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"reply":"You are doing fine."}`, w.Body.String())
	assert.Equal(t, []string{"How am I doing?"}, h.advisor.messages)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/advice/chat", token, gin.H{}).Code)
}

func TestDashboardStream(t *testing.T) {
	h := newHarness(t)
	token := h.register("joni")
	walletID := h.createWallet(token, "Main", 100000)

	srv := httptest.NewServer(h.router)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/dashboard/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan DashboardResponse, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			var d DashboardResponse
			if json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &d) == nil {
				events <- d
			}
		}
		close(events)
	}()

	next := func() DashboardResponse {
		select {
		case d, ok := <-events:
			require.True(t, ok, "stream closed")
			return d
		case <-time.After(2 * time.Second):
			t.Fatal("no event received")
			return DashboardResponse{}
		}
	}

	assert.Equal(t, int64(100000), next().Stats.TotalBalance)
	h.addTx(token, walletID, "cat-1", "Expense", 20000, "2024-01-05", "lunch")
	// The add publishes one change per collection; the figures settle after both reloads
	for {
		d := next()
		if d.Stats.TotalBalance == 80000 && d.Stats.TotalExpense == 20000 {
			break
		}
	}
}
