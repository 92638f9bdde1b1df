package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusperin161/abexIVcorreto/internal/adapter/middleware"
	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/fare"
	"github.com/matheusperin161/abexIVcorreto/internal/core/notify"
	"github.com/matheusperin161/abexIVcorreto/internal/core/security"
)

type memUserStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]*domain.User
	tokens map[string]uuid.UUID
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users:  make(map[uuid.UUID]*domain.User),
		tokens: make(map[string]uuid.UUID),
	}
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrDuplicate
		}
	}
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) UpdateProfile(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Username = u.Username
	stored.Email = u.Email
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Password = passwordHash
	return nil
}

func (s *memUserStore) SaveToken(_ context.Context, userID uuid.UUID, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = userID
	return nil
}

func (s *memUserStore) GetUserIDByToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.tokens[tokenHash]
	if !ok {
		return uuid.Nil, domain.ErrNotFound
	}
	return userID, nil
}

func (s *memUserStore) DeleteToken(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenHash)
	return nil
}

type memLedgerStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
	owners   map[uuid.UUID]string
	txns     map[uuid.UUID][]domain.Transaction
}

func newMemLedgerStore() *memLedgerStore {
	return &memLedgerStore{
		balances: make(map[uuid.UUID]decimal.Decimal),
		owners:   make(map[uuid.UUID]string),
		txns:     make(map[uuid.UUID][]domain.Transaction),
	}
}

func (s *memLedgerStore) GetAccount(_ context.Context, userID uuid.UUID) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Account{ID: userID, Owner: s.owners[userID], Balance: balance}, nil
}

func (s *memLedgerStore) ListTransactions(_ context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.txns[userID]
	out := make([]domain.Transaction, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
	}
	return out, nil
}

func (s *memLedgerStore) CommitMutation(_ context.Context, userID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[userID]
	if !ok {
		return domain.ErrNotFound
	}
	next := balance.Add(delta)
	if next.IsNegative() {
		return domain.ErrInsufficientBalance
	}
	s.balances[userID] = next
	s.txns[userID] = append(s.txns[userID], *txn)
	return nil
}

type memNotificationStore struct {
	mu    sync.Mutex
	items map[uuid.UUID][]domain.Notification
}

func newMemNotificationStore() *memNotificationStore {
	return &memNotificationStore{items: make(map[uuid.UUID][]domain.Notification)}
}

func (s *memNotificationStore) Append(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[n.UserID] = append(s.items[n.UserID], *n)
	return nil
}

func (s *memNotificationStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.items[userID]...), nil
}

func (s *memNotificationStore) MarkRead(_ context.Context, id, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items[userID] {
		if s.items[userID][i].ID == id {
			s.items[userID][i].Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type memRouteStore struct {
	routes []domain.BusRoute
}

func (s *memRouteStore) ListActive(_ context.Context) ([]domain.BusRoute, error) {
	var active []domain.BusRoute
	for _, r := range s.routes {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}

func (s *memRouteStore) GetByID(_ context.Context, id uuid.UUID) (*domain.BusRoute, error) {
	for i := range s.routes {
		if s.routes[i].ID == id {
			return &s.routes[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memRouteStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.routes)), nil
}

func (s *memRouteStore) Seed(_ context.Context, routes []domain.BusRoute) error {
	s.routes = append(s.routes, routes...)
	return nil
}

type cardTestEnv struct {
	app    *fiber.App
	users  *memUserStore
	ledger *memLedgerStore
	notes  *memNotificationStore
	routes *memRouteStore
	userID uuid.UUID
	token  string
}

// newCardTestEnv builds the card API with in-memory stores and one
// authenticated rider holding the given balance.
func newCardTestEnv(t *testing.T, balance decimal.Decimal) *cardTestEnv {
	t.Helper()

	users := newMemUserStore()
	ledger := newMemLedgerStore()
	notes := newMemNotificationStore()
	routes := &memRouteStore{}

	userID := uuid.New()
	users.users[userID] = &domain.User{ID: userID, Username: "maria", Email: "maria@example.com", Role: "user"}
	ledger.balances[userID] = balance
	ledger.owners[userID] = "maria"

	const token = "test-session-token"
	users.tokens[security.HashToken(token)] = userID

	engine := fare.NewEngine(ledger, notify.NewSink(notes), nil)
	cardHandler := &CardHandler{Engine: engine, Ledger: ledger, Routes: routes, Notifications: notes}

	app := fiber.New()
	api := app.Group("/api", middleware.Protected(users))
	api.Get("/balance", cardHandler.GetBalance)
	api.Post("/recharge", cardHandler.Recharge)
	api.Post("/use-transport", cardHandler.UseTransport)
	api.Get("/transactions", cardHandler.GetTransactions)
	api.Get("/notifications", cardHandler.GetNotifications)

	return &cardTestEnv{
		app:    app,
		users:  users,
		ledger: ledger,
		notes:  notes,
		routes: routes,
		userID: userID,
		token:  token,
	}
}

func (env *cardTestEnv) request(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+env.token)

	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestRechargeEndpoint(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(10))

	resp := env.request(t, http.MethodPost, "/api/recharge", fiber.Map{
		"amount":         25.50,
		"payment_method": "pix",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decodeBody(t, resp)
	if body["new_balance"] != "35.5" {
		t.Errorf("new_balance = %v, want 35.5", body["new_balance"])
	}
	info, ok := body["payment_info"].(map[string]any)
	if !ok {
		t.Fatalf("payment_info missing: %v", body)
	}
	if _, ok := info["qr_code"]; !ok {
		t.Error("pix payment_info missing qr_code")
	}
}

func TestRechargeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		method string
	}{
		{"zero amount", 0, "pix"},
		{"negative amount", -5, "pix"},
		{"unknown method", 10, "dinheiro"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newCardTestEnv(t, decimal.NewFromInt(10))

			resp := env.request(t, http.MethodPost, "/api/recharge", fiber.Map{
				"amount":         tc.amount,
				"payment_method": tc.method,
			})
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}

			if balance := env.ledger.balances[env.userID]; !balance.Equal(decimal.NewFromInt(10)) {
				t.Errorf("balance changed to %s on rejected recharge", balance)
			}
		})
	}
}

func TestUseTransportDebitsFare(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(20))
	route := domain.BusRoute{
		ID:          uuid.New(),
		RouteNumber: "101",
		RouteName:   "Centro - Terminal Norte",
		Fare:        decimal.NewFromFloat(4.50),
		Active:      true,
	}
	env.routes.routes = append(env.routes.routes, route)

	resp := env.request(t, http.MethodPost, "/api/use-transport", fiber.Map{
		"route_id": route.ID.String(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decodeBody(t, resp)
	if body["new_balance"] != "15.5" {
		t.Errorf("new_balance = %v, want 15.5", body["new_balance"])
	}
}

func TestUseTransportInsufficientBalance(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(2))
	route := domain.BusRoute{
		ID:          uuid.New(),
		RouteNumber: "101",
		Fare:        decimal.NewFromFloat(4.50),
		Active:      true,
	}
	env.routes.routes = append(env.routes.routes, route)

	resp := env.request(t, http.MethodPost, "/api/use-transport", fiber.Map{
		"route_id": route.ID.String(),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	body := decodeBody(t, resp)
	if body["error"] != "Saldo insuficiente" {
		t.Errorf("error = %v, want Saldo insuficiente", body["error"])
	}
	if balance := env.ledger.balances[env.userID]; !balance.Equal(decimal.NewFromInt(2)) {
		t.Errorf("balance changed to %s on failed debit", balance)
	}
}

func TestUseTransportUnknownRoute(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(20))

	resp := env.request(t, http.MethodPost, "/api/use-transport", fiber.Map{
		"route_id": uuid.NewString(),
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(10))

	req := httptest.NewRequest(http.MethodGet, "/api/balance", nil)
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestDebitRecordsTransactionAndLowBalanceAlert(t *testing.T) {
	env := newCardTestEnv(t, decimal.NewFromInt(9))
	route := domain.BusRoute{
		ID:          uuid.New(),
		RouteNumber: "202",
		Fare:        decimal.NewFromFloat(4.50),
		Active:      true,
	}
	env.routes.routes = append(env.routes.routes, route)

	resp := env.request(t, http.MethodPost, "/api/use-transport", fiber.Map{
		"route_id": route.ID.String(),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	resp = env.request(t, http.MethodGet, "/api/transactions", nil)
	defer resp.Body.Close()

	var txns []domain.Transaction
	if err := json.NewDecoder(resp.Body).Decode(&txns); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txns))
	}
	if txns[0].Kind != domain.KindUsage {
		t.Errorf("transaction kind = %s, want %s", txns[0].Kind, domain.KindUsage)
	}

	// 9.00 - 4.50 = 4.50, below the low-balance threshold.
	notes, _ := env.notes.ListByUser(context.Background(), env.userID)
	var alerts int
	for _, n := range notes {
		if n.Title == "Saldo Baixo" {
			alerts++
		}
	}
	if alerts != 1 {
		t.Errorf("low-balance alerts = %d, want 1", alerts)
	}
}
