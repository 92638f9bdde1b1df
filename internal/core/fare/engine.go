package fare

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

// lowBalanceThreshold triggers the "Saldo Baixo" alert after a debit.
var lowBalanceThreshold = decimal.NewFromInt(5)

var methodLabels = map[string]string{
	"cartao": "Cartão de Crédito",
	"pix":    "PIX",
	"boleto": "Boleto Bancário",
}

// MethodLabel returns the display name of a payment method.
func MethodLabel(method string) (string, bool) {
	label, ok := methodLabels[method]
	return label, ok
}

// Engine applies recharges and fare debits to card balances. Operations on
// the same account are serialized by a per-account mutex held across the
// balance read, the sufficiency check and the commit; operations on
// different accounts run independently.
type Engine struct {
	store    domain.LedgerStore
	notifier domain.Notifier
	events   domain.EventPublisher // optional, nil disables publishing

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewEngine(store domain.LedgerStore, notifier domain.Notifier, events domain.EventPublisher) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		events:   events,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (e *Engine) accountLock(userID uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[userID] = lock
	}
	return lock
}

// commit serializes the read-validate-write cycle for one account and
// returns the balance after the mutation. A negative delta that would leave
// the balance below zero is rejected before any write.
func (e *Engine) commit(ctx context.Context, userID uuid.UUID, delta decimal.Decimal, txn *domain.Transaction) (decimal.Decimal, error) {
	lock := e.accountLock(userID)
	lock.Lock()
	defer lock.Unlock()

	acc, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	newBalance := acc.Balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientBalance
	}

	if err := e.store.CommitMutation(ctx, userID, delta, txn); err != nil {
		return decimal.Zero, fmt.Errorf("commit mutation: %w", err)
	}
	return newBalance, nil
}

// Recharge credits the card and appends a recharge transaction. The amount
// must be positive and the payment method one of cartao, pix or boleto.
func (e *Engine) Recharge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, method string) (*domain.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	label, ok := methodLabels[method]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, method)
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      amount,
		Kind:        domain.KindRecharge,
		Description: fmt.Sprintf("Recarga via %s - R$ %s", label, amount.StringFixed(2)),
		CreatedAt:   time.Now().UTC(),
	}

	newBalance, err := e.commit(ctx, userID, amount, txn)
	if err != nil {
		return nil, err
	}

	e.notifier.Notify(ctx, userID,
		"Recarga Realizada",
		fmt.Sprintf("Sua recarga de R$ %s foi realizada com sucesso via %s. Seu novo saldo é de R$ %s.",
			amount.StringFixed(2), label, newBalance.StringFixed(2)))

	if e.events != nil {
		e.events.PublishTransactionCompleted(txn)
	}
	return txn, nil
}

// Debit charges the route's flat fare and appends a usage transaction.
// Fails with ErrInsufficientBalance when the balance does not cover the
// fare, leaving the account untouched. A post-debit balance under the
// low-balance threshold triggers exactly one alert.
func (e *Engine) Debit(ctx context.Context, userID uuid.UUID, route *domain.BusRoute) (*domain.Transaction, error) {
	txn := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Amount:      route.Fare.Neg(),
		Kind:        domain.KindUsage,
		Description: fmt.Sprintf("Uso do transporte - Linha %s", route.RouteNumber),
		CreatedAt:   time.Now().UTC(),
	}

	newBalance, err := e.commit(ctx, userID, route.Fare.Neg(), txn)
	if err != nil {
		return nil, err
	}

	if newBalance.LessThan(lowBalanceThreshold) {
		e.notifier.Notify(ctx, userID,
			"Saldo Baixo",
			fmt.Sprintf("Seu saldo atual é de R$ %s. Recarregue para evitar interrupções no serviço.",
				newBalance.StringFixed(2)))
	}

	if e.events != nil {
		e.events.PublishTransactionCompleted(txn)
	}
	return txn, nil
}
