package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusperin161/abexIVcorreto/internal/adapter/middleware"
	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/fare"
)

// CardHandler exposes the stored-value card: balance, recharges, fare
// debits, the transaction history and the notifications the card produces.
type CardHandler struct {
	Engine        *fare.Engine
	Ledger        domain.LedgerStore
	Routes        domain.RouteStore
	Notifications domain.NotificationStore
}

func (h *CardHandler) GetBalance(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	acc, err := h.Ledger.GetAccount(c.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
		}
		slog.Error("Failed to load account", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar saldo"})
	}

	return c.JSON(fiber.Map{"balance": acc.Balance})
}

type RechargeRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

func (h *CardHandler) Recharge(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	var req RechargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}

	txn, err := h.Engine.Recharge(c.Context(), userID, req.Amount, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Valor deve ser maior que zero"})
		case errors.Is(err, domain.ErrValidation):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Método de pagamento inválido. Use: cartao, pix ou boleto"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
		}
		slog.Error("Recharge failed", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao processar recarga"})
	}

	acc, err := h.Ledger.GetAccount(c.Context(), userID)
	if err != nil {
		slog.Error("Failed to load account after recharge", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao processar recarga"})
	}

	return c.JSON(fiber.Map{
		"message":      "Recarga realizada com sucesso",
		"new_balance":  acc.Balance,
		"transaction":  txn,
		"payment_info": paymentInfo(req.PaymentMethod, userID, req.Amount),
	})
}

// paymentInfo simulates the payment provider response for each method.
// No external gateway is involved.
func paymentInfo(method string, userID uuid.UUID, amount decimal.Decimal) fiber.Map {
	now := time.Now().Unix()
	label, _ := fare.MethodLabel(method)

	info := fiber.Map{
		"method": label,
		"status": "aprovado",
	}
	switch method {
	case "cartao":
		info["transaction_id"] = fmt.Sprintf("CARD_%s_%d", userID, now)
	case "pix":
		info["transaction_id"] = fmt.Sprintf("PIX_%s_%d", userID, now)
		info["qr_code"] = fmt.Sprintf("00020126580014BR.GOV.BCB.PIX0136%s5204000053039865802BR", uuid.NewString())
	case "boleto":
		info["transaction_id"] = fmt.Sprintf("BOL_%s_%d", userID, now)
		info["barcode"] = fmt.Sprintf("23793.38128 60007.827136 95000.063305 9 %d%s",
			now, amount.Mul(decimal.NewFromInt(100)).StringFixed(0))
	}
	return info
}

type UseTransportRequest struct {
	RouteID string `json:"route_id"`
}

func (h *CardHandler) UseTransport(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	var req UseTransportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}

	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador de rota inválido"})
	}

	route, err := h.Routes.GetByID(c.Context(), routeID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Rota não encontrada"})
	}

	txn, err := h.Engine.Debit(c.Context(), userID, route)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientBalance):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Saldo insuficiente"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
		}
		slog.Error("Fare debit failed", "error", err, "user_id", userID, "route_id", routeID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao processar pagamento"})
	}

	acc, err := h.Ledger.GetAccount(c.Context(), userID)
	if err != nil {
		slog.Error("Failed to load account after debit", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao processar pagamento"})
	}

	return c.JSON(fiber.Map{
		"message":     "Pagamento realizado com sucesso",
		"new_balance": acc.Balance,
		"transaction": txn,
	})
}

func (h *CardHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	txns, err := h.Ledger.ListTransactions(c.Context(), userID)
	if err != nil {
		slog.Error("Failed to list transactions", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar transações"})
	}
	if txns == nil {
		txns = []domain.Transaction{}
	}
	return c.JSON(txns)
}

func (h *CardHandler) GetNotifications(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	notifications, err := h.Notifications.ListByUser(c.Context(), userID)
	if err != nil {
		slog.Error("Failed to list notifications", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar notificações"})
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return c.JSON(notifications)
}

func (h *CardHandler) MarkNotificationRead(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	if err := h.Notifications.MarkRead(c.Context(), id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Notificação não encontrada"})
		}
		slog.Error("Failed to mark notification read", "error", err, "id", id)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar notificação"})
	}

	return c.JSON(fiber.Map{"message": "Notificação marcada como lida"})
}

func (h *CardHandler) GetRoutes(c *fiber.Ctx) error {
	routes, err := h.Routes.ListActive(c.Context())
	if err != nil {
		slog.Error("Failed to list routes", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar rotas"})
	}
	if routes == nil {
		routes = []domain.BusRoute{}
	}
	return c.JSON(routes)
}
