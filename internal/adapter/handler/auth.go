package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/matheusperin161/abexIVcorreto/internal/adapter/middleware"
	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/security"
)

type AuthHandler struct {
	Users domain.UserStore
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Nome de usuário, e-mail e senha são obrigatórios"})
	}

	if _, err := h.Users.GetByUsername(c.Context(), req.Username); err == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Usuário já existe"})
	}
	if _, err := h.Users.GetByEmail(c.Context(), req.Email); err == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email já cadastrado"})
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao criar usuário"})
	}

	user := &domain.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		Password: hash,
		Role:     "user",
	}
	if err := h.Users.Create(c.Context(), user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Usuário já existe"})
		}
		slog.Error("Failed to create user", "error", err, "username", req.Username)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao criar usuário"})
	}

	slog.Info("User registered", "id", user.ID, "username", user.Username)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Usuário criado com sucesso",
		"user":    user,
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}

	user, err := h.Users.GetByUsername(c.Context(), req.Username)
	if err != nil || !security.CheckPassword(user.Password, req.Password) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Credenciais inválidas"})
	}

	token, tokenHash, err := security.GenerateSessionToken()
	if err != nil {
		slog.Error("Failed to generate session token", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao realizar login"})
	}
	if err := h.Users.SaveToken(c.Context(), user.ID, tokenHash); err != nil {
		slog.Error("Failed to save session token", "error", err, "user_id", user.ID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao realizar login"})
	}

	return c.JSON(fiber.Map{
		"message": "Login realizado com sucesso",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 {
		if err := h.Users.DeleteToken(c.Context(), security.HashToken(parts[1])); err != nil {
			slog.Error("Failed to delete session token", "error", err)
		}
	}
	return c.JSON(fiber.Map{"message": "Logout realizado com sucesso"})
}

func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	user, err := h.Users.GetByID(c.Context(), userID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
	}
	return c.JSON(user)
}

type UpdateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if req.Username == "" || req.Email == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Nome de usuário e e-mail são obrigatórios"})
	}

	user, err := h.Users.GetByID(c.Context(), userID)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
	}

	if other, err := h.Users.GetByUsername(c.Context(), req.Username); err == nil && other.ID != user.ID {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Nome de usuário já existe"})
	}
	if other, err := h.Users.GetByEmail(c.Context(), req.Email); err == nil && other.ID != user.ID {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "E-mail já cadastrado"})
	}

	user.Username = req.Username
	user.Email = req.Email
	if err := h.Users.UpdateProfile(c.Context(), user); err != nil {
		slog.Error("Failed to update profile", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar perfil"})
	}

	if req.Password != "" {
		hash, err := security.HashPassword(req.Password)
		if err == nil {
			err = h.Users.UpdatePassword(c.Context(), userID, hash)
		}
		if err != nil {
			slog.Error("Failed to update password", "error", err, "user_id", userID)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar perfil"})
		}
	}

	return c.JSON(fiber.Map{
		"message":  "Perfil atualizado com sucesso",
		"username": user.Username,
		"email":    user.Email,
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword issues a reset token. The response never reveals whether
// the email is registered.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if req.Email == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email é obrigatório"})
	}

	genericMessage := "Se o email estiver cadastrado, você receberá instruções para redefinir sua senha"

	user, err := h.Users.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return c.JSON(fiber.Map{"message": genericMessage})
	}

	resetToken, err := security.GenerateResetToken()
	if err != nil {
		slog.Error("Failed to generate reset token", "error", err)
		return c.JSON(fiber.Map{"message": genericMessage})
	}

	// TODO: persist the token with an expiry and deliver it by email
	// instead of echoing it back; kept as a stub for now.
	return c.JSON(fiber.Map{
		"message":     genericMessage,
		"reset_token": resetToken,
		"user_id":     user.ID,
	})
}

type ResetPasswordRequest struct {
	UserID          string `json:"user_id"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if req.UserID == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Todos os campos são obrigatórios"})
	}
	if req.NewPassword != req.ConfirmPassword {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "As senhas não coincidem"})
	}
	if len(req.NewPassword) < 6 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "A senha deve ter pelo menos 6 caracteres"})
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador de usuário inválido"})
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao redefinir senha"})
	}

	if err := h.Users.UpdatePassword(c.Context(), userID, hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Usuário não encontrado"})
		}
		slog.Error("Failed to reset password", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao redefinir senha"})
	}

	return c.JSON(fiber.Map{"message": "Senha redefinida com sucesso"})
}
