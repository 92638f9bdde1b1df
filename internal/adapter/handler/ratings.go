package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/matheusperin161/abexIVcorreto/internal/adapter/middleware"
	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

type RatingHandler struct {
	Ratings domain.RatingStore
}

type SubmitRatingRequest struct {
	Overall     int    `json:"overall_rating"`
	Punctuality int    `json:"punctuality_rating"`
	Cleanliness int    `json:"cleanliness_rating"`
	Comfort     int    `json:"comfort_rating"`
	Service     int    `json:"service_rating"`
	Comments    string `json:"comments"`
	BusLine     string `json:"bus_line"`
	TripDate    string `json:"trip_date"` // "YYYY-MM-DD"
	TripTime    string `json:"trip_time"` // "HH:MM"
}

func (h *RatingHandler) Submit(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	var req SubmitRatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}

	if req.Overall < 1 || req.Overall > 5 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Avaliação geral é obrigatória e deve estar entre 1 e 5"})
	}
	for _, v := range []int{req.Punctuality, req.Cleanliness, req.Comfort, req.Service} {
		if v < 0 || v > 5 {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Todas as avaliações devem estar entre 0 e 5"})
		}
	}

	var tripDate *time.Time
	if req.TripDate != "" {
		parsed, err := time.Parse("2006-01-02", req.TripDate)
		if err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Formato de data inválido. Use YYYY-MM-DD"})
		}
		tripDate = &parsed
	}
	if req.TripTime != "" {
		if _, err := time.Parse("15:04", req.TripTime); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Formato de hora inválido. Use HH:MM"})
		}
	}

	rating := &domain.Rating{
		ID:          uuid.New(),
		UserID:      userID,
		Overall:     req.Overall,
		Punctuality: req.Punctuality,
		Cleanliness: req.Cleanliness,
		Comfort:     req.Comfort,
		Service:     req.Service,
		Comments:    req.Comments,
		BusLine:     req.BusLine,
		TripDate:    tripDate,
		TripTime:    req.TripTime,
	}
	if err := h.Ratings.Create(c.Context(), rating); err != nil {
		slog.Error("Failed to create rating", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao registrar avaliação"})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Avaliação registrada com sucesso",
		"rating":  rating,
	})
}

func (h *RatingHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Usuário não autenticado"})
	}

	ratings, err := h.Ratings.ListByUser(c.Context(), userID)
	if err != nil {
		slog.Error("Failed to list ratings", "error", err, "user_id", userID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar avaliações"})
	}
	if ratings == nil {
		ratings = []domain.Rating{}
	}
	return c.JSON(ratings)
}
