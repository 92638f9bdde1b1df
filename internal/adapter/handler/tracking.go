package handler

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/tracking"
)

// TrackingHandler receives bus position updates, serves the current fleet
// snapshot, streams live updates over websocket and resolves route polylines.
type TrackingHandler struct {
	Broadcaster *tracking.Broadcaster
	Directions  *tracking.DirectionsClient
	Store       domain.TrackingStore
}

type UpdateLocationRequest struct {
	BusID     *int64   `json:"bus_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *TrackingHandler) UpdateLocation(c *fiber.Ctx) error {
	var req UpdateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	// Zero is a valid coordinate, so presence is checked, not value.
	if req.BusID == nil || req.Latitude == nil || req.Longitude == nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "bus_id, latitude e longitude são obrigatórios"})
	}

	loc, err := h.Broadcaster.UpdatePosition(c.Context(), *req.BusID, *req.Latitude, *req.Longitude)
	if err != nil {
		slog.Error("Failed to update bus position", "error", err, "bus_id", *req.BusID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar localização"})
	}

	return c.JSON(fiber.Map{"success": true, "data": loc})
}

func (h *TrackingHandler) GetLocations(c *fiber.Ctx) error {
	locations, err := h.Store.ListPositions(c.Context())
	if err != nil {
		slog.Error("Failed to list bus positions", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar localizações"})
	}
	if locations == nil {
		locations = []domain.BusLocation{}
	}
	return c.JSON(locations)
}

func (h *TrackingHandler) GetRoutePolyline(c *fiber.Ctx) error {
	busID, err := c.ParamsInt("bus_id")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador de ônibus inválido"})
	}

	polyline, cached, err := h.Directions.RoutePolyline(c.Context(), int64(busID))
	if err != nil {
		slog.Error("Failed to resolve route polyline", "error", err, "bus_id", busID)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar trajeto da rota"})
	}

	return c.JSON(fiber.Map{"polyline": polyline, "cached": cached})
}

// Live streams position updates to a websocket client. The subscription
// starts at connect time; there is no history replay. A reader goroutine
// watches for disconnect so the writer loop can stop promptly.
func (h *TrackingHandler) Live(c *websocket.Conn) {
	channel := c.Query("channel", tracking.DefaultChannel)

	sub := h.Broadcaster.Subscribe(channel)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case loc, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := c.WriteJSON(loc); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
