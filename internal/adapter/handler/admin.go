package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
)

var vehicleStatuses = map[string]struct{}{
	"ativo":      {},
	"inativo":    {},
	"manutencao": {},
}

// AdminHandler covers the fleet back office: driver and vehicle registries,
// route seeding and the aggregated rating report.
type AdminHandler struct {
	Drivers  domain.DriverStore
	Vehicles domain.VehicleStore
	Routes   domain.RouteStore
	Ratings  domain.RatingStore
}

type DriverRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	CPF     string `json:"cpf"`
	CNH     string `json:"cnh"`
	BusLine string `json:"bus_line"`
	Code    string `json:"code"`
}

func (req *DriverRequest) validate() string {
	if req.Name == "" || req.Email == "" || req.CPF == "" || req.CNH == "" || req.BusLine == "" || req.Code == "" {
		return "Todos os campos são obrigatórios: name, email, cpf, cnh, bus_line, code"
	}
	return ""
}

func (h *AdminHandler) AddDriver(c *fiber.Ctx) error {
	var req DriverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	driver := &domain.Driver{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		CPF:     req.CPF,
		CNH:     req.CNH,
		BusLine: req.BusLine,
		Code:    req.Code,
	}
	if err := h.Drivers.Create(c.Context(), driver); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email, CPF, CNH ou código já cadastrado"})
		}
		slog.Error("Failed to create driver", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao cadastrar motorista"})
	}

	slog.Info("Driver registered", "id", driver.ID, "bus_line", driver.BusLine)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Motorista cadastrado com sucesso",
		"driver":  driver,
	})
}

func (h *AdminHandler) ListDrivers(c *fiber.Ctx) error {
	drivers, err := h.Drivers.List(c.Context())
	if err != nil {
		slog.Error("Failed to list drivers", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar motoristas"})
	}
	if drivers == nil {
		drivers = []domain.Driver{}
	}
	return c.JSON(drivers)
}

func (h *AdminHandler) GetDriver(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	driver, err := h.Drivers.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Motorista não encontrado"})
	}
	return c.JSON(driver)
}

func (h *AdminHandler) EditDriver(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	var req DriverRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	driver, err := h.Drivers.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Motorista não encontrado"})
	}

	driver.Name = req.Name
	driver.Email = req.Email
	driver.CPF = req.CPF
	driver.CNH = req.CNH
	driver.BusLine = req.BusLine
	driver.Code = req.Code

	if err := h.Drivers.Update(c.Context(), driver); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email, CPF, CNH ou código já cadastrado"})
		}
		slog.Error("Failed to update driver", "error", err, "id", id)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar motorista"})
	}

	return c.JSON(fiber.Map{
		"message": "Motorista atualizado com sucesso",
		"driver":  driver,
	})
}

func (h *AdminHandler) DeleteDriver(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	if err := h.Drivers.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Motorista não encontrado"})
		}
		slog.Error("Failed to delete driver", "error", err, "id", id)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao excluir motorista"})
	}

	return c.JSON(fiber.Map{"message": "Motorista excluído com sucesso"})
}

type VehicleRequest struct {
	Plate    string `json:"plate"`
	Model    string `json:"model"`
	Brand    string `json:"brand"`
	Year     int    `json:"year"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
	BusLine  string `json:"bus_line"`
	DriverID string `json:"driver_id"`
}

func (req *VehicleRequest) validate() string {
	if req.Plate == "" || req.Model == "" || req.Brand == "" || req.Year <= 0 || req.Capacity <= 0 {
		return "Campos obrigatórios: plate, model, brand, year, capacity"
	}
	if _, ok := vehicleStatuses[req.Status]; !ok {
		return "Status inválido. Use: ativo, inativo ou manutencao"
	}
	return ""
}

func (req *VehicleRequest) driverID() (*uuid.UUID, error) {
	if req.DriverID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(req.DriverID)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (h *AdminHandler) AddVehicle(c *fiber.Ctx) error {
	var req VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	driverID, err := req.driverID()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador de motorista inválido"})
	}

	vehicle := &domain.Vehicle{
		ID:       uuid.New(),
		Plate:    req.Plate,
		Model:    req.Model,
		Brand:    req.Brand,
		Year:     req.Year,
		Capacity: req.Capacity,
		Status:   req.Status,
		BusLine:  req.BusLine,
		DriverID: driverID,
	}
	if err := h.Vehicles.Create(c.Context(), vehicle); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Placa já cadastrada"})
		}
		slog.Error("Failed to create vehicle", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao cadastrar veículo"})
	}

	slog.Info("Vehicle registered", "id", vehicle.ID, "plate", vehicle.Plate)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Veículo cadastrado com sucesso",
		"vehicle": vehicle,
	})
}

func (h *AdminHandler) ListVehicles(c *fiber.Ctx) error {
	vehicles, err := h.Vehicles.List(c.Context())
	if err != nil {
		slog.Error("Failed to list vehicles", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar veículos"})
	}
	if vehicles == nil {
		vehicles = []domain.Vehicle{}
	}
	return c.JSON(vehicles)
}

func (h *AdminHandler) GetVehicle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	vehicle, err := h.Vehicles.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Veículo não encontrado"})
	}
	return c.JSON(vehicle)
}

func (h *AdminHandler) EditVehicle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	var req VehicleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Corpo da requisição inválido"})
	}
	if msg := req.validate(); msg != "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	driverID, err := req.driverID()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador de motorista inválido"})
	}

	vehicle, err := h.Vehicles.GetByID(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Veículo não encontrado"})
	}

	vehicle.Plate = req.Plate
	vehicle.Model = req.Model
	vehicle.Brand = req.Brand
	vehicle.Year = req.Year
	vehicle.Capacity = req.Capacity
	vehicle.Status = req.Status
	vehicle.BusLine = req.BusLine
	vehicle.DriverID = driverID

	if err := h.Vehicles.Update(c.Context(), vehicle); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Placa já cadastrada"})
		}
		slog.Error("Failed to update vehicle", "error", err, "id", id)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao atualizar veículo"})
	}

	return c.JSON(fiber.Map{
		"message": "Veículo atualizado com sucesso",
		"vehicle": vehicle,
	})
}

func (h *AdminHandler) DeleteVehicle(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Identificador inválido"})
	}

	if err := h.Vehicles.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Veículo não encontrado"})
		}
		slog.Error("Failed to delete vehicle", "error", err, "id", id)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao excluir veículo"})
	}

	return c.JSON(fiber.Map{"message": "Veículo excluído com sucesso"})
}

// PopulateRoutes seeds the fixed city lines. Running it again is a no-op.
func (h *AdminHandler) PopulateRoutes(c *fiber.Ctx) error {
	count, err := h.Routes.Count(c.Context())
	if err != nil {
		slog.Error("Failed to count routes", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao popular rotas"})
	}
	if count > 0 {
		return c.JSON(fiber.Map{"message": "Rotas já existem no banco de dados"})
	}

	fullFare := decimal.NewFromFloat(4.50)
	reducedFare := decimal.NewFromFloat(3.50)

	routes := []domain.BusRoute{
		{ID: uuid.New(), RouteNumber: "101", RouteName: "Centro - Terminal Norte", Origin: "Centro", Destination: "Terminal Norte", Fare: fullFare, Active: true},
		{ID: uuid.New(), RouteNumber: "102", RouteName: "Centro - Terminal Sul", Origin: "Centro", Destination: "Terminal Sul", Fare: fullFare, Active: true},
		{ID: uuid.New(), RouteNumber: "201", RouteName: "Terminal Norte - Universidade", Origin: "Terminal Norte", Destination: "Universidade", Fare: reducedFare, Active: true},
		{ID: uuid.New(), RouteNumber: "202", RouteName: "Terminal Sul - Shopping", Origin: "Terminal Sul", Destination: "Shopping", Fare: reducedFare, Active: true},
		{ID: uuid.New(), RouteNumber: "301", RouteName: "Circular Centro", Origin: "Centro", Destination: "Centro", Fare: reducedFare, Active: true},
	}

	if err := h.Routes.Seed(c.Context(), routes); err != nil {
		slog.Error("Failed to seed routes", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao popular rotas"})
	}

	slog.Info("Routes seeded", "count", len(routes))
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Rotas criadas com sucesso",
		"routes":  routes,
	})
}

func (h *AdminHandler) RatingStats(c *fiber.Ctx) error {
	stats, err := h.Ratings.Stats(c.Context())
	if err != nil {
		slog.Error("Failed to compute rating stats", "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Erro ao consultar estatísticas"})
	}
	return c.JSON(stats)
}
