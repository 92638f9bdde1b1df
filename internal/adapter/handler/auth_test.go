package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newAuthTestApp() (*fiber.App, *memUserStore) {
	users := newMemUserStore()
	authHandler := &AuthHandler{Users: users}

	app := fiber.New()
	app.Post("/api/register", authHandler.Register)
	app.Post("/api/login", authHandler.Login)
	return app, users
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("encode body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/register", fiber.Map{
		"username": "joao",
		"email":    "joao@example.com",
		"password": "segredo123",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	resp.Body.Close()

	resp = postJSON(t, app, "/api/login", fiber.Map{
		"username": "joao",
		"password": "segredo123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body := decodeBody(t, resp)
	token, ok := body["token"].(string)
	if !ok || token == "" {
		t.Fatal("login response missing token")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/register", fiber.Map{
		"username": "joao",
		"email":    "joao@example.com",
		"password": "segredo123",
	})
	resp.Body.Close()

	resp = postJSON(t, app, "/api/register", fiber.Map{
		"username": "joao",
		"email":    "outro@example.com",
		"password": "segredo123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	body := decodeBody(t, resp)
	if body["error"] != "Usuário já existe" {
		t.Errorf("error = %v, want Usuário já existe", body["error"])
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/register", fiber.Map{
		"username": "joao",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp.Body.Close()
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	app, _ := newAuthTestApp()

	resp := postJSON(t, app, "/api/register", fiber.Map{
		"username": "joao",
		"email":    "joao@example.com",
		"password": "segredo123",
	})
	resp.Body.Close()

	resp = postJSON(t, app, "/api/login", fiber.Map{
		"username": "joao",
		"password": "errada",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp.Body.Close()
}
