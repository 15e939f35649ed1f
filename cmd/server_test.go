package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/gofiber/fiber/v2"
)

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return body
}

func TestGlobalErrorHandler_FailureBodies(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: globalErrorHandler(false)})
	app.Get("/app-error", func(c *fiber.Ctx) error {
		return auth.ErrForbidden()
	})
	app.Get("/fiber-error", func(c *fiber.Ctx) error {
		return fiber.ErrBadRequest
	})
	app.Get("/plain-error", func(c *fiber.Ctx) error {
		return http.ErrBodyNotAllowed
	})
	app.Use(notFoundHandler)

	cases := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"coded error", "/app-error", http.StatusForbidden, "AUTH_FORBIDDEN"},
		{"fiber error", "/fiber-error", http.StatusBadRequest, "FIBER_ERROR"},
		{"opaque error", "/plain-error", http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"unknown route", "/nope", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tc.path, nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status: got %d, want %d", resp.StatusCode, tc.status)
			}

			body := decodeBody(t, resp)
			if body["code"] != tc.code {
				t.Errorf("code: got %v, want %s", body["code"], tc.code)
			}
			// Every failure body carries the explicit success flag.
			if success, ok := body["success"].(bool); !ok || success {
				t.Errorf("success: got %v, want false", body["success"])
			}
			if body["error"] == "" {
				t.Error("expected a non-empty error message")
			}
		})
	}
}
