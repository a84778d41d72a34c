package middleware_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio/internal/auth"
	"portfolio/internal/httperr"
	"portfolio/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTokenVerifier is a mock implementation of middleware.TokenVerifier
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(token string) (auth.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(auth.Identity), args.Error(1)
}

func newProtectedApp(verifier middleware.TokenVerifier) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(slog.New(slog.DiscardHandler))})
	app.Get("/me", middleware.AuthRequired(verifier), middleware.WithIdentity(func(c *fiber.Ctx, id auth.Identity) error {
		fromCtx, ok := middleware.IdentityFromContext(c.UserContext())
		if !ok || fromCtx != id {
			return errors.New("identity missing from user context")
		}
		return c.JSON(id)
	}))
	return app
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	code, _ := body["error"].(string)
	return code
}

func TestAuthRequired_MissingToken(t *testing.T) {
	verifier := new(MockTokenVerifier)
	app := newProtectedApp(verifier)

	for name, header := range map[string]string{
		"no header":    "",
		"basic scheme": "Basic dXNlcjpwYXNz",
		"lowercase":    "bearer abc",
		"no separator": "Bearerabc",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "MissingToken", errorCode(t, resp))
		})
	}
	verifier.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	verifier := new(MockTokenVerifier)
	verifier.On("Verify", "expired-token").Return(auth.Identity{}, auth.ErrInvalidToken).Once()
	verifier.On("Verify", "x.y.z").Return(auth.Identity{}, auth.ErrInvalidToken).Once()
	app := newProtectedApp(verifier)

	for _, token := range []string{"expired-token", "x.y.z"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"error":"InvalidToken"}`, string(raw))
	}
	verifier.AssertExpectations(t)
}

func TestAuthRequired_EmptyBearerToken(t *testing.T) {
	verifier := new(MockTokenVerifier)
	app := newProtectedApp(verifier)

	for name, header := range map[string]string{
		"scheme only":     "Bearer",
		"trailing space":  "Bearer ",
		"only whitespace": "Bearer    ",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", header)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "InvalidToken", errorCode(t, resp))
		})
	}
	verifier.AssertNotCalled(t, "Verify", mock.Anything)
}

func TestAuthRequired_AttachesIdentity(t *testing.T) {
	id := auth.Identity{Subject: "user-123", Email: "u@x.com"}
	verifier := new(MockTokenVerifier)
	verifier.On("Verify", "good-token").Return(id, nil).Once()
	app := newProtectedApp(verifier)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got auth.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, id, got)
	verifier.AssertExpectations(t)
}

func TestAuthRequired_WithRealTokens(t *testing.T) {
	tokens := auth.NewTokenManager("test_jwt_secret")
	token, err := tokens.Issue(auth.Identity{Subject: "user-9", Email: "nine@x.com"})
	require.NoError(t, err)
	app := newProtectedApp(tokens)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWithIdentity_WithoutGate(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(slog.New(slog.DiscardHandler))})
	app.Get("/open", middleware.WithIdentity(func(c *fiber.Ctx, _ auth.Identity) error {
		return c.SendStatus(http.StatusOK)
	}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MissingToken", errorCode(t, resp))
}

func TestMetrics(t *testing.T) {
	metrics := middleware.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: httperr.Handler(slog.New(slog.DiscardHandler))})
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return httperr.ErrNotFound })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NotFound", errorCode(t, resp))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/ok",status="200"} 1`)
	assert.Contains(t, body, `http_requests_total{method="GET",route="/fail",status="404"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
