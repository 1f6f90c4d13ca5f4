package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digisaathi/server/internal/api/dto"
	"github.com/digisaathi/server/internal/api/handlers"
	"github.com/digisaathi/server/internal/api/middleware"
	"github.com/digisaathi/server/internal/auth"
	"github.com/digisaathi/server/internal/testutil"
)

func setupUserTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	authService := auth.NewService(tc.DB, tc.JWTService)
	handler := handlers.NewUserHandler(authService)

	r := chi.NewRouter()
	r.Post("/api/v1/users", handler.Create)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/users/me", handler.Me)
	})

	return r, tc
}

func TestUserHandler_Create(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful registration", func(t *testing.T) {
		body := map[string]string{
			"email":     "newuser@example.com",
			"password":  "securepassword123",
			"full_name": "New User",
			"language":  "hi",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/users", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var resp dto.UserDTO
		err := json.Unmarshal(rr.Body.Bytes(), &resp)
		require.NoError(t, err)
		assert.NotEmpty(t, resp.ID)
		assert.Equal(t, "newuser@example.com", resp.Email)
		assert.Equal(t, "New User", resp.FullName)
		assert.Equal(t, "hi", resp.Language)
		assert.True(t, resp.IsActive)
	})

	t.Run("duplicate email returns conflict", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/users", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		body := map[string]string{
			"email":    "not-an-email",
			"password": "securepassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/users", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Contains(t, resp.Details, "email")
	})

	t.Run("short password rejected", func(t *testing.T) {
		body := map[string]string{
			"email":    "shortpw@example.com",
			"password": "short",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/users", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/users", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	t.Run("successful login", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "testpassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.AuthResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, tc.User.Email, resp.User.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    tc.User.Email,
			"password": "wrongpassword",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		body := map[string]string{
			"email":    "nobody@example.com",
			"password": "testpassword123",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestUserHandler_Me(t *testing.T) {
	router, tc := setupUserTestRouter(t)
	defer tc.Cleanup()

	t.Run("returns authenticated user", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/users/me", nil, tc.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp dto.UserDTO
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, tc.User.ID.String(), resp.ID)
		assert.Equal(t, tc.User.Email, resp.Email)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/api/v1/users/me", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
