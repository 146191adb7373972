package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-core/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-core/pkg/jwt"
)

const (
	authSecret = "clave-de-pruebas-middleware"
	authUserID = "00000000-0000-0000-0000-000000000001"
	authName   = "Bodega Central"
)

// guardedApp expone una ruta por política de la API: lectura, confirmación (admin o bodeguero)
// y aprobación (solo admin). Cada una devuelve el usuario que actúa.
func guardedApp() *fiber.App {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   apphttp.GetUserID(c),
			"user_name": apphttp.GetUserName(c),
			"role":      apphttp.GetRole(c),
		})
	}
	api := app.Group("/api", apphttp.AuthMiddleware(authSecret))
	api.Get("/read", whoami)
	api.Post("/confirm", apphttp.RequireRole(apphttp.RoleAdmin, apphttp.RoleBodeguero), whoami)
	api.Post("/approve", apphttp.RequireRole(apphttp.RoleAdmin), whoami)
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(authSecret, authUserID, authName, role, "stock-core-test", 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func TestPoliticaDeRoles(t *testing.T) {
	app := guardedApp()
	cases := []struct {
		role           string
		read, confirm  int
		approve        int
		approveErrCode string
	}{
		{apphttp.RoleAdmin, 200, 200, 200, ""},
		{apphttp.RoleBodeguero, 200, 200, 403, "FORBIDDEN"},
		{apphttp.RoleVendedor, 200, 403, 403, "FORBIDDEN"},
		{"", 200, 401, 401, "MISSING_ROLE"},
	}
	for _, tc := range cases {
		t.Run("rol="+tc.role, func(t *testing.T) {
			auth := bearer(t, tc.role)

			resp := call(t, app, http.MethodGet, "/api/read", auth)
			resp.Body.Close()
			assert.Equal(t, tc.read, resp.StatusCode, "lectura")

			resp = call(t, app, http.MethodPost, "/api/confirm", auth)
			resp.Body.Close()
			assert.Equal(t, tc.confirm, resp.StatusCode, "confirmación")

			resp = call(t, app, http.MethodPost, "/api/approve", auth)
			defer resp.Body.Close()
			assert.Equal(t, tc.approve, resp.StatusCode, "aprobación")
			if tc.approveErrCode != "" {
				assert.Equal(t, tc.approveErrCode, errorCode(t, resp))
			}
		})
	}
}

func TestAuthMiddleware_CabecerasInvalidas(t *testing.T) {
	app := guardedApp()
	expired := gojwt.NewWithClaims(gojwt.SigningMethodHS256, pkgjwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Minute))},
		UserID:           authUserID,
		Role:             apphttp.RoleAdmin,
	})
	expiredToken, err := expired.SignedString([]byte(authSecret))
	require.NoError(t, err)
	otherSecret, err := pkgjwt.Generate("otra-clave", authUserID, authName, apphttp.RoleAdmin, "x", 60)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		code   string
	}{
		"sin cabecera": {"", "MISSING_TOKEN"},
		"sin esquema":  {"abc.def.ghi", "INVALID_TOKEN"},
		"token basura": {"Bearer no-es-un-jwt", "INVALID_TOKEN"},
		"expirado":     {"Bearer " + expiredToken, "INVALID_TOKEN"},
		"otra firma":   {"bearer " + otherSecret, "INVALID_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			resp := call(t, app, http.MethodGet, "/api/read", tc.header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, tc.code, errorCode(t, resp))
		})
	}
}

func TestAuthMiddleware_UsuarioQueActua(t *testing.T) {
	app := guardedApp()
	resp := call(t, app, http.MethodPost, "/api/confirm", bearer(t, apphttp.RoleBodeguero))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, authUserID, body["user_id"])
	assert.Equal(t, authName, body["user_name"])
	assert.Equal(t, apphttp.RoleBodeguero, body["role"])
}
