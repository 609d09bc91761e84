package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apihttp "github.com/artem13815/library/api/http"
	"github.com/artem13815/library/api/http/handlers"
	"github.com/artem13815/library/pkg/auth"
	"github.com/artem13815/library/pkg/catalog"
	"github.com/artem13815/library/pkg/health"
	"github.com/artem13815/library/pkg/lending"
	"github.com/artem13815/library/pkg/repository/memory"
	"github.com/artem13815/library/pkg/security/jwt"
)

const secret = "router-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := memory.NewDB()
	users := memory.NewUserRepository(db)
	books := memory.NewBookRepository(db)
	loans := memory.NewLoanRepository(db)

	authUC := auth.NewAuthService(users, jwt.NewGenerator(secret, "test"), auth.NewPasswordHasher(bcrypt.MinCost), 15*time.Minute, nil)
	gate := auth.NewGate(jwt.NewVerifier(secret, "test"), users, auth.PolicyAnyOf)
	catalogUC := catalog.NewService(books, nil)

	app := fiber.New()
	apihttp.Register(app, apihttp.Handlers{
		Auth:      handlers.NewAuthHandler(authUC),
		Health:    handlers.NewHealthHandler(health.NewService()),
		BookAdmin: handlers.NewBookAdminHandler(catalogUC),
		BookUser:  handlers.NewBookUserHandler(catalogUC, lending.NewEngine(books, loans)),
	}, gate)
	return app
}

type client struct {
	t   *testing.T
	app *fiber.App
}

func (c client) do(method, path, token string, body any) (int, map[string]any, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func (c client) register(email string, roles ...string) {
	c.t.Helper()
	status, body, _ := c.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Test", "email": email, "password": "password123", "role": roles,
	})
	require.Equal(c.t, http.StatusCreated, status)
	assert.Equal(c.t, "success", body["status"])
}

// login uses the password form, the way OAuth2 clients send it.
func (c client) login(email string) string {
	c.t.Helper()
	form := url.Values{"username": {email}, "password": {"password123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&tok))
	assert.Equal(c.t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func TestLibraryFlow(t *testing.T) {
	c := client{t: t, app: newTestApp(t)}

	status, body, _ := c.do(http.MethodGet, "/api/v1/status", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["message"])

	c.register("admin@example.com", "admin")
	c.register("reader@example.com")
	c.register("other@example.com")
	admin := c.login("admin@example.com")
	reader := c.login("reader@example.com")
	other := c.login("other@example.com")

	status, _, _ = c.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{"email": "reader@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, status)

	status, body, _ = c.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "reader@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect Email or Password", body["message"])

	// catalog maintenance is admin only
	newBooks := []map[string]any{
		{"isbn": "111", "title": "Dune", "author": "Herbert", "published_year": 1965, "quantity": 1},
		{"isbn": "222", "title": "Dune Messiah", "author": "Herbert", "published_year": 1969, "quantity": 2},
	}
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/admin/add", reader, newBooks)
	assert.Equal(t, http.StatusForbidden, status)
	status, body, _ = c.do(http.MethodPost, "/api/v1/book/admin/add", admin, newBooks)
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 2, body["added_books"])
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/admin/add", admin, newBooks)
	assert.Equal(t, http.StatusConflict, status)
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/admin/create", admin, newBooks[0])
	assert.Equal(t, http.StatusConflict, status)

	// browsing
	status, _, raw := c.do(http.MethodGet, "/api/v1/book/user/all?page=1&page_size=1", reader, nil)
	require.Equal(t, http.StatusOK, status)
	var page []catalog.Book
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page, 1)
	assert.Equal(t, "111", page[0].ISBN)

	status, _, raw = c.do(http.MethodGet, "/api/v1/book/user/search?query=Herbert", reader, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Len(t, page, 2)

	// borrow, conflicts, return
	status, body, _ = c.do(http.MethodPost, "/api/v1/book/user/borrow", reader, map[string]string{"isbn": "111"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "reader@example.com", body["user_id"])
	assert.Equal(t, "111", body["book_id"])

	status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/borrow", reader, map[string]string{"isbn": "111"})
	assert.Equal(t, http.StatusConflict, status)
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/borrow", other, map[string]string{"isbn": "111"})
	assert.Equal(t, http.StatusNotFound, status)
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/borrow", reader, map[string]string{"isbn": ""})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, raw = c.do(http.MethodGet, "/api/v1/book/user/personalize", reader, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Len(t, page, 2)

	status, body, _ = c.do(http.MethodPost, "/api/v1/book/user/return", reader, map[string]string{"isbn": "111"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Returned book id: 111", body["message"])
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/return", reader, map[string]string{"isbn": "111"})
	assert.Equal(t, http.StatusConflict, status)

	// admin update and delete
	status, _, _ = c.do(http.MethodPut, "/api/v1/book/admin/update", admin, map[string]any{"isbn": "111", "title": "Dune", "author": "Herbert", "quantity": 9})
	assert.Equal(t, http.StatusOK, status)
	status, _, _ = c.do(http.MethodPut, "/api/v1/book/admin/update", admin, map[string]any{"isbn": "999", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, status)
	status, body, _ = c.do(http.MethodDelete, "/api/v1/book/admin/delete", admin, map[string]any{"author": "Herbert"})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, body["deleted"])
	status, _, _ = c.do(http.MethodDelete, "/api/v1/book/admin/delete", admin, map[string]any{"isbn": "111"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := client{t: t, app: newTestApp(t)}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/book/user/personalize", nil)
	resp, err := c.app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	status, _, _ := c.do(http.MethodPost, "/api/v1/book/user/borrow", "garbage", map[string]string{"isbn": "111"})
	assert.Equal(t, http.StatusUnauthorized, status)

	// a valid token for a user that was never stored
	token, err := jwt.NewGenerator(secret, "test").Issue("ghost@example.com", time.Minute)
	require.NoError(t, err)
	status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/return", token, map[string]string{"isbn": "111"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBrowsingIsPublic(t *testing.T) {
	c := client{t: t, app: newTestApp(t)}
	c.register("admin@example.com", "admin")
	admin := c.login("admin@example.com")
	status, _, _ := c.do(http.MethodPost, "/api/v1/book/admin/create", admin, map[string]any{"isbn": "111", "title": "Dune", "author": "Herbert", "quantity": 1})
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name string
		path string
	}{
		{"all", "/api/v1/book/user/all"},
		{"search", "/api/v1/book/user/search?query=Dune"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := client{t: t, app: c.app}
			status, _, raw := c.do(http.MethodGet, tt.path, "", nil)
			require.Equal(t, http.StatusOK, status)
			var page []catalog.Book
			require.NoError(t, json.Unmarshal(raw, &page))
			require.Len(t, page, 1)
			assert.Equal(t, "111", page[0].ISBN)
		})
	}
}

func TestLoanLimitOverHTTP(t *testing.T) {
	c := client{t: t, app: newTestApp(t)}
	c.register("admin@example.com", "admin")
	c.register("reader@example.com")
	admin, reader := c.login("admin@example.com"), c.login("reader@example.com")

	var seed []map[string]any
	for _, isbn := range []string{"1", "2", "3", "4"} {
		seed = append(seed, map[string]any{"isbn": isbn, "title": "T" + isbn, "author": "A", "quantity": 1})
	}
	status, _, _ := c.do(http.MethodPost, "/api/v1/book/admin/add", admin, seed)
	require.Equal(t, http.StatusCreated, status)

	for _, isbn := range []string{"1", "2", "3"} {
		status, _, _ = c.do(http.MethodPost, "/api/v1/book/user/borrow", reader, map[string]string{"isbn": isbn})
		require.Equal(t, http.StatusCreated, status)
	}
	status, body, _ := c.do(http.MethodPost, "/api/v1/book/user/borrow", reader, map[string]string{"isbn": "4"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "You have reached your maximum issue limit", body["message"])
}

func TestHealthRoutes(t *testing.T) {
	c := client{t: t, app: newTestApp(t)}
	status, body, _ := c.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	status, body, _ = c.do(http.MethodGet, "/api/v1/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}
