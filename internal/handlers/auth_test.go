package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/teampulse/teampulse/internal/auth"
	"github.com/teampulse/teampulse/internal/googleauth"
	"github.com/teampulse/teampulse/internal/users"
)

const testSecret = "handler-test-secret"

// memoryStore is an in-memory users.Store with the same uniqueness
// semantics as the Postgres implementation.
type memoryStore struct {
	users  map[string]users.User
	nextID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: map[string]users.User{}}
}

func (m *memoryStore) Create(_ context.Context, params users.CreateParams) (users.User, error) {
	email := users.NormalizeEmail(params.Email)
	for _, u := range m.users {
		if u.Email == email {
			return users.User{}, users.ErrEmailTaken
		}
	}
	m.nextID++
	user := users.User{
		ID:           "u-" + strconv.Itoa(m.nextID),
		Name:         params.Name,
		Email:        email,
		Phone:        params.Phone,
		GoogleID:     params.GoogleID,
		Subscription: params.Subscription,
		PasswordHash: params.PasswordHash,
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryStore) GetByEmail(_ context.Context, email string) (users.User, error) {
	for _, u := range m.users {
		if u.Email == users.NormalizeEmail(email) {
			return u, nil
		}
	}
	return users.User{}, users.ErrUserNotFound
}

func (m *memoryStore) GetByID(_ context.Context, id string) (users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (m *memoryStore) LinkGoogleID(_ context.Context, id, googleID string) (users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	u.GoogleID = googleID
	m.users[id] = u
	return u, nil
}

// fakeFederation scripts the Google bridge.
type fakeFederation struct {
	tokens      googleauth.Tokens
	exchangeErr error
	identity    googleauth.Identity
	verifyErr   error
}

func (f *fakeFederation) ExchangeCode(context.Context, string) (googleauth.Tokens, error) {
	return f.tokens, f.exchangeErr
}

func (f *fakeFederation) VerifyIdentity(context.Context, string) (googleauth.Identity, error) {
	return f.identity, f.verifyErr
}

func newAuthEcho(store users.Store, federation Federation) *echo.Echo {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(log, users.NewService(log, store), federation, testSecret, time.Hour)
	e := echo.New()
	h.Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const registerBody = `{"name":"Ada","email":"ada@example.com","password":"engine123","phoneNo":"555-0100"}`

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})

	rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("success = false")
	}
	if resp.User.Email != "ada@example.com" || resp.User.Subscription != users.SubscriptionNone {
		t.Errorf("user = %+v", resp.User)
	}
	if subject, err := auth.ParseToken(resp.Token, testSecret); err != nil || subject != resp.User.ID {
		t.Errorf("token subject = %q err = %v, want %q", subject, err, resp.User.ID)
	}
	userJSON, err := json.Marshal(resp.User)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(userJSON), "password") || strings.Contains(string(userJSON), "hash") {
		t.Error("user payload must not leak password material")
	}
}

func TestRegisterEndpointValidation(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})
	rec := doJSON(e, http.MethodPost, "/auth/register", `{"email":"ada@example.com"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterEndpointDuplicate(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})
	if rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("second register status = %d, want 409", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})
	if rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	rec := doJSON(e, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"engine123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(e, http.MethodPost, "/auth/login", `{"email":"ada@example.com","password":"wrong"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}

	rec = doJSON(e, http.MethodPost, "/auth/login", `{"email":"ada@example.com"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d, want 400", rec.Code)
	}
}

func TestGoogleLoginEndpoint(t *testing.T) {
	t.Parallel()
	federation := &fakeFederation{
		tokens:   googleauth.Tokens{AccessToken: "goog-access", IDToken: "goog-id"},
		identity: googleauth.Identity{Subject: "goog-sub", Email: "ada@example.com", Name: "Ada"},
	}
	e := newAuthEcho(newMemoryStore(), federation)

	rec := doJSON(e, http.MethodPost, "/auth/google", `{"code":"auth-code"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp GoogleSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.GoogleToken != "goog-access" {
		t.Errorf("googleToken = %q, want the provider access token forwarded", resp.GoogleToken)
	}
	if subject, err := auth.ParseToken(resp.Token, testSecret); err != nil || subject != resp.User.ID {
		t.Errorf("local token subject = %q err = %v", subject, err)
	}
}

func TestGoogleLoginRequiresCode(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})
	rec := doJSON(e, http.MethodPost, "/auth/google", `{}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGoogleLoginExchangeFailure(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{exchangeErr: googleauth.ErrFederation})
	rec := doJSON(e, http.MethodPost, "/auth/google", `{"code":"auth-code"}`, "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestGoogleLoginLinkConsent(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	federation := &fakeFederation{
		tokens:   googleauth.Tokens{AccessToken: "goog-access", IDToken: "goog-id"},
		identity: googleauth.Identity{Subject: "goog-sub", Email: "ada@example.com", Name: "Ada"},
	}
	e := newAuthEcho(store, federation)
	if rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, ""); rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	// Email collision without consent: conflict, no silent takeover.
	rec := doJSON(e, http.MethodPost, "/auth/google", `{"code":"auth-code"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (body %s)", rec.Code, rec.Body.String())
	}

	// Explicit consent links and signs in.
	rec = doJSON(e, http.MethodPost, "/auth/google", `{"code":"auth-code","link_existing":true}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestMeEndpoint(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	e := newAuthEcho(store, &fakeFederation{})
	rec := doJSON(e, http.MethodPost, "/auth/register", registerBody, "")
	if rec.Code != http.StatusCreated {
		t.Fatal("register failed")
	}
	var session SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(e, http.MethodGet, "/auth/me", "", session.Token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var first UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatal(err)
	}

	// Same token, no intervening mutation: identical view.
	rec = doJSON(e, http.MethodGet, "/auth/me", "", session.Token)
	var second UserResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("whoami not idempotent: %+v vs %+v", first, second)
	}
}

func TestMeEndpointFailures(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	e := newAuthEcho(store, &fakeFederation{})

	if rec := doJSON(e, http.MethodGet, "/auth/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}
	if rec := doJSON(e, http.MethodGet, "/auth/me", "", "garbage.token.value"); rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token status = %d, want 401", rec.Code)
	}

	// Valid token whose subject no longer resolves to a user.
	orphan, _, err := auth.GenerateToken("u-404", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if rec := doJSON(e, http.MethodGet, "/auth/me", "", orphan); rec.Code != http.StatusNotFound {
		t.Errorf("deleted user status = %d, want 404", rec.Code)
	}
}

func TestErrorBodyShape(t *testing.T) {
	t.Parallel()
	e := newAuthEcho(newMemoryStore(), &fakeFederation{})
	rec := doJSON(e, http.MethodPost, "/auth/register", `{}`, "")

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Success {
		t.Error("success must be false on errors")
	}
	if body.Message == "" {
		t.Error("message must be populated")
	}
	if strings.Contains(strings.ToLower(body.Message), "bcrypt") {
		t.Error("error message leaks hashing internals")
	}
}
