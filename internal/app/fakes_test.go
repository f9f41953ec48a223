package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"willvault/api/internal/authpw"
	"willvault/api/internal/config"
	"willvault/api/internal/email"
	"willvault/api/internal/export"
	"willvault/api/internal/persist"
	"willvault/api/internal/store"
	"willvault/api/internal/will"
	"willvault/api/internal/wizard"
)

// fakeUsers is an in-memory account store.
type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]store.User
	revoked map[string]time.Time
	refresh map[string]string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: map[string]store.User{},
		revoked: map[string]time.Time{},
		refresh: map[string]string{},
	}
}

func (f *fakeUsers) CreateUser(_ context.Context, user store.User) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[user.Email]; ok {
		return store.User{}, store.ErrEmailTaken
	}
	user.ID = "user-" + strings.Split(user.Email, "@")[0]
	f.byEmail[user.Email] = user
	return user, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, userID string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == userID {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeUsers) RevokeAccessToken(_ context.Context, jti string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[jti] = exp
	return nil
}

func (f *fakeUsers) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[jti]
	return ok, nil
}

func (f *fakeUsers) SaveRefreshSession(_ context.Context, tokenHash, userID string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh[tokenHash] = userID
	return nil
}

func (f *fakeUsers) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	f.mu.Lock()
	userID, ok := f.refresh[tokenHash]
	f.mu.Unlock()
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return f.GetUserByID(ctx, userID)
}

func (f *fakeUsers) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.refresh, tokenHash)
	return nil
}

// fakeExporter renders real HTML previews and canned PDFs.
type fakeExporter struct {
	html   *export.Service
	pdfErr error

	mu       sync.Mutex
	pdfCalls int
}

func (f *fakeExporter) Preview(doc will.Document) (*export.Result, error) {
	return f.html.Preview(doc)
}

func (f *fakeExporter) PDF(_ context.Context, doc will.Document, _ string) (*export.Result, error) {
	f.mu.Lock()
	f.pdfCalls++
	f.mu.Unlock()
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return &export.Result{Data: []byte("%PDF-1.4"), Filename: "will.pdf", MimeType: "application/pdf"}, nil
}

type sentReceipt struct {
	to   string
	data email.ReceiptData
	pdf  []byte
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentReceipt
}

func (f *fakeMailer) IsConfigured() bool { return true }

func (f *fakeMailer) SendReceipt(to string, data email.ReceiptData, pdf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentReceipt{to: to, data: data, pdf: pdf})
	return nil
}

type testEnv struct {
	server    *HTTPServer
	service   *Service
	users     *fakeUsers
	local     *persist.MemorySnapshots
	documents *persist.MemoryDocuments
	exporter  *fakeExporter
	mailer    *fakeMailer
	registry  *wizard.Registry
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	users := newFakeUsers()
	local := persist.NewMemorySnapshots()
	documents := persist.NewMemoryDocuments()
	logger := zap.NewNop()
	registry := wizard.NewRegistry(wizard.Deps{
		Persister:     persist.NewGateway(nil, local, documents, logger),
		Logger:        logger,
		SaveTimeout:   time.Second,
		DebounceDelay: 10 * time.Millisecond,
	})
	t.Cleanup(func() { registry.CloseAll(context.Background()) })

	env := &testEnv{
		users:     users,
		local:     local,
		documents: documents,
		exporter:  &fakeExporter{html: export.NewService(nil, logger)},
		mailer:    &fakeMailer{},
		registry:  registry,
	}
	deps := Deps{
		Config: config.Config{
			JWTSecret:  "test-secret-0123456789",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		Users:    users,
		Refresh:  users,
		Accounts: authpw.NewService(users).WithCost(bcrypt.MinCost),
		Wizards:  registry,
		Exporter: env.exporter,
		Mailer:   env.mailer,
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.service = New(deps)
	env.server = NewHTTPServer(env.service, "*", logger)
	return env
}

// do sends a JSON request and decodes a JSON response into a map.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)

	var payload map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, payload
}

func (e *testEnv) signUp(t *testing.T, emailAddr string) map[string]any {
	t.Helper()
	rr, payload := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":       emailAddr,
		"password":    "password123",
		"displayName": "Jane Doe",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	return payload
}

func (e *testEnv) openSession(t *testing.T, token string) string {
	t.Helper()
	rr, payload := e.do(t, http.MethodPost, "/api/wizard/sessions", token, map[string]any{})
	if rr.Code != http.StatusOK {
		t.Fatalf("open session: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	id, _ := payload["sessionId"].(string)
	if id == "" {
		t.Fatalf("expected sessionId in %v", payload)
	}
	return id
}
