package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/billing"
	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/db"
	"github.com/geocoder89/schedulehub/internal/domain/consumer"
	"github.com/geocoder89/schedulehub/internal/domain/entitlement"
	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	apphttp "github.com/geocoder89/schedulehub/internal/http"
	"github.com/geocoder89/schedulehub/internal/notifications"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/places"
	"github.com/geocoder89/schedulehub/internal/repo/postgres"
	"github.com/geocoder89/schedulehub/internal/stats"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

func testConfig(dsn string) config.Config {
	return config.Config{
		Env:                 "test",
		DBURL:               dsn,
		AdminEmail:          "admin@example.com",
		AdminPassword:       "admin-password",
		AdminName:           "Test Admin",
		JWTSecret:           "test-secret-key",
		JWTAccessTTLMinutes: 60,
		JWTRefreshTTLDays:   7,
		AppURL:              "http://app.test",
		AuthURL:             "http://api.test",
	}
}

// setupRouter needs a disposable database; set TEST_DB_DSN to run these tests.
func setupRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	resetDB(t, pool)

	cfg := testConfig(dsn)
	if err := db.EnsureAdminUser(ctx, pool, cfg); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	prom := observability.NewProm(prometheus.NewRegistry())

	users := postgres.NewUsersRepo(pool, prom)
	providers := postgres.NewProvidersRepo(pool, prom)
	consumers := postgres.NewConsumersRepo(pool, prom)
	settingsRepo := postgres.NewSettingsRepo(pool, prom)

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Config:       cfg,
		JWT:          auth.NewManager(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Prom:         prom,
		Users:        users,
		Sessions:     postgres.NewRefreshTokensRepo(pool, prom),
		Providers:    providers,
		Consumers:    consumers,
		Feedback:     postgres.NewFeedbackRepo(pool, prom),
		Enrollments:  postgres.NewEnrollmentRepo(pool, prom),
		Settings:     settingsRepo,
		Stats:        stats.NewAggregator(postgres.NewStatsRepo(pool, prom)),
		Entitlements: entitlement.NewService(settingsRepo, providers, consumers),
		Portal:       billing.NewService(providers, billing.NewStripePortal("", prom), cfg.AppURL),
		Places:       places.NewClient("", places.DefaultBaseURL, prom),
		Notifier:     notifications.NewLogNotifier(logger),
	})

	return router, pool
}

func resetDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE app_settings, enrollment_requests, feedback, exchanges, bookings,
			consumers, providers, refresh_tokens, users
		CASCADE
	`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
}

func doRequest(router http.Handler, method, path, token, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func extractRefreshCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == "refresh_token" {
			return c
		}
	}

	t.Fatalf("refresh_token cookie not found in response")

	return nil
}

func login(t *testing.T, router http.Handler, email, password string) string {
	t.Helper()

	w := doRequest(router, http.MethodPost, "/api/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got %d, body=%s", email, w.Code, w.Body.String())
	}

	var out struct {
		AccessToken string `json:"accessToken"`
	}
	mustReadJSON(t, w, &out)

	return out.AccessToken
}

func TestSignupVerifyAndRotate(t *testing.T) {
	router, pool := setupRouter(t)
	ctx := context.Background()

	w := doRequest(router, http.MethodPost, "/api/auth/signup", "", `{"email":"owner@example.com","password":"owner-password","name":"Ada","businessName":"Ada Tutoring"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: got %d, body=%s", w.Code, w.Body.String())
	}

	var token string
	if err := pool.QueryRow(ctx, `SELECT verification_token FROM users WHERE email = $1`, "owner@example.com").Scan(&token); err != nil {
		t.Fatalf("read token: %v", err)
	}

	w = doRequest(router, http.MethodGet, "/api/auth/verify-email/"+token, "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("verify: got %d, body=%s", w.Code, w.Body.String())
	}

	var (
		stored   *string
		expires  *time.Time
		verified bool
	)
	err := pool.QueryRow(ctx,
		`SELECT verification_token, verification_token_expires, email_verified FROM users WHERE email = $1`,
		"owner@example.com",
	).Scan(&stored, &expires, &verified)
	if err != nil {
		t.Fatalf("read user: %v", err)
	}
	if stored != nil || expires != nil || !verified {
		t.Fatalf("verification should null token and expiry, got token=%v expires=%v verified=%v", stored, expires, verified)
	}

	w = doRequest(router, http.MethodGet, "/api/auth/verify-email/"+token, "", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("replay: got %d, want 400", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/api/auth/login", "", `{"email":"owner@example.com","password":"owner-password"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login: got %d, body=%s", w.Code, w.Body.String())
	}
	first := extractRefreshCookie(t, w)

	w = doRequest(router, http.MethodPost, "/api/auth/refresh", "", "", first)
	if w.Code != http.StatusOK {
		t.Fatalf("refresh: got %d, body=%s", w.Code, w.Body.String())
	}
	second := extractRefreshCookie(t, w)

	w = doRequest(router, http.MethodPost, "/api/auth/refresh", "", "", first)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("reuse: got %d, want 401", w.Code)
	}

	w = doRequest(router, http.MethodPost, "/api/auth/refresh", "", "", second)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("after reuse every session is revoked, got %d", w.Code)
	}
}

func TestFeedbackStatusGuard(t *testing.T) {
	router, pool := setupRouter(t)
	ctx := context.Background()

	adminToken := login(t, router, "admin@example.com", "admin-password")

	w := doRequest(router, http.MethodPost, "/api/feedback", adminToken, `{"category":"bug","message":"slots overlap"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create feedback: got %d, body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID string `json:"id"`
	}
	mustReadJSON(t, w, &created)

	w = doRequest(router, http.MethodPut, "/api/admin/feedback/"+created.ID, adminToken, `{"status":"archived"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("archived: got %d, want 400", w.Code)
	}

	var status string
	if err := pool.QueryRow(ctx, `SELECT status FROM feedback WHERE id = $1`, created.ID).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != "open" {
		t.Fatalf("status changed to %q", status)
	}

	w = doRequest(router, http.MethodPut, "/api/admin/feedback/"+uuid.NewString(), adminToken, `{"status":"resolved"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: got %d, want 404", w.Code)
	}
}

func TestAdminStatsPartitionBookings(t *testing.T) {
	router, pool := setupRouter(t)
	ctx := context.Background()

	ownerID, providerID, consumerID := uuid.NewString(), uuid.NewString(), uuid.NewString()
	now := time.Now().UTC()

	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO users (id, email, password_hash, role, email_verified) VALUES ($1, 'p@example.com', 'x', $2, TRUE)`, []any{ownerID, user.RoleProvider}},
		{`INSERT INTO providers (id, user_id, business_name) VALUES ($1, $2, 'Biz')`, []any{providerID, ownerID}},
		{`INSERT INTO consumers (id, provider_id, name, email) VALUES ($1, $2, 'C', 'c@example.com')`, []any{consumerID, providerID}},
		{`INSERT INTO bookings (id, consumer_id, start_time, end_time) VALUES ($1, $2, $3, $4)`, []any{uuid.NewString(), consumerID, now.Add(-48 * time.Hour), now.Add(-47 * time.Hour)}},
		{`INSERT INTO bookings (id, consumer_id, start_time, end_time) VALUES ($1, $2, $3, $4)`, []any{uuid.NewString(), consumerID, now.Add(48 * time.Hour), now.Add(49 * time.Hour)}},
		{`INSERT INTO bookings (id, consumer_id, start_time, end_time) VALUES ($1, $2, $3, $4)`, []any{uuid.NewString(), consumerID, now.Add(72 * time.Hour), now.Add(73 * time.Hour)}},
		{`INSERT INTO exchanges (id, provider_id) VALUES ($1, $2)`, []any{uuid.NewString(), providerID}},
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s.q, s.args...); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	adminToken := login(t, router, "admin@example.com", "admin-password")

	w := doRequest(router, http.MethodGet, "/api/admin/stats", adminToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: got %d, body=%s", w.Code, w.Body.String())
	}

	var d stats.Dashboard
	mustReadJSON(t, w, &d)

	if d.Providers != 1 || d.Consumers != 1 || d.Exchanges != 1 {
		t.Fatalf("unexpected counts: %+v", d)
	}
	if d.ScheduledBookings != 2 || d.PastBookings != 1 {
		t.Fatalf("bookings not partitioned by start time: %+v", d)
	}
}

func TestConsumerCapHoldsUnderConcurrentCreates(t *testing.T) {
	_, pool := setupRouter(t)
	ctx := context.Background()

	ownerID, providerID := uuid.NewString(), uuid.NewString()
	if _, err := pool.Exec(ctx, `INSERT INTO users (id, email, password_hash, role, email_verified) VALUES ($1, 'cap@example.com', 'x', $2, TRUE)`, ownerID, user.RoleProvider); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO providers (id, user_id, business_name) VALUES ($1, $2, 'Biz')`, providerID, ownerID); err != nil {
		t.Fatalf("seed provider: %v", err)
	}

	repo := postgres.NewConsumersRepo(pool, nil)
	limit := 2
	results := make([]error, 8)

	var g errgroup.Group
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = repo.Create(ctx, consumer.CreateRequest{
				ProviderID: providerID, Name: "Bo", Email: "bo@example.com", ServiceType: "tutoring", BookingDuration: 30,
			}, &limit)
			return nil
		})
	}
	_ = g.Wait()

	created := 0
	for _, err := range results {
		switch {
		case err == nil:
			created++
		case errors.Is(err, consumer.ErrLimitReached):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if created != limit {
		t.Fatalf("created %d consumers, want %d", created, limit)
	}

	n, err := repo.CountForProvider(ctx, providerID)
	if err != nil || n != limit {
		t.Fatalf("count: %d %v", n, err)
	}

	_, err = repo.Create(ctx, consumer.CreateRequest{
		ProviderID: uuid.NewString(), Name: "Di", Email: "di@example.com", ServiceType: "tutoring", BookingDuration: 30,
	}, nil)
	if !errors.Is(err, provider.ErrNotFound) {
		t.Fatalf("expected provider.ErrNotFound for unknown provider, got %v", err)
	}
}
