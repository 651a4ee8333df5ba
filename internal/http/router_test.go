package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/schedulehub/internal/auth"
	"github.com/geocoder89/schedulehub/internal/billing"
	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/domain/entitlement"
	"github.com/geocoder89/schedulehub/internal/domain/feedback"
	"github.com/geocoder89/schedulehub/internal/domain/user"
	httpx "github.com/geocoder89/schedulehub/internal/http"
	"github.com/geocoder89/schedulehub/internal/notifications"
	"github.com/geocoder89/schedulehub/internal/observability"
	"github.com/geocoder89/schedulehub/internal/places"
	"github.com/geocoder89/schedulehub/internal/repo/memory"
	"github.com/geocoder89/schedulehub/internal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	store   *memory.Store
	jwt     *auth.Manager
	handler http.Handler

	admin    user.User
	provider user.User
	consumer user.User
}

func newApp(t *testing.T) *app {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	jwtManager := auth.NewManager("router-test-secret", time.Minute, time.Hour)

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	a := &app{store: store, jwt: jwtManager}
	a.admin = store.AddUser(user.User{Email: "admin@example.com", Role: user.RoleAdmin, EmailVerified: true})
	a.provider = store.AddUser(user.User{Email: "owner@example.com", Role: user.RoleProvider, EmailVerified: true})
	store.AddProvider(a.provider.ID, "Ada Tutoring")
	a.consumer = store.AddUser(user.User{Email: "client@example.com", Role: user.RoleConsumer, EmailVerified: true})

	a.handler = httpx.NewRouter(log, httpx.Deps{
		Config:       config.Config{Env: "test", AppURL: "http://app.test", AuthURL: "http://api.test"},
		JWT:          jwtManager,
		Prom:         prom,
		Gatherer:     reg,
		Users:        store.Users(),
		Sessions:     store.Sessions(),
		Providers:    store.Providers(),
		Consumers:    store.Consumers(),
		Feedback:     store.Feedback(),
		Enrollments:  store.Enrollments(),
		Settings:     store.Settings(),
		Stats:        stats.NewAggregator(store.Stats()),
		Entitlements: entitlement.NewService(store.Settings(), store.Providers(), store.Consumers()),
		Portal:       billing.NewService(store.Providers(), billing.NewStripePortal("", prom), "http://app.test"),
		Places:       places.NewClient("", places.DefaultBaseURL, prom),
		Notifier:     notifications.NewLogNotifier(log),
	})

	return a
}

func (a *app) token(t *testing.T, u user.User) string {
	t.Helper()
	raw, err := a.jwt.GenerateAccessToken(u.ID, u.Email, u.Role)
	require.NoError(t, err)
	return raw
}

func (a *app) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	a := newApp(t)

	f := a.store.AddFeedback(feedback.Feedback{UserID: a.consumer.ID, Category: "bug", Message: "broken", Status: feedback.StatusOpen})

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/admin/stats", ""},
		{http.MethodGet, "/api/admin/providers", ""},
		{http.MethodGet, "/api/admin/consumers", ""},
		{http.MethodGet, "/api/admin/feedback", ""},
		{http.MethodPut, "/api/admin/feedback/" + f.ID, `{"status":"resolved"}`},
		{http.MethodGet, "/api/admin/settings", ""},
		{http.MethodPut, "/api/admin/settings", `{"paymentsEnabled":true}`},
	}

	callers := map[string]string{
		"anonymous": "",
		"garbage":   "not-a-jwt",
		"provider":  a.token(t, a.provider),
		"consumer":  a.token(t, a.consumer),
	}

	for name, token := range callers {
		for _, rt := range routes {
			w := a.do(rt.method, rt.path, token, rt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s as %s", rt.method, rt.path, name)
		}
	}

	// nothing changed behind the gate
	got, err := a.store.Feedback().GetByID(context.Background(), f.ID)
	require.NoError(t, err)
	assert.Equal(t, feedback.StatusOpen, got.Status)

	s, err := a.store.Settings().Get(context.Background())
	require.NoError(t, err)
	assert.False(t, s.PaymentsEnabled)
}

func TestAdminRoleComesFromDatabase(t *testing.T) {
	a := newApp(t)

	// a token claiming ADMIN for a provider account must not pass the gate
	forged, err := a.jwt.GenerateAccessToken(a.provider.ID, a.provider.Email, user.RoleAdmin)
	require.NoError(t, err)

	w := a.do(http.MethodGet, "/api/admin/stats", forged, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFeedbackModerationEndToEnd(t *testing.T) {
	a := newApp(t)
	adminToken := a.token(t, a.admin)

	w := a.do(http.MethodPost, "/api/feedback", a.token(t, a.consumer), `{"category":"feature","message":"dark mode please"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created feedback.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = a.do(http.MethodPut, "/api/admin/feedback/"+created.ID, adminToken, `{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	got, err := a.store.Feedback().GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, feedback.StatusOpen, got.Status)

	w = a.do(http.MethodPut, "/api/admin/feedback/"+created.ID, adminToken, `{"status":"resolved","adminResponse":"shipped"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated feedback.Feedback
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, feedback.StatusResolved, updated.Status)
	assert.Equal(t, "client@example.com", updated.UserEmail)

	w = a.do(http.MethodGet, "/api/admin/feedback?status=resolved", adminToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)
}

func TestExpiredVerificationLink(t *testing.T) {
	a := newApp(t)

	u := a.store.AddUser(user.User{Email: "late@example.com", Role: user.RoleProvider})
	a.store.SetVerification(u.ID, user.Verification{Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)})

	w := a.do(http.MethodGet, "/api/auth/verify-email/stale", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error     string `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid or expired verification link", body.Error)
	assert.NotEmpty(t, body.RequestID)
}

func TestPublicSettingsHidePricingWhenPaymentsOff(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodGet, "/api/settings/public", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"paymentsEnabled":false}`, w.Body.String())

	w = a.do(http.MethodPut, "/api/admin/settings", a.token(t, a.admin), `{"paymentsEnabled":true,"monthlyPriceCents":2500}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodGet, "/api/settings/public", "", "")
	assert.JSONEq(t, `{"paymentsEnabled":true,"monthlyPriceCents":2500,"currency":"usd","freeConsumerLimit":5}`, w.Body.String())
}

func TestProviderRoutes(t *testing.T) {
	a := newApp(t)

	orphan := a.store.AddUser(user.User{Email: "orphan@example.com", Role: user.RoleProvider, EmailVerified: true})

	w := a.do(http.MethodGet, "/api/provider/consumers", a.token(t, orphan), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no_profile")

	w = a.do(http.MethodGet, "/api/provider/consumers", a.token(t, a.consumer), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodGet, "/api/subscription/status", a.token(t, a.provider), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"paymentsEnabled":false,"unrestricted":true,"hasBillingAccount":false,"consumerCount":0,"canAddConsumer":true}`, w.Body.String())

	// no stripe customer yet
	w = a.do(http.MethodPost, "/api/stripe/portal", a.token(t, a.provider), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFreePlanLimitOnConsumers(t *testing.T) {
	a := newApp(t)
	adminToken := a.token(t, a.admin)
	providerToken := a.token(t, a.provider)

	w := a.do(http.MethodPut, "/api/admin/settings", adminToken, `{"paymentsEnabled":true,"freeConsumerLimit":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := `{"name":"Bo Li","email":"bo@example.com","serviceType":"tutoring","bookingDuration":45}`

	w = a.do(http.MethodPost, "/api/provider/consumers", providerToken, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/provider/consumers", providerToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "plan_limit_reached")
}

func TestPlacesWithoutKey(t *testing.T) {
	a := newApp(t)

	w := a.do(http.MethodGet, "/api/places/autocomplete?input=main", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "not_configured")

	w = a.do(http.MethodGet, "/api/places/autocomplete", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/readyz", "", "").Code)

	w := a.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "schedulehub_http_requests_total")
}
