package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/schedulehub/internal/domain/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPortalNotConfigured(t *testing.T) {
	_, err := NewStripePortal("", nil).OpenPortal(context.Background(), "cus_1", "http://x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestOpenPortalReturnsSessionURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
		assert.Equal(t, "http://app/dashboard/billing", r.PostForm.Get("return_url"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.example/s/1"}`))
	}))
	defer srv.Close()

	url, err := newStripePortal("sk_test_1", srv.URL, nil).OpenPortal(context.Background(), "cus_1", "http://app/dashboard/billing")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example/s/1", url)
}

func TestOpenPortalStripeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such customer"}}`))
	}))
	defer srv.Close()

	_, err := newStripePortal("sk_test_1", srv.URL, nil).OpenPortal(context.Background(), "cus_missing", "http://app")
	assert.ErrorIs(t, err, ErrUpstream)
}

type fakeBilling struct {
	b   provider.Billing
	err error
}

func (f fakeBilling) GetBilling(ctx context.Context, providerID string) (provider.Billing, error) {
	return f.b, f.err
}

type fakePortal struct {
	gotCustomer, gotReturn string
}

func (f *fakePortal) OpenPortal(ctx context.Context, customerID, returnURL string) (string, error) {
	f.gotCustomer, f.gotReturn = customerID, returnURL
	return "https://portal", nil
}

func TestServicePortalURL(t *testing.T) {
	cus := "cus_9"
	portal := &fakePortal{}
	svc := NewService(fakeBilling{b: provider.Billing{StripeCustomerID: &cus}}, portal, "https://app.example/")

	url, err := svc.PortalURL(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "https://portal", url)
	assert.Equal(t, "cus_9", portal.gotCustomer)
	assert.Equal(t, "https://app.example/dashboard/billing", portal.gotReturn)
}

func TestServiceNoCustomer(t *testing.T) {
	portal := &fakePortal{}
	svc := NewService(fakeBilling{}, portal, "https://app.example")

	_, err := svc.PortalURL(context.Background(), "p1")
	assert.True(t, errors.Is(err, provider.ErrNoBillingCustomer))
	assert.Empty(t, portal.gotCustomer)
}
