package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
)

func getWithCookie(a *testApp, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, nil)
	req.Header.Set("Accept", "text/html")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return a.do(req)
}

func TestBillingSetup_RedirectsToCheckout(t *testing.T) {
	a := newTestApp(t)
	a.createPlan(t, "startup", true)
	cookie := a.signUp(t, "hedgehog@posthog.com", "startup")

	// No session has been opened yet
	rec := getWithCookie(a, "/billing/setup", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	require.Equal(t, http.StatusOK, getCurrentUser(a, "GET", cookie).Code)

	a.provider.CheckoutURL = "https://checkout.stripe.com/c/pay/cs_1234567890"
	rec = getWithCookie(a, "/billing/setup", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1234567890", rec.Header().Get("Location"))
}

func TestBillingSetup_RequiresAuthentication(t *testing.T) {
	a := newTestApp(t)

	rec := getWithCookie(a, "/billing/setup", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBillingManage_RedirectsToPortal(t *testing.T) {
	a := newTestApp(t)
	a.createPlan(t, "startup", true)
	cookie := a.signUp(t, "hedgehog@posthog.com", "startup")
	require.Equal(t, http.StatusOK, getCurrentUser(a, "GET", cookie).Code)

	// No customer until checkout completes
	rec := getWithCookie(a, "/billing/manage", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Zero(t, a.provider.PortalSessionCalls)

	var event stripe.Event
	require.NoError(t, json.Unmarshal([]byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1234567890","customer":"cus_1"}}}`), &event))
	_, err := a.billing.ApplyWebhookEvent(context.Background(), event)
	require.NoError(t, err)

	a.provider.PortalURL = "https://billing.stripe.com/p/session/test_1"
	rec = getWithCookie(a, "/billing/manage", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://billing.stripe.com/p/session/test_1", rec.Header().Get("Location"))
	assert.Equal(t, 1, a.provider.PortalSessionCalls)
}

func TestBillingOutcomePages(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		path string
		want string
	}{
		{"/billing/welcome", "You're all set!"},
		{"/billing/failed", "Billing was not set up"},
		{"/billing/hosted", "Thanks for subscribing!"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := getWithCookie(a, tt.path, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Contains(t, rec.Body.String(), strconv.Itoa(time.Now().Year()))
		})
	}
}
