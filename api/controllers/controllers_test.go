package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/smartcart/api/middleware"
	"github.com/angelmondragon/smartcart/internal/cart"
	"github.com/angelmondragon/smartcart/internal/checkout"
	"github.com/angelmondragon/smartcart/internal/session"
	"github.com/angelmondragon/smartcart/pkg/config"
	pkgerrors "github.com/angelmondragon/smartcart/pkg/errors"
)

const testSessionID = "5f0c1c1e-8f1a-4d55-9f3e-0e6c8c0c3b11"

type stubSessions struct {
	view      session.View
	applied   bool
	err       error
	productID string
	promoCode string
	ended     string
}

func (s *stubSessions) Start(ctx context.Context, accountID string) (session.View, error) {
	v := s.view
	v.AccountID = accountID
	return v, s.err
}

func (s *stubSessions) End(ctx context.Context, sessionID string) error {
	s.ended = sessionID
	return s.err
}

func (s *stubSessions) View(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) Checkout(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) AddToCart(ctx context.Context, sessionID, productID string) (session.View, error) {
	s.productID = productID
	return s.view, s.err
}

func (s *stubSessions) RemoveFromCart(ctx context.Context, sessionID, productID string) (session.View, error) {
	s.productID = productID
	return s.view, s.err
}

func (s *stubSessions) IncrementQuantity(ctx context.Context, sessionID, productID string) (session.View, error) {
	s.productID = productID
	return s.view, s.err
}

func (s *stubSessions) DecrementQuantity(ctx context.Context, sessionID, productID string) (session.View, error) {
	s.productID = productID
	return s.view, s.err
}

func (s *stubSessions) ClearCart(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) ApplyPromo(ctx context.Context, sessionID, code string) (session.View, bool, error) {
	s.promoCode = code
	return s.view, s.applied, s.err
}

func (s *stubSessions) RemovePromo(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) ApplyLoyaltyPoints(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) ResetLoyaltyPoints(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func (s *stubSessions) ProceedToCheckout(ctx context.Context, sessionID string) (session.View, error) {
	return s.view, s.err
}

func sampleView() session.View {
	discount := 6990
	entries := []cart.Entry{
		{Product: cart.Product{ID: "p-buds-pro", Name: "Wireless Earbuds Pro", Price: 8500, DiscountPrice: &discount}, Quantity: 2},
		{Product: cart.Product{ID: "p-usb-c-cable", Name: "USB-C Cable", Price: 990}, Quantity: 1},
	}
	total := 2*6990 + 990
	return session.View{
		SessionID: testSessionID,
		Entries:   entries,
		Totals:    cart.Totals{CartTotal: total, ItemsCount: 3, PointsToEarn: cart.PointsFor(total)},
		Summary:   checkout.Calculate(checkout.Input{CartTotal: total}),
	}
}

func scoped(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithSessionID(req.Context(), testSessionID))
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return envelope.Error.Code
}

func TestCartGetRendersAggregates(t *testing.T) {
	handler := CartGet(&stubSessions{view: sampleView()}, nil)

	req := scoped(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/cart", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body cartResponse
	decodeData(t, resp, &body)
	if body.CartTotal != 14970 || body.ItemsCount != 3 || body.PointsToEarn != 149 {
		t.Fatalf("unexpected aggregates %+v", body)
	}
	if len(body.Items) != 2 || body.Items[0].LineTotal != 13980 || body.Items[0].Product.EffectivePrice != 6990 {
		t.Fatalf("unexpected items %+v", body.Items)
	}
}

func TestCartCommandWithoutSessionScope(t *testing.T) {
	handler := CartGet(&stubSessions{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/cart", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddItemTrimsProductID(t *testing.T) {
	svc := &stubSessions{view: sampleView()}
	handler := CartAddItem(svc, nil)

	req := scoped(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/cart/items", strings.NewReader(`{"product_id":"  p-usb-c-cable "}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.productID != "p-usb-c-cable" {
		t.Fatalf("unexpected product id %q", svc.productID)
	}
}

func TestCartAddItemValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing body", body: ""},
		{name: "missing product id", body: `{}`},
		{name: "unknown field", body: `{"product_id":"a","qty":2}`},
		{name: "malformed json", body: `{"product_id":`},
	}

	for _, tt := range tests {
		handler := CartAddItem(&stubSessions{}, nil)
		req := scoped(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/cart/items", strings.NewReader(tt.body)))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", tt.name, resp.Code)
		}
		if code := decodeErrorCode(t, resp); code != string(pkgerrors.CodeValidation) {
			t.Fatalf("%s: unexpected code %s", tt.name, code)
		}
	}
}

func TestCartCommandPropagatesNotFound(t *testing.T) {
	handler := CartIncrementItem(&stubSessions{err: pkgerrors.New(pkgerrors.CodeNotFound, "session not found")}, nil)

	req := scoped(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/cart/items/a/increment", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCheckoutApplyPromoUnknownCode(t *testing.T) {
	svc := &stubSessions{view: sampleView(), applied: false}
	handler := CheckoutApplyPromo(svc, nil)

	req := scoped(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/checkout/promo", strings.NewReader(`{"code":"SMART20"}`)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body applyPromoResponse
	decodeData(t, resp, &body)
	if body.Applied {
		t.Fatalf("expected applied=false")
	}
	if svc.promoCode != "SMART20" {
		t.Fatalf("code not forwarded, got %q", svc.promoCode)
	}
	if body.Checkout.FreeDeliveryThreshold != checkout.FreeDeliveryThreshold {
		t.Fatalf("unexpected threshold %d", body.Checkout.FreeDeliveryThreshold)
	}
}

func TestCheckoutProceedDependencyFailure(t *testing.T) {
	svc := &stubSessions{err: pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("broker down"), "publish checkout event")}
	handler := CheckoutProceed(svc, nil)

	req := scoped(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/x/checkout/proceed", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCheckoutGetRendersLoyalty(t *testing.T) {
	view := sampleView()
	available := 500
	view.AvailablePoints = &available
	view.Loyalty = checkout.LoyaltyState{AvailablePoints: 500, PointsUsed: 500}
	view.LoyaltyAxis = checkout.LoyaltyAxisApplied
	handler := CheckoutGet(&stubSessions{view: view}, nil)

	req := scoped(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/x/checkout", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var body checkoutResponse
	decodeData(t, resp, &body)
	if body.Loyalty.AvailablePoints == nil || *body.Loyalty.AvailablePoints != 500 || body.Loyalty.PointsUsed != 500 || body.LoyaltyState != checkout.LoyaltyAxisApplied {
		t.Fatalf("unexpected loyalty %+v / %s", body.Loyalty, body.LoyaltyState)
	}
}

func TestSessionStartWithoutBody(t *testing.T) {
	handler := SessionStart(&stubSessions{view: session.View{SessionID: testSessionID}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	var body sessionResponse
	decodeData(t, resp, &body)
	if body.SessionID != testSessionID || body.Cart.Items == nil {
		t.Fatalf("unexpected session response %+v", body)
	}
}

func TestSessionStartForwardsAccount(t *testing.T) {
	handler := SessionStart(&stubSessions{view: session.View{SessionID: testSessionID}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(`{"account_id":" acct-7 "}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var body sessionResponse
	decodeData(t, resp, &body)
	if body.AccountID != "acct-7" {
		t.Fatalf("unexpected account %q", body.AccountID)
	}
}

func TestSessionEnd(t *testing.T) {
	svc := &stubSessions{}
	handler := SessionEnd(svc, nil)

	req := scoped(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/x", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}
	if svc.ended != testSessionID {
		t.Fatalf("unexpected ended session %q", svc.ended)
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"database": stubPinger{}, "redis": nil}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get(envHeader) != "test" {
		t.Fatalf("missing env header")
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, map[string]Pinger{"redis": stubPinger{err: errors.New("refused")}}).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

type stubLister struct {
	products []cart.Product
	err      error
}

func (s stubLister) List(ctx context.Context) ([]cart.Product, error) {
	return s.products, s.err
}

func TestProductsList(t *testing.T) {
	discount := 3990
	lister := stubLister{products: []cart.Product{
		{ID: "p-fast-charger", Name: "25W Fast Charger", Price: 4500, DiscountPrice: &discount},
		{ID: "p-usb-c-cable", Name: "USB-C Cable", Price: 990},
	}}

	resp := httptest.NewRecorder()
	ProductsList(lister, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	var body []productResponse
	decodeData(t, resp, &body)
	if len(body) != 2 || body[0].EffectivePrice != 3990 || body[1].EffectivePrice != 990 || body[1].DiscountPrice != nil {
		t.Fatalf("unexpected products %+v", body)
	}

	resp = httptest.NewRecorder()
	ProductsList(stubLister{err: pkgerrors.New(pkgerrors.CodeDependency, "db down")}, nil).
		ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}
