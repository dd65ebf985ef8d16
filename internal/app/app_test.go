package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/florist-storefront/pkg/health"
)

// Response types decoded by the end-to-end tests.

type cartResponse struct {
	Items []struct {
		Product struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"product"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	ItemCount      int     `json:"itemCount"`
	Total          float64 `json:"total"`
	FormattedTotal string  `json:"formattedTotal"`
}

type favoritesResponse struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
	Count int `json:"count"`
}

type orderResponse struct {
	ID             string  `json:"id"`
	Total          float64 `json:"total"`
	ConvertedTotal float64 `json:"convertedTotal"`
	FormattedTotal string  `json:"formattedTotal"`
	PaymentMethod  string  `json:"paymentMethod"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newFakeCatalog serves two flowers from the catalog API.
func newFakeCatalog(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"1","name":"Red Rose","price":12.5,"image":"/img/rose.jpg","category":"FLOWERS","inStock":true}}`))
		case "2":
			_, _ = w.Write([]byte(`{"success":true,"data":{"id":"2","name":"Tulip","price":10,"image":"/img/tulip.jpg","category":"FLOWERS","inStock":true}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"Product not found"}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(catalogURL string) *Config {
	return &Config{
		Addr:       defaultAddr,
		CatalogURL: catalogURL,
		Locale:     "en",
		Catalog:    CatalogConfig{Timeout: 5 * time.Second},
		Persistence: PersistenceConfig{
			CartMaxAge:      4320 * time.Hour,
			FavoritesMaxAge: 8760 * time.Hour,
		},
		Session: SessionConfig{
			Cookie:        "sid",
			CookieMaxAge:  time.Hour,
			IdleTTL:       time.Minute,
			SweepInterval: time.Minute,
			MaxSessions:   1000,
		},
		CORS: CORSConfig{Origins: []string{"*"}, AllowCredentials: true},
	}
}

// testStack is a running storefront over the given config.
type testStack struct {
	url     string
	client  *http.Client
	srv     *server
	health  *health.Health
	backend *backends
}

func startStack(t *testing.T, cfg *Config, b *backends, mp *sdkmetric.MeterProvider) *testStack {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	lg := zaptest.NewLogger(t)
	hc := health.New()
	if b == nil {
		var err error
		b, err = openBackends(ctx, lg, cfg, hc)
		require.NoError(t, err)
		t.Cleanup(b.Close)
	}
	if mp == nil {
		mp = sdkmetric.NewMeterProvider()
	}

	srv, err := newServer(ctx, lg, cfg, b, hc, noop.NewTracerProvider(), mp)
	require.NoError(t, err)
	hc.SetReady(true)

	ts := httptest.NewServer(srv.handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testStack{
		url:     ts.URL,
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		srv:     srv,
		health:  hc,
		backend: b,
	}
}

func (s *testStack) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequestWithContext(context.Background(), method, s.url+path, nil)
	} else {
		req, err = http.NewRequestWithContext(context.Background(), method, s.url+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	resp, err := s.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

const checkoutBody = `{
	"customer": {"firstName": "Aline", "lastName": "Uwase", "email": "aline@example.com", "phone": "+250788000000"},
	"shipping": {"street": "KG 11 Ave", "city": "Kigali", "province": "Kigali City"},
	"paymentMethod": "mtn"
}`

func TestStack_CartCheckoutFlow(t *testing.T) {
	cfg := testConfig(newFakeCatalog(t).URL)
	s := startStack(t, cfg, nil, nil)

	resp := s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies(), "session cookie is issued on first visit")

	s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"2"}`)

	resp = s.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeJSON[cartResponse](t, resp)
	assert.Equal(t, 3, c.ItemCount)
	assert.Equal(t, 35.0, c.Total)
	assert.Equal(t, "RWF45,500", c.FormattedTotal)
	require.Len(t, c.Items, 2)
	assert.Equal(t, "Red Rose", c.Items[0].Product.Name)

	resp = s.do(t, http.MethodPost, "/api/checkout", checkoutBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decodeJSON[orderResponse](t, resp)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 45500.0, o.ConvertedTotal)
	assert.Equal(t, "mtn", o.PaymentMethod)

	resp = s.do(t, http.MethodGet, "/api/cart", "")
	assert.Equal(t, 0, decodeJSON[cartResponse](t, resp).ItemCount)

	resp = s.do(t, http.MethodPost, "/api/checkout", checkoutBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "cart is empty", decodeJSON[errorResponse](t, resp).Message)
}

func TestStack_SessionsAreIsolated(t *testing.T) {
	s := startStack(t, testConfig(newFakeCatalog(t).URL), nil, nil)
	s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)

	other := &http.Client{Timeout: 10 * time.Second}
	resp, err := other.Get(s.url + "/api/cart")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, 0, decodeJSON[cartResponse](t, resp).ItemCount)
	assert.Equal(t, 2, s.srv.sessions.Len())
}

func TestStack_RestoresAfterEviction(t *testing.T) {
	s := startStack(t, testConfig(newFakeCatalog(t).URL), nil, nil)

	s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"2"}`)
	s.do(t, http.MethodPost, "/api/favorites/1/toggle", "")
	require.Equal(t, 1, s.srv.sessions.Sweep(time.Now().Add(time.Hour)))

	resp := s.do(t, http.MethodGet, "/api/cart", "")
	assert.Equal(t, 1, decodeJSON[cartResponse](t, resp).ItemCount)

	resp = s.do(t, http.MethodGet, "/api/favorites", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	favs := decodeJSON[favoritesResponse](t, resp)
	require.Len(t, favs.Items, 1)
	assert.Equal(t, "1", favs.Items[0].ID)
}

func TestStack_UnknownProduct(t *testing.T) {
	s := startStack(t, testConfig(newFakeCatalog(t).URL), nil, nil)

	resp := s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"404"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	e := decodeJSON[errorResponse](t, resp)
	assert.Equal(t, http.StatusNotFound, e.Code)
	assert.Equal(t, "product not found", e.Message)
}

func TestStack_Probes(t *testing.T) {
	s := startStack(t, testConfig(newFakeCatalog(t).URL), nil, nil)

	resp := s.do(t, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	s.health.SetReady(false)
	resp = s.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStack_RateLimit(t *testing.T) {
	cfg := testConfig(newFakeCatalog(t).URL)
	cfg.RateLimit = RateLimitConfig{Max: 2, Window: time.Minute}
	s := startStack(t, cfg, nil, nil)

	// Prime the session cookie with a read, which is not limited.
	s.do(t, http.MethodGet, "/api/session", "")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`).StatusCode)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`).StatusCode)

	resp := s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/cart", "").StatusCode)
}

func TestStack_RateLimitWithoutCookies(t *testing.T) {
	cfg := testConfig(newFakeCatalog(t).URL)
	cfg.RateLimit = RateLimitConfig{Max: 2, Window: time.Minute}
	s := startStack(t, cfg, nil, nil)
	s.client.Jar = nil

	codes := make([]int, 0, 5)
	for range 5 {
		codes = append(codes, s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`).StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)
	assert.Equal(t, 2, s.srv.sessions.Len(), "limited requests do not create sessions")
}

func TestStack_SessionCountAffectsReadinessOnly(t *testing.T) {
	cfg := testConfig(newFakeCatalog(t).URL)
	cfg.Session.MaxSessions = 1
	s := startStack(t, cfg, nil, nil)
	s.client.Jar = nil

	for range 2 {
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/cart", "").StatusCode)
	}
	require.Equal(t, 2, s.srv.sessions.Len())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = s.health.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return s.do(t, http.MethodGet, "/readyz", "").StatusCode == http.StatusServiceUnavailable
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", "").StatusCode)
}

func TestStack_RecordsHydrationMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	s := startStack(t, testConfig(newFakeCatalog(t).URL), nil, mp)

	s.do(t, http.MethodGet, "/api/cart", "")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var hydrations int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "storefront.persist.hydrations" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				hydrations += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), hydrations, "one hydration per collection")
}
