package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"komal-desk/internal/models"
	"komal-desk/internal/remote"
	"komal-desk/internal/service"
	"komal-desk/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := models.SetBits([]string{"Bit 1", "Bit 2", "Bit 3", "Bit 4", "Bit 5", "Bit 6", "Bit 7", "Bit 8"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// komalServer is a small in-memory stand-in for the Komal REST API
type komalServer struct {
	mu        sync.Mutex
	orders    []models.Order
	retailers []models.Retailer
}

func (k *komalServer) router() *gin.Engine {
	r := gin.New()
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/orders", func(c *gin.Context) {
		k.mu.Lock()
		defer k.mu.Unlock()
		out := make([]models.Order, 0, len(k.orders))
		for _, o := range k.orders {
			if s := c.Query("status"); s != "" && string(o.Status) != s {
				continue
			}
			out = append(out, o)
		}
		c.JSON(http.StatusOK, out)
	})
	r.PATCH("/orders/:id/status", func(c *gin.Context) {
		var body struct {
			Status models.Status `json:"status"`
		}
		_ = c.ShouldBindJSON(&body)
		k.mu.Lock()
		defer k.mu.Unlock()
		for i := range k.orders {
			if k.orders[i].ID == c.Param("id") {
				k.orders[i].Status = body.Status
				c.JSON(http.StatusOK, k.orders[i])
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	})
	r.DELETE("/orders/:id", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database unavailable"})
	})
	r.GET("/products", func(c *gin.Context) { c.JSON(http.StatusOK, []models.Product{}) })
	r.GET("/brands", func(c *gin.Context) { c.JSON(http.StatusOK, []models.Brand{}) })
	r.GET("/retailers", func(c *gin.Context) {
		k.mu.Lock()
		defer k.mu.Unlock()
		c.JSON(http.StatusOK, k.retailers)
	})
	r.POST("/retailers", func(c *gin.Context) {
		var in remote.RetailerInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		k.mu.Lock()
		defer k.mu.Unlock()
		r := models.Retailer{ID: "r-new", Name: in.Name, Phone: in.Phone, Bit: in.Bit}
		k.retailers = append(k.retailers, r)
		c.JSON(http.StatusCreated, r)
	})
	return r
}

type testEnv struct {
	router *gin.Engine
	komal  *komalServer
}

func newTestEnv(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()
	komal := &komalServer{
		orders: []models.Order{
			{ID: "o1", CounterName: "Gupta General", Bit: "Bit 1", Status: models.OrderStatusPending, Date: models.Date{Year: 2024, Month: time.March, Day: 1}},
			{ID: "o2", CounterName: "Sharma Kirana", Bit: "Bit 2", Status: models.OrderStatusCompleted, Date: models.Date{Year: 2024, Month: time.March, Day: 2}},
		},
	}
	upstream := httptest.NewServer(komal.router())
	t.Cleanup(upstream.Close)

	client := remote.NewClient(upstream.URL, 5*time.Second)
	registry := session.NewRegistry(session.Deps{
		Backends: session.Backends{Orders: client, Products: client, Brands: client, Retailers: client},
		Options:  service.Options{SearchWait: 10 * time.Millisecond},
	})
	t.Cleanup(func() { registry.Stop(context.Background()) })

	router := gin.New()
	NewHandler(registry, client, nil, limiter, 5).SetupRoutes(router)
	return &testEnv{router: router, komal: komal}
}

func (e *testEnv) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) openSession(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, nil)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/ready", nil).Code)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestReadyReportsUnreachableStore(t *testing.T) {
	komal := &komalServer{}
	upstream := httptest.NewServer(komal.router())
	t.Cleanup(upstream.Close)
	client := remote.NewClient(upstream.URL, 5*time.Second)
	registry := session.NewRegistry(session.Deps{
		Backends: session.Backends{Orders: client, Products: client, Brands: client, Retailers: client},
	})
	t.Cleanup(func() { registry.Stop(context.Background()) })

	router := gin.New()
	NewHandler(registry, client, nil, nil, 5).
		WithDependency("postgres", stubPinger{}).
		WithDependency("redis", stubPinger{err: errors.New("connection refused")}).
		SetupRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp struct {
		Dependency string `json:"dependency"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "redis", resp.Dependency)
}

func TestUnknownSessionIs404(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/sessions/nope/orders", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found.", decodeError(t, w))
}

func TestOrderListAndFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.openSession(t)
	base := "/api/v1/sessions/" + sid + "/orders"

	var view service.View[models.Order, struct {
		Status string `json:"status"`
	}]
	w := env.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Items, 2)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, base+"/filters/open", nil).Code)
	w = env.do(http.MethodPut, base+"/filters/staged", gin.H{"status": "Completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Items, 2)
	assert.Equal(t, "Completed", view.Staged.Status)

	w = env.do(http.MethodPost, base+"/filters/apply", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view.Items = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Items, 1)
	assert.Equal(t, "o2", view.Items[0].ID)
	assert.Equal(t, "Completed", view.Committed.Status)

	w = env.do(http.MethodPost, base+"/filters/apply", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteOrderOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.openSession(t)
	base := "/api/v1/sessions/" + sid + "/orders/o1/complete"

	w := env.do(http.MethodPost, base, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, base, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRemoteFailureUsesUniformMessage(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.openSession(t)

	w := env.do(http.MethodDelete, "/api/v1/sessions/"+sid+"/orders/o1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Failed to delete order. Please try again.", decodeError(t, w))
}

func TestRetailerValidationIs400(t *testing.T) {
	env := newTestEnv(t, nil)
	sid := env.openSession(t)
	base := "/api/v1/sessions/" + sid + "/retailers"

	w := env.do(http.MethodPost, base, gin.H{"name": "Gupta", "phone": "123", "bit": "Bit 1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "phone")

	w = env.do(http.MethodPost, base, gin.H{"name": "Gupta", "phone": "98765 43210", "bit": "Bit 1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var r models.Retailer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	assert.Equal(t, "9876543210", r.Phone)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, NewRateLimiter(0.001, 1))

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodGet, "/health", nil).Code)
}
