package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"komal-desk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second)
}

func TestListOrdersSendsFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "North", r.URL.Query().Get("bit"))
		assert.Equal(t, "Pending", r.URL.Query().Get("status"))
		assert.False(t, r.URL.Query().Has("search"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"o1","counterName":"Milk Point","date":"13/03/2024","status":"Pending","totalAmount":250}]`)
	})

	orders, err := c.ListOrders(context.Background(), OrderQuery{Bit: "North", Status: models.OrderStatusPending, Search: "  "})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.Date{Year: 2024, Month: time.March, Day: 13}, orders[0].Date)
}

func TestNonSuccessUsesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"Brand already exists"}`)
	})

	_, err := c.CreateBrand(context.Background(), &BrandInput{Name: "Parle"})
	require.Error(t, err)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindStatus, re.Kind)
	assert.Equal(t, http.StatusConflict, re.StatusCode)
	assert.Equal(t, "Brand already exists", re.Message)
}

func TestNonSuccessWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	err := c.DeleteRetailer(context.Background(), "r9")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "HTTP error! status: 404", re.Message)
}

func TestMalformedBodyIsDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"orders": [`)
	})

	_, err := c.ListOrders(context.Background(), OrderQuery{})
	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindDecode, re.Kind)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	err := c.Health(context.Background())

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, KindTransport, re.Kind)
}

func TestBulkDeleteSendsOneBatch(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/delete-old-completed", r.URL.Path)

		var body struct {
			OrderIDs []string `json:"orderIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b", "c"}, body.OrderIDs)
		_, _ = io.WriteString(w, `{"deletedCount":3}`)
	})

	res, err := c.DeleteOrders(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.DeletedCount)
	assert.Equal(t, 1, calls)
}

func TestReorderPayloads(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/products/order":
			assert.JSONEq(t, `{"productOrders":[{"productId":"p2","order":0},{"productId":"p1","order":1}]}`, string(raw))
		case "/brands/order":
			assert.JSONEq(t, `{"brandOrders":[{"brandId":"b1","order":0}]}`, string(raw))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.ReorderProducts(context.Background(), []ProductRank{{"p2", 0}, {"p1", 1}}))
	require.NoError(t, c.ReorderBrands(context.Background(), []BrandRank{{"b1", 0}}))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Failed to delete order. Please try again.", UserMessage("delete", "order"))
}
