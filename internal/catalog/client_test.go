package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/florist-storefront/internal/domain/product"
)

const searchBody = `{
	"success": true,
	"data": [
		{"id": "1", "name": "Red Rose", "price": 12.5, "image": "/images/rose.jpg", "category": "FLOWERS", "inStock": true},
		{"id": 2, "name": "Tomato", "price": 3, "image": "https://cdn.example.com/tomato.jpg", "category": "SEEDLINGS"},
		"garbage"
	],
	"pagination": {"page": 2, "pageSize": 2, "total": 5, "totalPages": 3}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAbsoluteURL(t *testing.T) {
	for _, u := range []string{"", "localhost:5000", "/api", "://bad"} {
		_, err := New(u)
		assert.Error(t, err, u)
	}
}

func TestSearch(t *testing.T) {
	var query url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products", r.URL.Path)
		query = r.URL.Query()
		_, _ = w.Write([]byte(searchBody))
	})

	inStock := true
	res, err := c.Search(context.Background(), product.Query{
		Search:   "rose",
		Category: product.CategoryFlowers,
		InStock:  &inStock,
		Page:     2,
		PageSize: 2,
		SortBy:   "price",
	})
	require.NoError(t, err)

	assert.Equal(t, "rose", query.Get("search"))
	assert.Equal(t, "FLOWERS", query.Get("category"))
	assert.Equal(t, "true", query.Get("inStock"))
	assert.Equal(t, "2", query.Get("page"))
	assert.Equal(t, "2", query.Get("pageSize"))
	assert.Equal(t, "price", query.Get("sortBy"))
	assert.False(t, query.Has("featured"))
	assert.False(t, query.Has("sortOrder"))

	require.Len(t, res.Products, 2)
	assert.Equal(t, "1", res.Products[0].ID)
	assert.Equal(t, product.CategoryFlowers, res.Products[0].Category)
	assert.Equal(t, c.baseURL+"/images/rose.jpg", res.Products[0].Image)
	assert.Equal(t, "2", res.Products[1].ID)
	assert.Equal(t, "https://cdn.example.com/tomato.jpg", res.Products[1].Image)
	assert.Equal(t, product.Pagination{Page: 2, PageSize: 2, Total: 5, TotalPages: 3}, res.Pagination)
}

func TestSearch_NoParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"success": true, "data": null}`))
	})

	res, err := c.Search(context.Background(), product.Query{})
	require.NoError(t, err)
	assert.NotNil(t, res.Products)
	assert.Empty(t, res.Products)
}

func TestSearch_Unsuccessful(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": false, "message": "database offline"}`))
	})

	_, err := c.Search(context.Background(), product.Query{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database offline")
}

func TestSearch_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "message": "boom"}`))
	})

	_, err := c.Search(context.Background(), product.Query{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "boom", se.Message)
}

func TestSearch_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})

	_, err := c.Search(context.Background(), product.Query{})
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/categories", r.URL.Path)
		_, _ = w.Write([]byte(`{"success": true, "data": [{"category": "FLOWERS", "count": 12}, {"category": "SEEDLINGS", "count": 4}]}`))
	})

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []product.CategoryCount{
		{Category: product.CategoryFlowers, Count: 12},
		{Category: product.CategorySeedlings, Count: 4},
	}, cats)
}

func TestGetByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/products/1":
			_, _ = w.Write([]byte(`{"success": true, "data": {"id": "1", "name": "Red Rose", "price": 12.5, "image": "images/rose.jpg"}}`))
		case "/api/v1/products/empty":
			_, _ = w.Write([]byte(`{"success": true, "data": null}`))
		case "/api/v1/products/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success": false, "message": "Product not found"}`))
		}
	})
	ctx := context.Background()

	p, err := c.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Red Rose", p.Name)
	assert.True(t, p.HasPrice())
	assert.Equal(t, c.baseURL+"/images/rose.jpg", p.Image)

	_, err = c.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = c.GetByID(ctx, "empty")
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = c.GetByID(ctx, "broken")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.NotErrorIs(t, err, product.ErrNotFound)
}

func TestGetByID_EscapesPath(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetByID(context.Background(), "a/b")
	assert.ErrorIs(t, err, product.ErrNotFound)
	assert.Equal(t, "/api/v1/products/a%2Fb", got)
}
