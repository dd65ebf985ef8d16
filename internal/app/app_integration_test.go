//go:build integration

package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go/modules/compose"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xenking/florist-storefront/internal/storage/postgres"
)

var (
	databaseURL string
	redisURL    string
)

func TestMain(m *testing.M) {
	os.Exit(testMain(m))
}

func testMain(m *testing.M) int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dc, err := tc.NewDockerCompose("../../docker-compose.test.yml")
	if err != nil {
		log.Fatalf("compose init: %v", err)
	}
	defer func() {
		if err := dc.Down(context.Background(), tc.RemoveOrphans(true), tc.RemoveVolumes(true)); err != nil {
			log.Printf("compose down: %v", err)
		}
	}()

	err = dc.
		WaitForService("postgres", wait.ForListeningPort("5432/tcp").WithStartupTimeout(time.Minute)).
		WaitForService("redis", wait.ForListeningPort("6379/tcp").WithStartupTimeout(time.Minute)).
		Up(ctx, tc.Wait(true))
	if err != nil {
		log.Printf("compose up: %v", err)
		return 1
	}

	endpoint := func(service, port string) (string, error) {
		c, err := dc.ServiceContainer(ctx, service)
		if err != nil {
			return "", err
		}
		host, err := c.Host(ctx)
		if err != nil {
			return "", err
		}
		mapped, err := c.MappedPort(ctx, port)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", host, mapped.Port()), nil
	}

	pg, err := endpoint("postgres", "5432/tcp")
	if err != nil {
		log.Printf("postgres endpoint: %v", err)
		return 1
	}
	rd, err := endpoint("redis", "6379/tcp")
	if err != nil {
		log.Printf("redis endpoint: %v", err)
		return 1
	}
	databaseURL = "postgres://storefront:storefront@" + pg + "/storefront?sslmode=disable"
	redisURL = "redis://" + rd + "/0"

	return m.Run()
}

func integrationConfig(t *testing.T) *Config {
	t.Helper()
	cfg := testConfig(newFakeCatalog(t).URL)
	cfg.DatabaseURL = databaseURL
	cfg.RedisURL = redisURL
	return cfg
}

func TestIntegration_ReadinessChecks(t *testing.T) {
	s := startStack(t, integrationConfig(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.health.Run(ctx, 50*time.Millisecond) }()

	require.Eventually(t, s.health.IsReady, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "").StatusCode)
}

func TestIntegration_CartSurvivesRestart(t *testing.T) {
	cfg := integrationConfig(t)

	first := startStack(t, cfg, nil, nil)
	first.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	first.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	first.do(t, http.MethodPost, "/api/favorites/2/toggle", "")

	// A second process over the same databases sees the same session.
	second := startStack(t, cfg, nil, nil)
	second.client = first.client

	resp := second.do(t, http.MethodGet, "/api/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	c := decodeJSON[cartResponse](t, resp)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)

	resp = second.do(t, http.MethodGet, "/api/favorites", "")
	assert.Equal(t, 1, decodeJSON[favoritesResponse](t, resp).Count)
}

func TestIntegration_ClearedCartStaysEmpty(t *testing.T) {
	cfg := integrationConfig(t)

	first := startStack(t, cfg, nil, nil)
	first.do(t, http.MethodPost, "/api/cart/items", `{"productId":"1"}`)
	first.do(t, http.MethodDelete, "/api/cart", "")

	second := startStack(t, cfg, nil, nil)
	second.client = first.client

	resp := second.do(t, http.MethodGet, "/api/cart", "")
	assert.Equal(t, 0, decodeJSON[cartResponse](t, resp).ItemCount)
}

func TestIntegration_CheckoutPersistsOrder(t *testing.T) {
	s := startStack(t, integrationConfig(t), nil, nil)

	s.do(t, http.MethodPost, "/api/cart/items", `{"productId":"2"}`)
	resp := s.do(t, http.MethodPost, "/api/checkout", checkoutBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	o := decodeJSON[orderResponse](t, resp)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, databaseURL)
	require.NoError(t, err)
	defer pool.Close()

	var (
		method string
		city   string
	)
	err = pool.QueryRow(ctx,
		`SELECT payment_method, shipping->>'city' FROM orders WHERE id = $1`, o.ID,
	).Scan(&method, &city)
	require.NoError(t, err)
	assert.Equal(t, "mtn", method)
	assert.Equal(t, "Kigali", city)
}
