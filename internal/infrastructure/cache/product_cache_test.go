package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/cache"
	"github.com/jhoicas/Inventario-lotes/internal/infrastructure/memory"
)

func seedProduct(t *testing.T, store *memory.Store) *entity.Product {
	t.Helper()
	p := &entity.Product{ID: uuid.Must(uuid.NewV7()).String(), SKU: "AMOX-500", Name: "Amoxicilina", Price: decimal.NewFromInt(2500), TracksExpiry: true}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

func TestProductCache_SinRedisVaDirectoAlRepositorio(t *testing.T) {
	store := memory.New()
	p := seedProduct(t, store)
	c := cache.NewProductCache(store.Products(), cache.NewRedisClient("", "", 0), time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	got, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AMOX-500", got.SKU)

	missing, err := c.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductCache_RedisLecturaEInvalidacion(t *testing.T) {
	if testing.Short() {
		t.Skip("requiere Docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	store := memory.New()
	p := seedProduct(t, store)
	client := cache.NewRedisClient(addr, "", 0)
	t.Cleanup(func() { _ = client.Close() })
	c := cache.NewProductCache(store.Products(), client, time.Minute, nil)
	require.NoError(t, c.Ping(ctx))

	first, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Cambio directo en la base: la cache sigue sirviendo el valor anterior
	require.NoError(t, store.Products().UpdateCost(ctx, p.ID, decimal.NewFromInt(999)))
	cached, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, cached.Cost.IsZero())

	// A través de la cache se invalida
	require.NoError(t, c.UpdateCost(ctx, p.ID, decimal.NewFromInt(1200)))
	fresh, err := c.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, fresh.Cost.Equal(decimal.NewFromInt(1200)))
}
