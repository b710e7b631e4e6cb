package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
	"github.com/jhoicas/Inventario-lotes/internal/domain/repository"
	"github.com/jhoicas/Inventario-lotes/pkg/logger"
)

var _ repository.ProductRepository = (*ProductCache)(nil)

const keyPrefix = "inventario:product:"

// ProductCache lectura a través de Redis para las consultas de catálogo por ID.
// Solo se usa fuera de transacción; dentro de la tx el motor lee siempre de la base.
// Con client nil todas las llamadas van directo al repositorio.
type ProductCache struct {
	inner  repository.ProductRepository
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisClient crea el cliente; addr vacío = sin cache.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewProductCache envuelve el repositorio de productos.
func NewProductCache(inner repository.ProductRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *ProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ProductCache{inner: inner, client: client, ttl: ttl, log: log}
}

// Ping verifica la conexión con Redis.
func (c *ProductCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *ProductCache) Create(ctx context.Context, p *entity.Product) error {
	return c.inner.Create(ctx, p)
}

// GetByID busca en Redis y, si no está, en el repositorio; guarda solo productos existentes.
// Un Redis caído no rompe la lectura: se registra y se consulta la base.
func (c *ProductCache) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	if c.client == nil {
		return c.inner.GetByID(ctx, id)
	}
	key := keyPrefix + id
	val, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p entity.Product
		if jerr := json.Unmarshal(val, &p); jerr == nil {
			return &p, nil
		}
		c.log.Warn().Str("key", key).Msg("entrada de cache corrupta")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("redis no disponible, leyendo de la base")
	}

	p, err := c.inner.GetByID(ctx, id)
	if err != nil || p == nil {
		return p, err
	}
	if payload, jerr := json.Marshal(p); jerr == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn().Err(serr).Str("key", key).Msg("no se pudo guardar en cache")
		}
	}
	return p, nil
}

func (c *ProductCache) GetBySKU(ctx context.Context, sku string) (*entity.Product, error) {
	return c.inner.GetBySKU(ctx, sku)
}

// UpdateCost actualiza en la base e invalida la entrada.
func (c *ProductCache) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	if err := c.inner.UpdateCost(ctx, productID, cost); err != nil {
		return err
	}
	c.Invalidate(ctx, productID)
	return nil
}

// Invalidate borra la entrada de un producto (p. ej. después de recibir un lote, que cambia el costo).
func (c *ProductCache) Invalidate(ctx context.Context, productID string) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+productID).Err(); err != nil {
		c.log.Warn().Err(err).Str("product_id", productID).Msg("no se pudo invalidar cache")
	}
}
