package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/model"
	"github.com/HOLYLABS972/esim-main-sub001/internal/domain/ports/repository"
)

// Ensure the adapter implements the port interface.
var _ repository.PendingOrderCache = (*PendingOrderCache)(nil)

// PendingOrderCache keeps the checkout-time order -> package mapping keyed by
// the synthetic order ID. Entries expire; the reconciler's fallback chain
// takes over once they do.
type PendingOrderCache struct {
	client *Client
	ttl    time.Duration
}

func NewPendingOrderCache(client *Client, ttl time.Duration) *PendingOrderCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PendingOrderCache{client: client, ttl: ttl}
}

func pendingKey(orderID string) string {
	return fmt.Sprintf("pending_order:%s", orderID)
}

func (c *PendingOrderCache) Put(ctx context.Context, p *model.PendingOrder) error {
	if p == nil || p.OrderID == "" {
		return domain.ErrInvalidArgument
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, pendingKey(p.OrderID), data, c.ttl)
}

func (c *PendingOrderCache) Get(ctx context.Context, orderID string) (*model.PendingOrder, error) {
	data, err := c.client.Get(ctx, pendingKey(orderID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var p model.PendingOrder
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *PendingOrderCache) Delete(ctx context.Context, orderID string) error {
	return c.client.Del(ctx, pendingKey(orderID))
}
