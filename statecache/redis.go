// Package statecache mirrors manager snapshots into Redis so co-located
// dashboards can read factory state without an MQTT session. The mirror is
// a cache, not a store: it is rebuilt from the broker's retained messages on
// every startup and never read back into the managers.
package statecache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ccu"

type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(name string) string {
	return fmt.Sprintf("%s:%s", keyPrefix, name)
}

func (s *Store) set(ctx context.Context, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key(name), data, 0).Err()
}

func (s *Store) SetModules(ctx context.Context, v any) error {
	return s.set(ctx, "modules", v)
}

func (s *Store) SetSensors(ctx context.Context, v any) error {
	return s.set(ctx, "sensors", v)
}

func (s *Store) SetStock(ctx context.Context, v any) error {
	return s.set(ctx, "stock", v)
}

func (s *Store) SetActiveOrders(ctx context.Context, v any) error {
	return s.set(ctx, "orders:active", v)
}

func (s *Store) SetCompletedOrders(ctx context.Context, v any) error {
	return s.set(ctx, "orders:completed", v)
}

// Flush drops every mirrored key. Called at startup before the retained
// message replay repopulates the mirror.
func (s *Store) Flush(ctx context.Context) error {
	keys := []string{
		key("modules"),
		key("sensors"),
		key("stock"),
		key("orders:active"),
		key("orders:completed"),
	}
	return s.client.Del(ctx, keys...).Err()
}
