package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/quizdeck/assessment-service/internal/utils"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	logger := utils.NewDefaultLogger()

	t.Run("set and get round-trip", func(t *testing.T) {
		_, client := newTestRedis(t)
		c := NewRedisCache(client, logger)

		type payload struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		}
		assert.NoError(t, c.Set(ctx, "test:key", payload{Name: "algebra", Count: 3}, time.Minute))

		var got payload
		assert.NoError(t, c.Get(ctx, "test:key", &got))
		assert.Equal(t, payload{Name: "algebra", Count: 3}, got)
	})

	t.Run("miss on absent key", func(t *testing.T) {
		_, client := newTestRedis(t)
		c := NewRedisCache(client, logger)

		var got string
		assert.ErrorIs(t, c.Get(ctx, "nope", &got), ErrCacheMiss)
	})

	t.Run("miss after expiry", func(t *testing.T) {
		mr, client := newTestRedis(t)
		c := NewRedisCache(client, logger)

		assert.NoError(t, c.Set(ctx, "short", "value", time.Second))
		mr.FastForward(2 * time.Second)

		var got string
		assert.ErrorIs(t, c.Get(ctx, "short", &got), ErrCacheMiss)
	})

	t.Run("delete pattern removes only matching keys", func(t *testing.T) {
		mr, client := newTestRedis(t)
		c := NewRedisCache(client, logger)

		assert.NoError(t, c.Set(ctx, "item_analysis:quiz:1:class:2", "a", time.Minute))
		assert.NoError(t, c.Set(ctx, "item_analysis:quiz:1:class:3", "b", time.Minute))
		assert.NoError(t, c.Set(ctx, "item_analysis:quiz:2:class:2", "c", time.Minute))

		assert.NoError(t, c.DeletePattern(ctx, "item_analysis:quiz:1:*"))

		assert.False(t, mr.Exists("item_analysis:quiz:1:class:2"))
		assert.False(t, mr.Exists("item_analysis:quiz:1:class:3"))
		assert.True(t, mr.Exists("item_analysis:quiz:2:class:2"))
	})
}
