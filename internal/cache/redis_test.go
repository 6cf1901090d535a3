package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	args := m.Called(ctx, key, field)
	cmd := redis.NewStringCmd(ctx)
	if err := args.Error(1); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(args.String(0))
	}
	return cmd
}

func (m *MockRedisClient) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	args := m.Called(ctx, key, values)
	cmd := redis.NewIntCmd(ctx)
	if err := args.Error(0); err != nil {
		cmd.SetErr(err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (m *MockRedisClient) HLen(ctx context.Context, key string) *redis.IntCmd {
	args := m.Called(ctx, key)
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(int64(args.Int(0)))
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	key := "https://www.domeggook.com/1"
	product := sampleProduct(key)

	t.Run("miss", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("HGet", ctx, DefaultRedisHash, key).Return("", redis.Nil)

		_, err := NewRedisCache(client, "").Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss)
		client.AssertExpectations(t)
	})

	t.Run("hit", func(t *testing.T) {
		data, err := json.Marshal(product)
		require.NoError(t, err)

		client := new(MockRedisClient)
		client.On("HGet", ctx, DefaultRedisHash, key).Return(string(data), nil)

		got, err := NewRedisCache(client, "").Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, product, got)
	})

	t.Run("connection error is not a miss", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("HGet", ctx, DefaultRedisHash, key).Return("", errors.New("connection refused"))

		_, err := NewRedisCache(client, "").Get(ctx, key)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrCacheMiss)
	})

	t.Run("set encodes product as one hash field", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("HSet", ctx, "custom:hash", mock.MatchedBy(func(values []interface{}) bool {
			if len(values) != 2 || values[0] != key {
				return false
			}
			data, ok := values[1].([]byte)
			if !ok {
				return false
			}
			var decoded struct {
				SourceURL        string `json:"sourceUrl"`
				ImageUsageStatus string `json:"imageUsageStatus"`
			}
			return json.Unmarshal(data, &decoded) == nil &&
				decoded.SourceURL == key &&
				decoded.ImageUsageStatus == "available"
		})).Return(nil)

		require.NoError(t, NewRedisCache(client, "custom:hash").Set(ctx, key, product))
		client.AssertExpectations(t)
	})

	t.Run("len and close", func(t *testing.T) {
		client := new(MockRedisClient)
		client.On("HLen", ctx, DefaultRedisHash).Return(3)
		client.On("Close").Return(nil)

		c := NewRedisCache(client, "")
		n, err := c.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.NoError(t, c.Close())
	})
}
