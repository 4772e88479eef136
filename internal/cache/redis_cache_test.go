package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorseWayne/admin_panel/internal/config"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestRedisCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "admin:")

	mock.ExpectGet("admin:category:1").SetVal(`{"id":1,"name":"Books"}`)

	var got item
	require.NoError(t, c.Get(context.Background(), "category:1", &got))
	assert.Equal(t, item{ID: 1, Name: "Books"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "")

	mock.ExpectGet("missing").RedisNil()

	var got item
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "")

	mock.ExpectGet("k").SetErr(errors.New("connection reset"))

	err := c.Get(context.Background(), "k", &item{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestRedisCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "admin:")

	mock.ExpectSet("admin:category:2", []byte(`{"id":2,"name":"Toys"}`), time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "category:2", item{ID: 2, Name: "Toys"}, time.Minute))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCache_Del(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "admin:")

	mock.ExpectDel("admin:a", "admin:b").SetVal(2)

	require.NoError(t, c.Del(context.Background(), "a", "b"))
	require.NoError(t, c.Del(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Enabled: false}, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &NullCache{}, c)

	c, err = New(config.CacheConfig{Enabled: true, Type: "memory"}, nil, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = New(config.CacheConfig{Enabled: true, Type: "redis"}, nil, "")
	assert.Error(t, err)

	db, _ := redismock.NewClientMock()
	c, err = New(config.CacheConfig{Enabled: true, Type: "redis"}, db, "")
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)

	_, err = New(config.CacheConfig{Enabled: true, Type: "memcached"}, nil, "")
	assert.Error(t, err)
}
