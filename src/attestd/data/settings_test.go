package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	s := FromRows([]Setting{
		{Name: "frontend_url", Value: "https://mint.example"},
		{Name: "port", Value: ""},
	})
	assert.Equal(t, "https://mint.example", s.Get("frontend_url"))
	assert.Equal(t, "", s.Get("port"))
	_, ok := s["port"]
	assert.False(t, ok)
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis("not a url")
	require.Error(t, err)

	rdb, err := NewRedis("redis://localhost:6379/0")
	require.NoError(t, err)
	assert.NoError(t, rdb.Close())
}
