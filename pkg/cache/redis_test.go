package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "p3m:schemes:active", Key("schemes", " ", "active"))
	assert.Equal(t, "p3m", Key())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "cache:6380", Addr(config.RedisConfig{Host: "cache", Port: 6380}))
}
