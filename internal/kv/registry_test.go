package kv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	opened := false
	Register("test-registry", func(cfg Config) (Env, error) {
		opened = true
		assert.Equal(t, "/x", cfg.Path)
		return nil, nil
	})
	assert.Contains(t, Drivers(), "test-registry")

	_, err := Open("test-registry", Config{Path: "/x"})
	require.NoError(t, err)
	assert.True(t, opened)

	assert.Panics(t, func() {
		Register("test-registry", func(Config) (Env, error) { return nil, nil })
	})

	_, err = Open("missing", Config{})
	assert.True(t, errors.Is(err, ErrUnknownDriver))
}
