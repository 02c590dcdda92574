package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scmkit/hgcred/internal/config"
)

func TestNewSelectsBackend(t *testing.T) {
	t.Run("none is the null store", func(t *testing.T) {
		st, err := New(&config.Config{Backend: "none"})
		require.NoError(t, err)
		assert.IsType(t, NullStore{}, st)
	})

	t.Run("helper wraps the configured command", func(t *testing.T) {
		st, err := New(&config.Config{Backend: "helper:credstore --db /tmp/db"})
		require.NoError(t, err)

		hs, ok := st.(*HelperStore)
		require.True(t, ok)
		assert.Equal(t, "credstore --db /tmp/db", hs.command)
		assert.Equal(t, DefaultHelperTimeout, hs.timeout)
	})

	t.Run("helper timeout comes from config", func(t *testing.T) {
		st, err := New(&config.Config{Backend: "helper:credstore", HelperTimeout: 3})
		require.NoError(t, err)

		hs, ok := st.(*HelperStore)
		require.True(t, ok)
		assert.Equal(t, 3*time.Second, hs.timeout)
	})

	t.Run("unknown backend fails fast", func(t *testing.T) {
		_, err := New(&config.Config{Backend: "bogus"})
		assert.Error(t, err)
	})
}
