package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv("SHOP_TEST_PORT", " 8081 ")
	require.Equal(t, "8081", Get("SHOP_TEST_PORT", "8080"))

	t.Setenv("SHOP_TEST_PORT", "   ")
	require.Equal(t, "8080", Get("SHOP_TEST_PORT", "8080"))

	require.Equal(t, "json", Get("SHOP_TEST_UNSET_FORMAT", "json"))
}

func TestLookup(t *testing.T) {
	t.Setenv("SHOP_TEST_INSTANCE", "relay-2")
	value, ok := Lookup("SHOP_TEST_INSTANCE")
	require.True(t, ok)
	require.Equal(t, "relay-2", value)

	_, ok = Lookup("SHOP_TEST_UNSET_INSTANCE")
	require.False(t, ok)
}
