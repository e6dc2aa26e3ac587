package till

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithdrawTokenDeterministic(t *testing.T) {
	a := WithdrawToken("secret", "till-1", 1)
	b := WithdrawToken("secret", "till-1", 1)
	require.Equal(t, a, b)
	require.Len(t, a, 22)
}

func TestWithdrawTokenChangesWithTicker(t *testing.T) {
	a := WithdrawToken("secret", "till-1", 1)
	b := WithdrawToken("secret", "till-1", 2)
	require.NotEqual(t, a, b)
}

func TestWithdrawTokenChangesWithTill(t *testing.T) {
	a := WithdrawToken("secret", "till-1", 1)
	b := WithdrawToken("secret", "till-2", 1)
	require.NotEqual(t, a, b)
}

func TestWithdrawTokenChangesWithSecret(t *testing.T) {
	a := WithdrawToken("secret-a", "till-1", 1)
	b := WithdrawToken("secret-b", "till-1", 1)
	require.NotEqual(t, a, b)
}

func TestWithdrawTokenIsURLSafe(t *testing.T) {
	token := WithdrawToken("secret", "till-1", 42)
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	for _, r := range token {
		require.True(t, strings.ContainsRune(alphabet, r), "unexpected rune %q", r)
	}
}
