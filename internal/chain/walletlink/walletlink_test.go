package walletlink

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	a1 = common.HexToAddress("0xa1")
	a2 = common.HexToAddress("0xa2")
)

func TestFromConfig_KeepsOrderAndDropsDuplicates(t *testing.T) {
	r, err := FromConfig(map[string][]string{
		"u1": {a2.Hex(), a1.Hex(), a2.Hex()},
	})
	require.NoError(t, err)

	got, err := r.LinkedWallets(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []common.Address{a2, a1}, got)

	none, err := r.LinkedWallets(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestFromConfig_RejectsMalformedAddress(t *testing.T) {
	_, err := FromConfig(map[string][]string{"u1": {"0xnope"}})
	require.ErrorContains(t, err, "wallets.u1")
}

func TestLinkUnlink(t *testing.T) {
	r, err := FromConfig(nil)
	require.NoError(t, err)

	require.True(t, r.Link("u1", a1))
	require.False(t, r.Link("u1", a1))
	require.True(t, r.Link("u1", a2))
	require.Equal(t, map[string][]string{"u1": {a1.Hex(), a2.Hex()}}, r.Export())

	require.True(t, r.Unlink("u1", a1))
	require.False(t, r.Unlink("u1", a1))
	require.True(t, r.Unlink("u1", a2))
	require.Empty(t, r.Export())
}

func TestLinkedWallets_ReturnsCopy(t *testing.T) {
	r, err := FromConfig(map[string][]string{"u1": {a1.Hex()}})
	require.NoError(t, err)

	got, _ := r.LinkedWallets(context.Background(), "u1")
	got[0] = a2

	again, _ := r.LinkedWallets(context.Background(), "u1")
	require.Equal(t, a1, again[0])
}

func TestReplace(t *testing.T) {
	r, err := FromConfig(map[string][]string{"u1": {a1.Hex()}})
	require.NoError(t, err)
	next, err := FromConfig(map[string][]string{"u2": {a2.Hex()}})
	require.NoError(t, err)

	r.Replace(next)

	require.Equal(t, map[string][]string{"u2": {a2.Hex()}}, r.Export())
}
