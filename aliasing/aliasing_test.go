package aliasing_test

import (
	"math/rand"
	"testing"

	"github.com/ethereum-optimism/optimism/op-chain-ops/crossdomain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polymerdao/facet"
	"github.com/polymerdao/facet/aliasing"
	"github.com/stretchr/testify/require"
)

func TestAliasKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		l1      string
		aliased string
	}{
		{
			name:    "zero address",
			l1:      "0x0000000000000000000000000000000000000000",
			aliased: "0x1111000000000000000000000000000000001111",
		},
		{
			name:    "wraps around 2^160",
			l1:      "0xffffffffffffffffffffffffffffffffffffffff",
			aliased: "0x1111000000000000000000000000000000001110",
		},
		{
			name:    "mixed case input",
			l1:      "0x00000000000000000000000000000000000FacE7",
			aliased: "0x111100000000000000000000000000000010bdf8",
		},
		{
			name:    "upper-case prefix",
			l1:      "0X00000000000000000000000000000000000FACE7",
			aliased: "0x111100000000000000000000000000000010bdf8",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := aliasing.Alias(test.l1)
			require.NoError(t, err)
			require.Equal(t, test.aliased, got)

			back, err := aliasing.Unalias(got)
			require.NoError(t, err)
			require.Equal(t, hexutil.Encode(common.HexToAddress(test.l1).Bytes()), back)
		})
	}
}

func TestAliasRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		var addr common.Address
		r.Read(addr[:])

		aliased := aliasing.AliasAddress(addr)
		require.NotEqual(t, addr, aliased)
		require.Equal(t, addr, aliasing.UnaliasAddress(aliased))
		require.Equal(t, crossdomain.ApplyL1ToL2Alias(addr), aliased)
		require.Equal(t, crossdomain.UndoL1ToL2Alias(aliased), addr)
	}
}

func TestAliasRejectsInvalidAddresses(t *testing.T) {
	for _, input := range []string{
		"",
		"0x",
		"0x123",
		"00000000000000000000000000000000000FacE7",
		"0x00000000000000000000000000000000000FacE7ff",
		"0x00000000000000000000000000000000000FacEg",
		" 0x00000000000000000000000000000000000FacE7",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := aliasing.Alias(input)
			require.ErrorIs(t, err, facet.ErrInvalidAddress)
			_, err = aliasing.Unalias(input)
			require.ErrorIs(t, err, facet.ErrInvalidAddress)
		})
	}
}
