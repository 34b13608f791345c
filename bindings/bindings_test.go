package bindings_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymerdao/facet/bindings"
	"github.com/stretchr/testify/require"
)

func TestCdCompress(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{
			name: "empty",
			want: "0x",
		},
		{
			name:  "selector, zero run, literal, 0xff run",
			input: []byte{0xa9, 0x05, 0x9c, 0xbb, 0, 0, 0, 0x01, 0xff, 0xff},
			want:  "0x56fa6344000201" + "0081",
		},
		{
			name:  "leading zeros are inverted",
			input: []byte{0, 0},
			want:  "0xfffe",
		},
		{
			name:  "full zero run",
			input: make([]byte, 0x80),
			want:  "0xff80",
		},
		{
			name:  "zero run longer than one block",
			input: make([]byte, 0x81),
			want:  "0xff80ffff",
		},
		{
			name:  "full 0xff run",
			input: bytes.Repeat([]byte{0xff}, 0x20),
			want:  "0xff60",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.want, hexutil.Encode(bindings.CdCompress(test.input)))
		})
	}
}

func TestPackSelectors(t *testing.T) {
	account := common.HexToAddress("0x01")
	to := common.HexToAddress("0x02")

	tests := []struct {
		name      string
		signature string
		pack      func() ([]byte, error)
	}{
		{
			name:      "mint rate",
			signature: "fctMintRate()",
			pack:      bindings.PackFctMintRate,
		},
		{
			name:      "balance",
			signature: "balanceOf(address)",
			pack:      func() ([]byte, error) { return bindings.PackBalanceOf(account) },
		},
		{
			name:      "l2 bridge and call",
			signature: "bridgeAndCall(address,uint256,address,bytes)",
			pack: func() ([]byte, error) {
				return bindings.PackL2BridgeAndCall(account, big.NewInt(1), to, []byte{1})
			},
		},
		{
			name:      "buddy",
			signature: "callBuddyForUser(uint256,address,bytes)",
			pack: func() ([]byte, error) {
				return bindings.PackCallBuddyForUser(big.NewInt(1), to, []byte{1})
			},
		},
		{
			name:      "l1 bridge and call",
			signature: "bridgeAndCall(address,address,bytes,uint256)",
			pack: func() ([]byte, error) {
				return bindings.PackL1BridgeAndCall(account, to, []byte{1}, big.NewInt(50_000_000))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, err := test.pack()
			require.NoError(t, err)
			require.Equal(t, crypto.Keccak256([]byte(test.signature))[:4], data[:4])
		})
	}
}

func TestUnpackFctMintRate(t *testing.T) {
	output := common.LeftPadBytes(big.NewInt(1_000_000_000).Bytes(), 32)
	rate, err := bindings.UnpackFctMintRate(output)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_000_000_000), rate)

	_, err = bindings.UnpackFctMintRate([]byte{1})
	require.Error(t, err)
}
