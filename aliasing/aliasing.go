// Package aliasing converts between an L1 address and the identity it presents as msg.sender on L2.
//
// Calls that enter L2 through an L1 message are seen under an offset address so they cannot be
// confused with ordinary L2 calls from the same nominal address.
package aliasing

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/polymerdao/facet"
)

var (
	offset = uint256.MustFromHex("0x1111000000000000000000000000000000001111")
	// mask160 reduces a uint256 modulo 2^160.
	mask160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))

	addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)
)

// Alias converts the L1 address that submitted a transaction to the address seen as msg.sender on L2.
// The input is matched case-insensitively, so mixed-case hex and a 0X prefix are accepted. The result
// is lower-case hex.
func Alias(l1Address string) (string, error) {
	addr, err := parse(l1Address)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(AliasAddress(addr).Bytes()), nil
}

// Unalias is the inverse of Alias. It accepts the same input forms.
func Unalias(l2Address string) (string, error) {
	addr, err := parse(l2Address)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(UnaliasAddress(addr).Bytes()), nil
}

// AliasAddress computes (addr + offset) mod 2^160.
func AliasAddress(addr common.Address) common.Address {
	v := new(uint256.Int).SetBytes20(addr.Bytes())
	v.Add(v, offset).And(v, mask160)
	return v.Bytes20()
}

// UnaliasAddress computes (addr - offset) mod 2^160.
func UnaliasAddress(addr common.Address) common.Address {
	v := new(uint256.Int).SetBytes20(addr.Bytes())
	v.Sub(v, offset).And(v, mask160)
	return v.Bytes20()
}

func parse(s string) (common.Address, error) {
	normalized := strings.ToLower(s)
	if !addressPattern.MatchString(normalized) {
		return common.Address{}, facet.WrapError(facet.ErrInvalidAddress, "%q", s)
	}
	return common.HexToAddress(normalized), nil
}
