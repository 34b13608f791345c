package main

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/polymerdao/facet"
	"github.com/samber/lo"
)

// parseMethod builds a single-method ABI from a signature such as "transfer(address,uint256)".
// Only elementary argument types are supported.
func parseMethod(signature string) (*abi.ABI, string, error) {
	open := strings.IndexByte(signature, '(')
	if open <= 0 || !strings.HasSuffix(signature, ")") {
		return nil, "", fmt.Errorf("malformed method signature %q", signature)
	}
	name := strings.TrimSpace(signature[:open])
	var inputs abi.Arguments
	if params := strings.TrimSpace(signature[open+1 : len(signature)-1]); params != "" {
		typeNames := lo.Map(strings.Split(params, ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		})
		for i, typeName := range typeNames {
			typ, err := abi.NewType(typeName, "", nil)
			if err != nil {
				return nil, "", fmt.Errorf("parse type %q: %v", typeName, err)
			}
			inputs = append(inputs, abi.Argument{
				Name: "arg" + strconv.Itoa(i),
				Type: typ,
			})
		}
	}
	method := abi.NewMethod(name, name, abi.Function, "", false, false, inputs, nil)
	return &abi.ABI{
		Methods: map[string]abi.Method{name: method},
	}, name, nil
}

// parseArgs converts command-line strings to the Go values the ABI encoder expects for inputs.
func parseArgs(inputs abi.Arguments, raw []string) ([]any, error) {
	if len(raw) != len(inputs) {
		return nil, fmt.Errorf("method takes %d arguments, got %d", len(inputs), len(raw))
	}
	args := make([]any, 0, len(raw))
	for i, input := range inputs {
		arg, err := parseArg(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d (%s): %w", i, input.Type, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

func parseArg(typ abi.Type, s string) (any, error) {
	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, facet.WrapError(facet.ErrInvalidAddress, "%q", s)
		}
		return common.HexToAddress(s), nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		return hexutil.Decode(s)
	case abi.FixedBytesTy:
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, err
		}
		if len(b) != typ.Size {
			return nil, fmt.Errorf("got %d bytes, want %d", len(b), typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil
	case abi.UintTy, abi.IntTy:
		return parseInteger(typ, s)
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
}

func parseInteger(typ abi.Type, s string) (any, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if typ.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", n)
	}
	if typ.Size > 64 {
		bits := n.BitLen()
		if typ.T == abi.IntTy {
			bits++
		}
		if bits > typ.Size {
			return nil, fmt.Errorf("%s overflows %s", n, typ)
		}
		return n, nil
	}

	// Sizes up to 64 bits are packed from the matching Go integer type.
	goType := typ.GetType()
	if typ.T == abi.UintTy {
		if !n.IsUint64() {
			return nil, fmt.Errorf("%s overflows %s", n, typ)
		}
		v := reflect.ValueOf(n.Uint64()).Convert(goType)
		if v.Uint() != n.Uint64() {
			return nil, fmt.Errorf("%s overflows %s", n, typ)
		}
		return v.Interface(), nil
	}
	if !n.IsInt64() {
		return nil, fmt.Errorf("%s overflows %s", n, typ)
	}
	v := reflect.ValueOf(n.Int64()).Convert(goType)
	if v.Int() != n.Int64() {
		return nil, fmt.Errorf("%s overflows %s", n, typ)
	}
	return v.Interface(), nil
}
