package ens

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const controllerABIJSON = `[
 {"type":"function","name":"available","stateMutability":"view",
  "inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"rentPrice","stateMutability":"view",
  "inputs":[{"name":"name","type":"string"},{"name":"duration","type":"uint256"}],
  "outputs":[{"name":"price","type":"tuple","components":[{"name":"base","type":"uint256"},{"name":"premium","type":"uint256"}]}]},
 {"type":"function","name":"commit","stateMutability":"nonpayable",
  "inputs":[{"name":"commitment","type":"bytes32"}],"outputs":[]},
 {"type":"function","name":"register","stateMutability":"payable",
  "inputs":[{"name":"name","type":"string"},{"name":"owner","type":"address"},{"name":"duration","type":"uint256"},
   {"name":"secret","type":"bytes32"},{"name":"resolver","type":"address"},{"name":"data","type":"bytes[]"},
   {"name":"reverseRecord","type":"bool"},{"name":"ownerControlledFuses","type":"uint16"}],"outputs":[]}
]`

var controllerABI = mustParseABI(controllerABIJSON)

// commitmentArgs mirrors the controller's makeCommitment encoding, which hashes
// the label before abi-encoding it with the remaining arguments.
var commitmentArgs = abi.Arguments{
	{Type: mustType("bytes32")},
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("bytes32")},
	{Type: mustType("address")},
	{Type: mustType("bytes[]")},
	{Type: mustType("bool")},
	{Type: mustType("uint16")},
}

// Registration holds the arguments shared by the commit and register calls.
// The same value must be used for both phases.
type Registration struct {
	Label         string
	Owner         common.Address
	Duration      *big.Int // seconds
	Secret        [32]byte
	Resolver      common.Address
	Data          [][]byte
	ReverseRecord bool
	Fuses         uint16
}

// NewSecret draws a random 256-bit commitment secret.
func NewSecret() ([32]byte, error) {
	var s [32]byte
	if _, err := rand.Read(s[:]); err != nil {
		return s, fmt.Errorf("read random secret: %w", err)
	}
	return s, nil
}

// MakeCommitment computes the commitment hash exactly as the controller's
// makeCommitment view does, without an RPC round trip.
func MakeCommitment(r Registration) (common.Hash, error) {
	data := r.Data
	if data == nil {
		data = [][]byte{}
	}
	packed, err := commitmentArgs.Pack(
		LabelHash(r.Label), r.Owner, r.Duration, r.Secret, r.Resolver, data, r.ReverseRecord, r.Fuses,
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("encode commitment: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

// CommitCalldata encodes commit(bytes32).
func CommitCalldata(commitment common.Hash) ([]byte, error) {
	return controllerABI.Pack("commit", [32]byte(commitment))
}

// RegisterCalldata encodes the reveal call.
func RegisterCalldata(r Registration) ([]byte, error) {
	data := r.Data
	if data == nil {
		data = [][]byte{}
	}
	return controllerABI.Pack("register",
		r.Label, r.Owner, r.Duration, r.Secret, r.Resolver, data, r.ReverseRecord, r.Fuses)
}

// AvailableCalldata encodes available(string).
func AvailableCalldata(label string) ([]byte, error) {
	return controllerABI.Pack("available", label)
}

// UnpackAvailable decodes the available(string) return value.
func UnpackAvailable(out []byte) (bool, error) {
	var ok bool
	if err := controllerABI.UnpackIntoInterface(&ok, "available", out); err != nil {
		return false, fmt.Errorf("decode available: %w", err)
	}
	return ok, nil
}

type rentPrice struct {
	Base    *big.Int
	Premium *big.Int
}

// RentPriceCalldata encodes rentPrice(string,uint256).
func RentPriceCalldata(label string, duration *big.Int) ([]byte, error) {
	return controllerABI.Pack("rentPrice", label, duration)
}

// UnpackRentPrice decodes rentPrice and returns base + premium.
func UnpackRentPrice(out []byte) (*big.Int, error) {
	values, err := controllerABI.Unpack("rentPrice", out)
	if err != nil {
		return nil, fmt.Errorf("decode rentPrice: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("decode rentPrice: got %d values", len(values))
	}
	price := *abi.ConvertType(values[0], new(rentPrice)).(*rentPrice)
	return new(big.Int).Add(price.Base, price.Premium), nil
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("parse abi: %v", err))
	}
	return parsed
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %s: %v", t, err))
	}
	return typ
}
