package ens

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const registryABIJSON = `[
 {"type":"function","name":"owner","stateMutability":"view",
  "inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"setSubnodeRecord","stateMutability":"nonpayable",
  "inputs":[{"name":"node","type":"bytes32"},{"name":"label","type":"bytes32"},{"name":"owner","type":"address"},
   {"name":"resolver","type":"address"},{"name":"ttl","type":"uint64"}],"outputs":[]}
]`

var registryABI = mustParseABI(registryABIJSON)

// OwnerCalldata encodes owner(bytes32) for the namehash of name.
func OwnerCalldata(name string) ([]byte, error) {
	return registryABI.Pack("owner", [32]byte(NameHash(name)))
}

// UnpackOwner decodes the owner(bytes32) return value.
func UnpackOwner(out []byte) (common.Address, error) {
	var owner common.Address
	if err := registryABI.UnpackIntoInterface(&owner, "owner", out); err != nil {
		return common.Address{}, fmt.Errorf("decode owner: %w", err)
	}
	return owner, nil
}

// SetSubnodeRecordCalldata creates label.parent owned by owner with resolver set.
func SetSubnodeRecordCalldata(parent, label string, owner, resolver common.Address) ([]byte, error) {
	return registryABI.Pack("setSubnodeRecord",
		[32]byte(NameHash(parent)), [32]byte(LabelHash(label)), owner, resolver, uint64(0))
}
