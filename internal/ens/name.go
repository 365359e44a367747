// Package ens holds the ENS primitives the sagas need: name hashing, label
// validation, the off-chain commitment computation and calldata for the
// registrar controller and the registry.
package ens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TLD is the parent of every second-level name this service registers.
const TLD = "eth"

const (
	// MinLabelLength is the registrar controller's minimum for .eth names.
	MinLabelLength = 3
	maxLabelLength = 63

	// MinRegistrationDuration is the controller's MIN_REGISTRATION_DURATION.
	MinRegistrationDuration = 28 * 24 * time.Hour
	// MaxRegistrationDuration is a service limit, not a protocol one.
	MaxRegistrationDuration = 10 * 365 * 24 * time.Hour
)

var (
	ErrInvalidLabel = errors.New("invalid label")
)

// NameHash computes the EIP-137 namehash of a dot-separated name.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		label := LabelHash(labels[i])
		node = crypto.Keccak256Hash(node.Bytes(), label.Bytes())
	}
	return node
}

// LabelHash is keccak256 of a single label.
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// DisplayName returns label.eth.
func DisplayName(label string) string {
	return label + "." + TLD
}

// NormalizeLabel lowercases and trims a user-supplied label, stripping a
// trailing ".eth" if present.
func NormalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSuffix(s, "."+TLD)
}

// ValidateLabel accepts the ASCII subset of normalized labels: lowercase
// letters, digits and inner hyphens, at least min characters long.
func ValidateLabel(label string, min int) error {
	if len(label) < min || len(label) > maxLabelLength {
		return fmt.Errorf("%w: %q must be %d to %d characters", ErrInvalidLabel, label, min, maxLabelLength)
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return fmt.Errorf("%w: %q cannot start or end with a hyphen", ErrInvalidLabel, label)
	}
	for _, r := range label {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidLabel, label, r)
		}
	}
	return nil
}

// ParentLabel returns the second-level label of a .eth name ("foo" for
// "foo.eth" or "foo"). It fails for deeper names.
func ParentLabel(name string) (string, error) {
	label := NormalizeLabel(name)
	if strings.Contains(label, ".") {
		return "", fmt.Errorf("%w: %q is not a second-level .eth name", ErrInvalidLabel, name)
	}
	if err := ValidateLabel(label, MinLabelLength); err != nil {
		return "", err
	}
	return label, nil
}
