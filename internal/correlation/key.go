// Package correlation defines the keys that tie an asynchronous confirmation
// or selection event back to the saga instance that requested it.
//
// A key is a tagged variant: the saga kind is an explicit field, and the wire
// form <prefix>-<channel>-<user>-<label>[-<timestamp>] is only produced by
// String and read back by Parse.
package correlation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which saga step a key belongs to.
type Kind int

const (
	KindUnknown Kind = iota
	KindCommit
	KindRegister
	KindTestCommit
	KindTestRegister
	KindTransfer
	KindTestTransfer
	KindBridgeEOA
	KindWalletSelect
	KindTestWalletPick
	KindSubdomain
)

type kindSpec struct {
	prefix      string
	timestamped bool
	testnet     bool
}

// Whether a kind carries a trailing timestamp is fixed per kind. That is what
// keeps hyphenated labels unambiguous when parsing.
var kindSpecs = map[Kind]kindSpec{
	KindCommit:         {prefix: "commit"},
	KindRegister:       {prefix: "register"},
	KindTestCommit:     {prefix: "testcommit", testnet: true},
	KindTestRegister:   {prefix: "test_register", testnet: true},
	KindTransfer:       {prefix: "transfer", timestamped: true},
	KindTestTransfer:   {prefix: "testtransfer", timestamped: true, testnet: true},
	KindBridgeEOA:      {prefix: "bridge-eoa", timestamped: true},
	KindWalletSelect:   {prefix: "wallet-select", timestamped: true},
	KindTestWalletPick: {prefix: "test-wallet-pick", timestamped: true, testnet: true},
	KindSubdomain:      {prefix: "subdomain", timestamped: true},
}

// parseOrder lists kinds longest prefix first so that no prefix can shadow a
// longer one that starts with it.
var parseOrder = func() []Kind {
	kinds := make([]Kind, 0, len(kindSpecs))
	for k := range kindSpecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		pi, pj := kindSpecs[kinds[i]].prefix, kindSpecs[kinds[j]].prefix
		if len(pi) != len(pj) {
			return len(pi) > len(pj)
		}
		return pi < pj
	})
	return kinds
}()

// Prefix returns the wire prefix without the trailing hyphen.
func (k Kind) Prefix() string {
	return kindSpecs[k].prefix
}

// String returns the wire prefix, or "unknown".
func (k Kind) String() string {
	if spec, ok := kindSpecs[k]; ok {
		return spec.prefix
	}
	return "unknown"
}

// Timestamped reports whether keys of this kind end with a timestamp.
func (k Kind) Timestamped() bool {
	return kindSpecs[k].timestamped
}

// Testnet reports whether the kind belongs to the testnet command family.
func (k Kind) Testnet() bool {
	return kindSpecs[k].testnet
}

var (
	// ErrInvalidKey is returned by Validate for keys that cannot be encoded.
	ErrInvalidKey = errors.New("invalid correlation key")
)

// Key identifies one in-flight saga instance.
type Key struct {
	Kind    Kind
	Channel string
	User    string
	Label   string
	// Timestamp is unix milliseconds; zero for kinds that are not timestamped.
	Timestamp int64
}

// CommitKey builds the commit-phase key for a registration.
func CommitKey(channel, user, label string, testnet bool) Key {
	kind := KindCommit
	if testnet {
		kind = KindTestCommit
	}
	return Key{Kind: kind, Channel: channel, User: user, Label: label}
}

// Stamped builds a key of a timestamped kind.
func Stamped(kind Kind, channel, user, label string, at time.Time) Key {
	return Key{Kind: kind, Channel: channel, User: user, Label: label, Timestamp: at.UnixMilli()}
}

// Validate checks that the key round-trips through String and Parse.
func (k Key) Validate() error {
	spec, ok := kindSpecs[k.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidKey, k.Kind)
	}
	if k.Channel == "" || strings.Contains(k.Channel, "-") {
		return fmt.Errorf("%w: channel %q must be non-empty and hyphen-free", ErrInvalidKey, k.Channel)
	}
	if k.User == "" || strings.Contains(k.User, "-") {
		return fmt.Errorf("%w: user %q must be non-empty and hyphen-free", ErrInvalidKey, k.User)
	}
	if k.Label == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidKey)
	}
	if spec.timestamped && k.Timestamp <= 0 {
		return fmt.Errorf("%w: %s keys need a positive timestamp", ErrInvalidKey, spec.prefix)
	}
	if !spec.timestamped && k.Timestamp != 0 {
		return fmt.Errorf("%w: %s keys carry no timestamp", ErrInvalidKey, spec.prefix)
	}
	return nil
}

// String encodes the key in its wire form.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Kind.String())
	b.WriteByte('-')
	b.WriteString(k.Channel)
	b.WriteByte('-')
	b.WriteString(k.User)
	b.WriteByte('-')
	b.WriteString(k.Label)
	if k.Kind.Timestamped() {
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(k.Timestamp, 10))
	}
	return b.String()
}

// Parse decodes a wire key. It returns false for keys that do not belong to
// any known saga kind; callers treat those as foreign and ignore them.
func Parse(s string) (Key, bool) {
	for _, kind := range parseOrder {
		spec := kindSpecs[kind]
		rest, ok := strings.CutPrefix(s, spec.prefix+"-")
		if !ok {
			continue
		}
		key, ok := parseFields(kind, spec, rest)
		if ok {
			return key, true
		}
	}
	return Key{}, false
}

func parseFields(kind Kind, spec kindSpec, rest string) (Key, bool) {
	parts := strings.SplitN(rest, "-", 3)
	if len(parts) != 3 {
		return Key{}, false
	}
	key := Key{Kind: kind, Channel: parts[0], User: parts[1], Label: parts[2]}
	if spec.timestamped {
		i := strings.LastIndexByte(key.Label, '-')
		if i < 0 {
			return Key{}, false
		}
		ts, err := strconv.ParseInt(key.Label[i+1:], 10, 64)
		if err != nil {
			return Key{}, false
		}
		key.Label, key.Timestamp = key.Label[:i], ts
	}
	if key.Validate() != nil {
		return Key{}, false
	}
	return key, true
}

// Reveal derives the registration-phase key from a commit-phase key.
func (k Key) Reveal() (Key, bool) {
	switch k.Kind {
	case KindCommit:
		k.Kind = KindRegister
	case KindTestCommit:
		k.Kind = KindTestRegister
	default:
		return Key{}, false
	}
	return k, true
}

// Commitment recovers the commit-phase key from a registration-phase key.
func (k Key) Commitment() (Key, bool) {
	switch k.Kind {
	case KindRegister:
		k.Kind = KindCommit
	case KindTestRegister:
		k.Kind = KindTestCommit
	default:
		return Key{}, false
	}
	return k, true
}
