// Package flags gates saga features that can be switched off in config
// without a release. The registry is read-only once built; reload does not
// touch it.
package flags

import (
	"maps"
	"slices"

	"github.com/zjrosen/namebridge/internal/log"
)

const (
	// FlagTestnetCommands allows requests against the sepolia/base-sepolia profile.
	FlagTestnetCommands = "testnet-commands"

	// FlagBridgePolling controls whether submitted bridge deposits are polled
	// until filled. When disabled the user is told to retry once funds arrive.
	FlagBridgePolling = "bridge-polling"

	// FlagTransferChaining controls whether a confirmed smart-wallet transfer
	// automatically starts the bridge step.
	FlagTransferChaining = "transfer-chaining"
)

// Defaults returns the flag values used when the config file sets none.
func Defaults() map[string]bool {
	return map[string]bool{
		FlagTestnetCommands:  false,
		FlagBridgePolling:    true,
		FlagTransferChaining: true,
	}
}

// Registry answers whether a feature is on.
type Registry struct {
	flags map[string]bool
}

// New layers overrides on top of Defaults. Names that are not known flags are
// dropped with a warning, since a typo would otherwise silently keep the default.
func New(overrides map[string]bool) *Registry {
	flags := Defaults()
	for name, on := range overrides {
		if _, known := flags[name]; !known {
			log.Warn(log.CatConfig, "ignoring unknown feature flag", "flag", name)
			continue
		}
		flags[name] = on
	}
	r := &Registry{flags: flags}
	log.Debug(log.CatConfig, "feature flags", "enabled", r.EnabledNames())
	return r
}

// Enabled reports whether name is on. Unknown names and a nil registry are off.
func (r *Registry) Enabled(name string) bool {
	if r == nil {
		return false
	}
	return r.flags[name]
}

// EnabledNames lists the flags that are on, sorted.
func (r *Registry) EnabledNames() []string {
	if r == nil {
		return nil
	}
	var on []string
	for name, enabled := range r.flags {
		if enabled {
			on = append(on, name)
		}
	}
	slices.Sort(on)
	return on
}

// All returns a copy of every flag's state.
func (r *Registry) All() map[string]bool {
	if r == nil {
		return map[string]bool{}
	}
	return maps.Clone(r.flags)
}
