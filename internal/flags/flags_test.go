package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_LayersOverridesOnDefaults(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]bool
		want      map[string]bool
	}{
		{
			name:      "nil keeps defaults",
			overrides: nil,
			want:      Defaults(),
		},
		{
			name:      "testnet switched on",
			overrides: map[string]bool{FlagTestnetCommands: true},
			want:      map[string]bool{FlagTestnetCommands: true, FlagBridgePolling: true, FlagTransferChaining: true},
		},
		{
			name:      "polling and chaining off",
			overrides: map[string]bool{FlagBridgePolling: false, FlagTransferChaining: false},
			want:      map[string]bool{FlagTestnetCommands: false, FlagBridgePolling: false, FlagTransferChaining: false},
		},
		{
			name:      "unknown names dropped",
			overrides: map[string]bool{"bridge-poling": false},
			want:      Defaults(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.overrides).All())
		})
	}
}

func TestRegistry_Enabled(t *testing.T) {
	r := New(map[string]bool{FlagTestnetCommands: true, FlagBridgePolling: false})

	assert.True(t, r.Enabled(FlagTestnetCommands))
	assert.False(t, r.Enabled(FlagBridgePolling))
	assert.True(t, r.Enabled(FlagTransferChaining))
	assert.False(t, r.Enabled("no-such-flag"))
	assert.Equal(t, []string{FlagTestnetCommands, FlagTransferChaining}, r.EnabledNames())
}

func TestRegistry_NilIsAllOff(t *testing.T) {
	var r *Registry

	assert.False(t, r.Enabled(FlagBridgePolling))
	assert.Empty(t, r.All())
	assert.Nil(t, r.EnabledNames())
}

func TestRegistry_AllIsACopy(t *testing.T) {
	r := New(nil)
	all := r.All()
	all[FlagTestnetCommands] = true

	assert.False(t, r.Enabled(FlagTestnetCommands))
}
