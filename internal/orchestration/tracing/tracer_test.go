package tracing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, ExporterFile, cfg.Exporter)
	assert.Equal(t, defaultOTLPEndpoint, cfg.OTLPEndpoint)
	assert.InDelta(t, 1.0, cfg.SampleRate, 1e-9)
	assert.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(Config{Exporter: "bogus"})
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "file", cfg: Config{Exporter: ExporterFile, FilePath: filepath.Join(t.TempDir(), "t.jsonl")}},
		{name: "stdout", cfg: Config{Exporter: ExporterStdout}},
		{name: "none", cfg: Config{Exporter: ExporterNone}},
		{name: "empty means none", cfg: Config{}},
		{name: "file without path", cfg: Config{Exporter: ExporterFile}, wantErr: "file path"},
		{name: "unknown", cfg: Config{Exporter: "zipkin"}, wantErr: "unknown exporter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Enabled = true
			p, err := NewProvider(tt.cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Enabled())
			t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

			_, span := p.Tracer().Start(context.Background(), SpanPrefixCommand+"request_registration")
			assert.True(t, span.SpanContext().IsValid())
			span.End()
		})
	}
}

func TestNewProvider_FileExporterReceivesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile, FilePath: path, SampleRate: 7})
	require.NoError(t, err)

	_, span := p.Tracer().Start(context.Background(), SpanPrefixCommand+"sweep_stores")
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	recs := readRecords(t, path)
	require.Len(t, recs, 1)
	assert.Equal(t, SpanPrefixCommand+"sweep_stores", recs[0].Name)
}
