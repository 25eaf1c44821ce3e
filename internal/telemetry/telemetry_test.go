// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Enabled: false, ExporterType: "grpc"})
	require.NoError(t, err)
	assert.Nil(t, p.tp)

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, ExporterType: "invalid"})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", samplerFor(1).Description())
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased")
}

func TestNilProviderShutdown(t *testing.T) {
	var p *Provider
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestAttributes(t *testing.T) {
	assert.Nil(t, ChannelAttributes(""))
	assert.Equal(t, []attribute.KeyValue{attribute.String(ChannelIDKey, "7")}, ChannelAttributes("7"))

	assert.Len(t, CommandAttributes("open", ""), 1)
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(MenuCommandKey, "nav_left"),
		attribute.String(MenuModeKey, "guide"),
	}, CommandAttributes("nav_left", "guide"))

	attrs := PlayerAttributes("pause", "http")
	assert.Equal(t, attribute.String(PlayerOpKey, "pause"), attrs[0])
	assert.Equal(t, attribute.String(PlayerTransport, "http"), attrs[1])

	assert.Equal(t, "timeout", ErrorAttributes("timeout")[0].Value.AsString())
}
