// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared across spans.
const (
	ChannelIDKey     = "fsx.channel_id"
	MenuCommandKey   = "fsx.menu.command"
	MenuModeKey      = "fsx.menu.mode"
	MenuOutcomeKey   = "fsx.menu.outcome"
	PlayerOpKey      = "fsx.player.op"
	PlayerTransport  = "fsx.player.transport"
	GuideChannelsKey = "fsx.guide.channels"
	ErrorTypeKey     = "error.type"
)

// ChannelAttributes tags a span with a channel, if known.
func ChannelAttributes(channelID string) []attribute.KeyValue {
	if channelID == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String(ChannelIDKey, channelID)}
}

// CommandAttributes describes a menu command and the mode it ran in.
func CommandAttributes(command, mode string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	attrs = append(attrs, attribute.String(MenuCommandKey, command))
	if mode != "" {
		attrs = append(attrs, attribute.String(MenuModeKey, mode))
	}
	return attrs
}

// PlayerAttributes describes a player control call.
func PlayerAttributes(op, transport string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlayerOpKey, op),
		attribute.String(PlayerTransport, transport),
	}
}

// ErrorAttributes marks a span with an error classification.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{attribute.String(ErrorTypeKey, errorType)}
}
