// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldCommand   = "command"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldRole      = "role"
	FieldPID       = "pid"

	// Domain fields
	FieldChannelID = "channel_id"
	FieldTitle     = "title"
	FieldMode      = "mode"
	FieldOffset    = "offset"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path / URL fields
	FieldPath    = "path"
	FieldBaseURL = "base_url"
	FieldSocket  = "socket"
)
