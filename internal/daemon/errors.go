// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrLoopStopped is returned for commands submitted after the event loop exited.
	ErrLoopStopped = errors.New("event loop stopped")

	// ErrMissingController is returned when an app is created without a menu controller.
	ErrMissingController = errors.New("menu controller is required")

	// ErrMissingServer is returned when an app is created without a control server.
	ErrMissingServer = errors.New("control server is required")
)
