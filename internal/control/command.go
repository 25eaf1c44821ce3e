// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package control turns remote-control requests into menu commands and serves
// them over HTTP.
package control

import (
	"errors"
	"fmt"
	"strings"
)

// Command identifies one remote-control intent.
type Command int

const (
	CmdOpen Command = iota
	CmdClose
	CmdToggle
	CmdNavUp
	CmdNavDown
	CmdNavLeft
	CmdNavRight
	CmdNavPageUp
	CmdNavPageDown
	CmdConfirm
	CmdCancel
	CmdEnterGuide
	CmdSelect
	CmdActivate
	CmdKey
)

var commandNames = [...]string{
	CmdOpen:        "open",
	CmdClose:       "close",
	CmdToggle:      "toggle",
	CmdNavUp:       "nav.up",
	CmdNavDown:     "nav.down",
	CmdNavLeft:     "nav.left",
	CmdNavRight:    "nav.right",
	CmdNavPageUp:   "nav.pageUp",
	CmdNavPageDown: "nav.pageDown",
	CmdConfirm:     "confirm",
	CmdCancel:      "cancel",
	CmdEnterGuide:  "enterGuide",
	CmdSelect:      "select",
	CmdActivate:    "activate",
	CmdKey:         "key",
}

func (c Command) String() string {
	if c >= 0 && int(c) < len(commandNames) {
		return commandNames[c]
	}
	return "unknown"
}

// ErrUnknownCommand is returned by ParseCommand for names outside the command set.
var ErrUnknownCommand = errors.New("unknown command")

// synonyms maps every accepted spelling to its command. Matching is case-insensitive.
var synonyms = map[string]Command{
	"open":         CmdOpen,
	"close":        CmdClose,
	"toggle":       CmdToggle,
	"nav.up":       CmdNavUp,
	"nav.down":     CmdNavDown,
	"nav.left":     CmdNavLeft,
	"nav.right":    CmdNavRight,
	"nav.pageup":   CmdNavPageUp,
	"nav.pagedown": CmdNavPageDown,
	"confirm":      CmdConfirm,
	"enter":        CmdConfirm,
	"nav.enter":    CmdConfirm,
	"key.enter":    CmdConfirm,
	"ok":           CmdConfirm,
	"cancel":       CmdCancel,
	"esc":          CmdCancel,
	"enterguide":   CmdEnterGuide,
	"guide":        CmdEnterGuide,
	"select":       CmdSelect,
	"activate":     CmdActivate,
	"key":          CmdKey,
}

// Request is one command with its optional argument (an item index or label,
// or a key name).
type Request struct {
	Command Command
	Arg     string
}

func (r Request) String() string {
	if r.Arg == "" {
		return r.Command.String()
	}
	return r.Command.String() + "(" + r.Arg + ")"
}

// ParseCommand resolves a command name and argument. "select" without an
// argument is the confirm synonym; with one it moves the root cursor.
func ParseCommand(name, arg string) (Request, error) {
	cmd, ok := synonyms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	if cmd == CmdSelect && arg == "" {
		cmd = CmdConfirm
	}
	return Request{Command: cmd, Arg: arg}, nil
}
