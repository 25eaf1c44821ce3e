// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/fsxmenu/internal/guide"
)

func TestHandleKey_HiddenOnlyHomeOpens(t *testing.T) {
	r := newRig()
	for _, k := range []Key{KeyUp, KeyEnter, KeyPageDown, KeyEscape} {
		res := r.c.HandleKey(ctx, k)
		assert.Equal(t, ReasonNotVisible, res.Ignored, k)
	}
	require.Equal(t, ModeHidden, r.c.Mode())

	res := r.c.HandleKey(ctx, KeyHome)
	require.NotNil(t, res.Visible)
	assert.True(t, *res.Visible)
	assert.Equal(t, ModeRoot, r.c.Mode())

	res = r.c.HandleKey(ctx, KeyHome)
	assert.False(t, *res.Visible)
	assert.Equal(t, ModeHidden, r.c.Mode())
}

func TestHandleKey_RootPagesByTwo(t *testing.T) {
	r := newRig()
	r.c.Open(ctx)

	r.c.HandleKey(ctx, KeyPageDown)
	assert.Equal(t, 2, r.c.View().Selected)
	r.c.HandleKey(ctx, KeyPageDown)
	assert.Equal(t, 0, r.c.View().Selected)
	r.c.HandleKey(ctx, KeyPageUp)
	assert.Equal(t, 2, r.c.View().Selected)
	r.c.HandleKey(ctx, KeyLeft)
	assert.Equal(t, 1, r.c.View().Selected)
	r.c.HandleKey(ctx, KeyRight)
	assert.Equal(t, 2, r.c.View().Selected)
}

func TestHandleKey_GuideUpDownMoveRow(t *testing.T) {
	r := newRig(guideChannels(2, 2, 2)...)
	r.c.Open(ctx)
	r.c.HandleKey(ctx, KeyDown)
	res := r.c.HandleKey(ctx, KeyEnter)
	require.Equal(t, "guide", res.Action)

	r.c.HandleKey(ctx, KeyDown)
	r.c.HandleKey(ctx, KeyRight)
	assert.Equal(t, guide.Cursor{Row: 1, Col: 1}, r.c.View().Guide.Cursor)
	r.c.HandleKey(ctx, KeyPageDown)
	r.c.HandleKey(ctx, KeyUp)
	assert.Equal(t, guide.Cursor{Row: 1, Col: 1}, r.c.View().Guide.Cursor)

	res = r.c.HandleKey(ctx, KeyEscape)
	assert.Equal(t, "close", res.Action)
	assert.Equal(t, ModeHidden, r.c.Mode())
}

func TestParseKey(t *testing.T) {
	for in, want := range map[string]Key{
		"PageUp": KeyPageUp, "Prior": KeyPageUp, "Return": KeyEnter, "Esc": KeyEscape, " home ": KeyHome,
	} {
		got, ok := ParseKey(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseKey("F1")
	assert.False(t, ok)
}
