package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/subbot/core/logger"
)

type fakeContext struct {
	tele.Context
	store map[string]any
}

func newContext() *fakeContext { return &fakeContext{store: map[string]any{}} }

func (f *fakeContext) Update() tele.Update   { return tele.Update{ID: 42} }
func (f *fakeContext) Sender() *tele.User    { return &tele.User{ID: 7} }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: 9} }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }

func TestBuildContextIsCached(t *testing.T) {
	c := newContext()
	c.Set("rid", "rid-1")

	ctx := BuildContext(c)
	assert.Equal(t, "rid-1", logger.RIDFrom(ctx))
	assert.Equal(t, 42, logger.UpdateIDFrom(ctx))
	assert.Equal(t, int64(7), logger.UserIDFrom(ctx))
	assert.Equal(t, int64(9), logger.ChatIDFrom(ctx))

	stored, ok := ContextFrom(c)
	require.True(t, ok)
	assert.Equal(t, ctx, stored)
	assert.Equal(t, ctx, BuildContext(c))
}

func TestEnrichStoresValues(t *testing.T) {
	c := newContext()

	WithState(c, "await_token")
	ctx := WithHandler(c, "text")
	assert.Equal(t, "await_token", logger.StateFrom(ctx))
	assert.Equal(t, "text", logger.HandlerFrom(ctx))

	// empty values leave the stored context alone
	assert.Equal(t, ctx, WithState(c, ""))
	stored, _ := ContextFrom(c)
	assert.Equal(t, "await_token", logger.StateFrom(stored))
}
