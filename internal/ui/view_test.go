package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestView_BeginSupersedesPreviousLoad(t *testing.T) {
	var v View

	first, gen1 := v.Begin(context.Background())
	second, gen2 := v.Begin(context.Background())

	assert.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, v.Current(gen1))
	assert.True(t, v.Current(gen2))

	v.Finish(gen2)
	assert.ErrorIs(t, second.Err(), context.Canceled)
	assert.True(t, v.Current(gen2))
}

func TestView_Leave(t *testing.T) {
	var v View
	ctx, gen := v.Begin(context.Background())

	v.Leave()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, v.Current(gen))
}

func TestView_FinishIgnoresOldGeneration(t *testing.T) {
	var v View
	_, gen1 := v.Begin(context.Background())
	ctx2, _ := v.Begin(context.Background())

	v.Finish(gen1)

	assert.NoError(t, ctx2.Err())
}
