package actorcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestActorIDRoundTrip(t *testing.T) {
	ctx := WithActorID(context.Background(), snowflake.ID(42))
	id, ok := ActorIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(42), id)
}

func TestActorIDMissing(t *testing.T) {
	_, ok := ActorIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ActorIDFromContext(WithActorID(context.Background(), 0))
	assert.False(t, ok)
}

func TestActorIDFromString(t *testing.T) {
	ctx := context.WithValue(context.Background(), ActorContextKey{}, " 99 ")
	id, ok := ActorIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(99), id)
}
