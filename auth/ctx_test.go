package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()

	_, ok := IdentityFrom(ctx)
	assert.False(t, ok)

	ctx = WithIdentity(ctx, RequestIdentity{UserID: 42, Role: RoleUser})
	identity, ok := IdentityFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, RoleUser, identity.Role)
}

func TestIsAdmin(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsAdmin(ctx))

	assert.False(t, IsAdmin(WithIdentity(ctx, RequestIdentity{UserID: 1, Role: RoleUser})))
	assert.True(t, IsAdmin(WithIdentity(ctx, RequestIdentity{UserID: 2, Role: RoleAdmin})))
}
