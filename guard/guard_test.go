package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/stakeledger/guard"
	"github.com/xraph/stakeledger/identity"
)

func TestAuthorize(t *testing.T) {
	alice := identity.Derive([]byte("alice"))
	bob := identity.Derive([]byte("bob"))

	tests := []struct {
		name    string
		req     guard.Requirement
		caller  identity.Identity
		allowed bool
	}{
		{"owner", guard.StakeOwner(alice), alice, true},
		{"not owner", guard.StakeOwner(alice), bob, false},
		{"initializer", guard.PoolInitializer(bob), bob, true},
		{"not initializer", guard.PoolInitializer(bob), alice, false},
		{"nil caller", guard.StakeOwner(alice), identity.Nil, false},
		{"nil on both sides", guard.StakeOwner(identity.Nil), identity.Nil, false},
		{"unset requirement", guard.PoolInitializer(identity.Nil), alice, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := guard.Authorize(tt.req, tt.caller)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}
