// Package guard decides whether a caller may perform a restricted ledger
// action. It holds no state; every decision is a pure function of the
// requirement and the caller.
package guard

import (
	"fmt"

	"github.com/xraph/stakeledger/identity"
)

// Principal names the role a requirement is checked against.
type Principal string

const (
	// PrincipalStakeOwner is the identity that owns a stake record.
	PrincipalStakeOwner Principal = "stake_owner"
	// PrincipalPoolInitializer is the identity that created a pool.
	PrincipalPoolInitializer Principal = "pool_initializer"
)

// Requirement binds a principal role to the identity that holds it.
type Requirement struct {
	Principal Principal
	Identity  identity.Identity
}

// StakeOwner requires the caller to be owner.
func StakeOwner(owner identity.Identity) Requirement {
	return Requirement{Principal: PrincipalStakeOwner, Identity: owner}
}

// PoolInitializer requires the caller to be the pool's initializer.
func PoolInitializer(initializer identity.Identity) Requirement {
	return Requirement{Principal: PrincipalPoolInitializer, Identity: initializer}
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Authorize checks caller against req. The nil identity is never
// authorized, including against a requirement whose identity is also nil.
func Authorize(req Requirement, caller identity.Identity) Decision {
	switch {
	case caller.IsNil():
		return Decision{Reason: "caller is not a signer"}
	case req.Identity.IsNil():
		return Decision{Reason: fmt.Sprintf("%s is unset", req.Principal)}
	case caller != req.Identity:
		return Decision{Reason: fmt.Sprintf("caller %s is not the %s", caller, req.Principal)}
	default:
		return Decision{Allowed: true}
	}
}
