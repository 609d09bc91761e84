package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RolePolicy decides how a required role list is matched against a user's roles.
type RolePolicy int

const (
	// PolicyAnyOf admits users holding at least one of the required roles.
	PolicyAnyOf RolePolicy = iota
	// PolicyAllOf admits users holding every required role.
	PolicyAllOf
)

// ParseRolePolicy maps "any" / "all" to a policy. Unknown values yield PolicyAnyOf.
func ParseRolePolicy(s string) RolePolicy {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return PolicyAllOf
	}
	return PolicyAnyOf
}

func (p RolePolicy) String() string {
	if p == PolicyAllOf {
		return "all"
	}
	return "any"
}

// Allows reports whether roles satisfy required under the policy.
// An empty required list admits everyone.
func (p RolePolicy) Allows(roles, required []string) bool {
	if len(required) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		held[r] = struct{}{}
	}
	for _, r := range required {
		_, ok := held[r]
		switch {
		case ok && p == PolicyAnyOf:
			return true
		case !ok && p == PolicyAllOf:
			return false
		}
	}
	return p == PolicyAllOf
}

// Gate maps a bearer token to a user and enforces role membership.
// It keeps no state between calls.
type Gate struct {
	tokens TokenVerifier
	users  UserRepository
	policy RolePolicy
}

func NewGate(tokens TokenVerifier, users UserRepository, policy RolePolicy) *Gate {
	return &Gate{tokens: tokens, users: users, policy: policy}
}

// Authorize verifies token, loads its subject and checks required roles.
// Token errors are returned unchanged.
func (g *Gate) Authorize(ctx context.Context, token string, required ...string) (User, error) {
	subject, err := g.tokens.Verify(token)
	if err != nil {
		return User{}, err
	}
	user, err := g.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	if !g.policy.Allows(user.Roles, required) {
		return User{}, ErrForbidden
	}
	return user, nil
}
