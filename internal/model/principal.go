package model

import "github.com/google/uuid"

// Principal is the already-authenticated caller. Tenant and user come from the access token.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}

func (p Principal) HasAnyRole(roles ...string) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
