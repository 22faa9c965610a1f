// Package identity describes who is performing a request. Every service operation
// receives the acting Identity as an explicit argument.
package identity

import "github.com/google/uuid"

type Identity struct {
	UserID uuid.UUID
}

// Anonymous is the identity of an unauthenticated caller. It has no memberships.
var Anonymous = Identity{}

func User(id uuid.UUID) Identity {
	return Identity{UserID: id}
}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}
