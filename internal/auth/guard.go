// Package auth decides whether an actor may touch a user-owned resource.
package auth

import "github.com/fjod/storefront/internal/domain"

// Authorize lets administrators through unconditionally and owners through
// for their own resources. It must be called after the resource row has
// been read inside the same transaction that will mutate it.
func Authorize(actor domain.Actor, resource, resourceID, ownerID string) error {
	if !actor.IsValid() {
		return domain.ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return nil
	}
	if actor.UserID() == ownerID {
		return nil
	}
	return &domain.AuthorizationError{
		Resource:   resource,
		ActorID:    actor.UserID(),
		ResourceID: resourceID,
	}
}

// ScopeUser resolves which user's resources a listing covers. Owners are
// always limited to their own; administrators may name any user, or none
// to list everything.
func ScopeUser(actor domain.Actor, requested string) (string, error) {
	if !actor.IsValid() {
		return "", domain.ErrUnauthenticated
	}
	if actor.IsAdmin() {
		return requested, nil
	}
	if requested != "" && requested != actor.UserID() {
		return "", &domain.AuthorizationError{Resource: "user", ActorID: actor.UserID(), ResourceID: requested}
	}
	return actor.UserID(), nil
}
