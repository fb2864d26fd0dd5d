package domain

type actorKind int

const (
	actorOwner actorKind = iota + 1
	actorAdministrator
)

// Actor is the authenticated principal behind a user-facing call.
// It is either a resource owner or an administrator; the zero value
// is not a valid actor.
type Actor struct {
	kind   actorKind
	userID string
	email  string
}

func Owner(userID, email string) Actor {
	return Actor{kind: actorOwner, userID: userID, email: email}
}

func Administrator(userID, email string) Actor {
	return Actor{kind: actorAdministrator, userID: userID, email: email}
}

func (a Actor) IsAdmin() bool { return a.kind == actorAdministrator }
func (a Actor) IsValid() bool { return a.kind != 0 && a.userID != "" }
func (a Actor) UserID() string { return a.userID }
func (a Actor) Email() string { return a.email }

// Authority reports which order transitions the actor may drive.
func (a Actor) Authority() Authority {
	if a.IsAdmin() {
		return AuthorityAdmin
	}
	return AuthorityOwner
}

func (a Actor) String() string {
	if a.IsAdmin() {
		return "admin:" + a.userID
	}
	return "user:" + a.userID
}

// Authority is the party on whose behalf an order status change happens.
// AuthoritySystem is never derived from an Actor: it belongs to the
// payment reconciliation path only.
type Authority string

const (
	AuthorityOwner  Authority = "owner"
	AuthorityAdmin  Authority = "admin"
	AuthoritySystem Authority = "system"
)
