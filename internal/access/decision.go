package access

import (
	"github.com/google/uuid"
)

// ========================================
// ROLES
// ========================================

// Role is the closed set of account roles. Any value outside this set must
// fail validation before the evaluator is consulted.
type Role string

const (
	RoleAdmin  Role = "admin"  // Full access to both collections
	RoleAuthor Role = "author" // Creates and manages own posts
	RoleMember Role = "member" // Read-only on published content
)

// AllRoles returns every valid role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleAuthor, RoleMember}
}

// Valid reports whether r is inside the closed role set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAuthor || r == RoleMember
}

// ========================================
// OPERATIONS & COLLECTIONS
// ========================================

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpAdmin  Operation = "admin" // entering the admin surface
)

type Collection string

const (
	CollectionUsers Collection = "users"
	CollectionPosts Collection = "posts"
)

// ========================================
// ACTOR
// ========================================

// Actor is the identity performing a request. The zero value is the
// anonymous actor. Actors are always passed explicitly into the evaluator,
// never looked up from ambient state.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Anonymous is the unauthenticated actor.
var Anonymous = Actor{}

// Authenticated reports whether the actor carries a resolved identity.
func (a Actor) Authenticated() bool {
	return a.ID != uuid.Nil
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Authenticated() && a.Role == RoleAdmin
}

// ========================================
// FILTER PREDICATE
// ========================================

// Standard document field names used in filter clauses.
const (
	FieldID     = "id"
	FieldStatus = "status"
	FieldAuthor = "author"
)

// Clause is a single field-equality condition.
type Clause struct {
	Field  string
	Equals string
}

// StatusIs builds a status equality clause.
func StatusIs(status string) Clause {
	return Clause{Field: FieldStatus, Equals: status}
}

// AuthorIs builds an author-ownership clause.
func AuthorIs(id uuid.UUID) Clause {
	return Clause{Field: FieldAuthor, Equals: id.String()}
}

// SelfIs builds an identity-ownership clause (users collection).
func SelfIs(id uuid.UUID) Clause {
	return Clause{Field: FieldID, Equals: id.String()}
}

// Filter narrows which documents a permitted operation applies to.
// Clauses are combined with OR: a document is visible when any clause
// matches. Repositories compile the same clauses into a SQL WHERE clause,
// so in-process resolution and list filtering stay in lockstep.
type Filter struct {
	Any []Clause
}

// Document exposes the handful of fields filters can reference.
type Document interface {
	FieldValue(field string) string
}

// Fields is a map-backed Document, convenient for tests and for domains
// that do not want a dedicated adapter type.
type Fields map[string]string

func (f Fields) FieldValue(field string) string {
	return f[field]
}

// Matches reports whether any clause of the filter holds for doc.
// An empty filter matches nothing: AllowFiltered with no clauses is
// equivalent to Deny, which keeps a misbuilt policy fail-closed.
func (f *Filter) Matches(doc Document) bool {
	if f == nil {
		return false
	}
	for _, c := range f.Any {
		if doc.FieldValue(c.Field) == c.Equals {
			return true
		}
	}
	return false
}

// ========================================
// DECISION
// ========================================

type Effect int

const (
	EffectDeny Effect = iota
	EffectAllow
	EffectFiltered
)

// Decision is the outcome of one access evaluation: an unconditional
// allow/deny, or a filter predicate restricting the affected document set.
type Decision struct {
	Effect Effect
	Filter *Filter
}

func Allow() Decision {
	return Decision{Effect: EffectAllow}
}

func Deny() Decision {
	return Decision{Effect: EffectDeny}
}

func AllowFiltered(clauses ...Clause) Decision {
	return Decision{
		Effect: EffectFiltered,
		Filter: &Filter{Any: clauses},
	}
}

// Allowed reports whether the decision permits the operation at all
// (possibly subject to its filter).
func (d Decision) Allowed() bool {
	return d.Effect != EffectDeny
}

// Resolve collapses the decision against a single identified document.
// Write and delete operations always go through here: a filtered list view
// is not a capability grant for a specific document.
func (d Decision) Resolve(doc Document) bool {
	switch d.Effect {
	case EffectAllow:
		return true
	case EffectFiltered:
		return d.Filter.Matches(doc)
	default:
		return false
	}
}
