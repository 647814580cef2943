package access

// Evaluator produces authorization decisions for
// (operation, collection, actor) tuples. Decisions are pure functions of
// their inputs: no persistence lookups, no locking, no ambient state.
//
// Read policy for the users collection is owner-or-admin: an authenticated
// actor may read only their own record unless they are admin. Anonymous
// reads of posts are restricted to published items.
type Evaluator struct{}

func NewEvaluator() Evaluator {
	return Evaluator{}
}

// Evaluate resolves one decision. Unknown operations and collections deny.
func (e Evaluator) Evaluate(op Operation, col Collection, actor Actor) Decision {
	switch col {
	case CollectionPosts:
		return e.posts(op, actor)
	case CollectionUsers:
		return e.users(op, actor)
	default:
		return Deny()
	}
}

// posts implements the content-item rules.
func (e Evaluator) posts(op Operation, actor Actor) Decision {
	if actor.IsAdmin() {
		switch op {
		case OpCreate, OpRead, OpUpdate, OpDelete, OpAdmin:
			return Allow()
		default:
			return Deny()
		}
	}

	switch op {
	case OpCreate:
		// Members never create content.
		if actor.Authenticated() && actor.Role == RoleAuthor {
			return Allow()
		}
		return Deny()

	case OpRead:
		// Authors see their own drafts plus everyone's published items.
		if actor.Authenticated() && actor.Role == RoleAuthor {
			return AllowFiltered(StatusIs(StatusPublished), AuthorIs(actor.ID))
		}
		// Anonymous and member: published only.
		return AllowFiltered(StatusIs(StatusPublished))

	case OpUpdate, OpDelete:
		// Ownership requires an identity; anonymous can own nothing.
		if actor.Authenticated() && actor.Role == RoleAuthor {
			return AllowFiltered(AuthorIs(actor.ID))
		}
		return Deny()

	case OpAdmin:
		return e.adminSurface(actor)

	default:
		return Deny()
	}
}

// users implements the identity rules.
func (e Evaluator) users(op Operation, actor Actor) Decision {
	if actor.IsAdmin() {
		switch op {
		case OpCreate, OpRead, OpUpdate, OpDelete, OpAdmin:
			return Allow()
		default:
			return Deny()
		}
	}

	switch op {
	case OpCreate:
		// Public signup. Role forcing happens in the mutation rules
		// (SignupRole); the evaluator only gates the operation.
		return Allow()

	case OpRead, OpUpdate:
		// Owner-or-admin. Update additionally excludes the role field,
		// checked by CanSetRole at mutation time.
		if actor.Authenticated() {
			return AllowFiltered(SelfIs(actor.ID))
		}
		return Deny()

	case OpDelete:
		// Accounts are removed by admins only.
		return Deny()

	case OpAdmin:
		return e.adminSurface(actor)

	default:
		return Deny()
	}
}

func (e Evaluator) adminSurface(actor Actor) Decision {
	if actor.IsAdmin() {
		return Allow()
	}
	return Deny()
}

// ========================================
// FIELD-LEVEL RULES
// ========================================

// Post status values referenced by filters.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// CanSetAuthor reports whether the actor may set or reassign a post's
// author reference explicitly. Author assignment on create (derived from
// the actor itself) does not go through this check.
func CanSetAuthor(actor Actor) bool {
	return actor.IsAdmin()
}

// CanSetRole reports whether the actor may write the role field on a user
// record. Non-admin updates carrying a role are rejected outright rather
// than silently stripped.
func CanSetRole(actor Actor) bool {
	return actor.IsAdmin()
}

// SignupRole normalizes the requested role on the self-service signup path.
// An explicit admin request is always downgraded to member; this is a hard
// security invariant, not a default. Admin-performed creates bypass this
// and accept any valid role.
func SignupRole(requested Role) Role {
	if requested == RoleAuthor {
		return RoleAuthor
	}
	return RoleMember
}
