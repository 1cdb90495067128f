package mediastore

import "github.com/google/uuid"

// CanModify reports whether a requester may modify a resource owned by
// ownerID. Owners may modify their own resources; admins may modify any.
// Pure predicate, no side effects.
func CanModify(requesterID uuid.UUID, requesterRole Role, ownerID uuid.UUID) bool {
	return requesterID == ownerID || requesterRole == RoleAdmin
}
