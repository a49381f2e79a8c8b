package security

import "listinghub/internal/models"

// CanMutate is the owner-or-admin rule applied before a non-admin listing
// update or delete. Callers must have loaded the listing first.
func CanMutate(actor Identity, listing models.Listing) bool {
	return actor.IsAdmin() || actor.UserID == listing.CreatedBy
}
