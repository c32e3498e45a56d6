// Package store persists records together with their capability states.
//
// Error contract: FindByID, FindForUpdate, Update and Delete return
// sentinel.ErrNotFound for unknown records; Create returns
// sentinel.ErrAlreadyUsed when the ID is taken.
package store
