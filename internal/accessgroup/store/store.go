// Package store persists custom access groups.
//
// Error contract: FindByID, FindByName and Update return
// sentinel.ErrNotFound for unknown groups; Create and Update return
// sentinel.ErrAlreadyUsed when the ID or the case-insensitive name is taken.
package store
