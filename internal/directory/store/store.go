// Package store persists the actor and system group directory.
//
// Error contract: lookups return sentinel.ErrNotFound for unknown IDs and
// creates return sentinel.ErrAlreadyUsed for duplicate IDs.
package store
