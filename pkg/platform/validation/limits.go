// Package validation bounds the size of request collections and free text
// that services accept directly from callers.
package validation

import (
	"fmt"

	dErrors "stewardship/pkg/domain-errors"
)

const (
	MaxActorsPerRequest = 200
	MaxGroupsPerRequest = 50
	MaxRecordsPerBulk   = 500

	// Reasons are stored with every audit entry.
	MaxReasonLength      = 500
	MaxDescriptionLength = 2000
	MaxGroupNameLength   = 100
)

func CheckSliceCount(field string, n, limit int) error {
	if n <= limit {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", field, limit))
}

// CheckStringLength measures bytes, not runes.
func CheckStringLength(field, value string, limit int) error {
	if len(value) <= limit {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", field, limit))
}
