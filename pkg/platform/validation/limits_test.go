package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "stewardship/pkg/domain-errors"
)

func TestCheckSliceCount(t *testing.T) {
	for _, n := range []int{0, 1, MaxActorsPerRequest} {
		assert.NoError(t, CheckSliceCount("actors", n, MaxActorsPerRequest))
	}

	err := CheckSliceCount("actors", MaxActorsPerRequest+1, MaxActorsPerRequest)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "too many actors: max 200 allowed", err.Error())
}

func TestCheckStringLength(t *testing.T) {
	assert.NoError(t, CheckStringLength("reason", "", MaxReasonLength))
	assert.NoError(t, CheckStringLength("reason", strings.Repeat("r", MaxReasonLength), MaxReasonLength))

	err := CheckStringLength("reason", strings.Repeat("r", MaxReasonLength+1), MaxReasonLength)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, "reason exceeds max length of 500", err.Error())

	// Multi-byte runes count by their encoded length.
	assert.Error(t, CheckStringLength("name", "ééé", 5))
}
