package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidParameterError(t *testing.T) {
	err := Invalid("radius_km", "must be in (0, %d], got %v", 500, 600.0)

	assert.True(t, IsInvalidParameter(err))
	assert.False(t, IsDatasetUnavailable(err))
	assert.Equal(t, "invalid parameter radius_km: must be in (0, 500], got 600", err.Error())

	var ipe *InvalidParameterError
	assert.True(t, errors.As(err, &ipe))
	assert.Equal(t, "radius_km", ipe.Field)
}

func TestWrappedSentinels(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", ErrDatasetUnavailable)
	assert.True(t, IsDatasetUnavailable(wrapped))
	assert.False(t, IsInvalidParameter(wrapped))

	wrapped = fmt.Errorf("nearby: %w", Invalid("lat", "out of range"))
	assert.True(t, IsInvalidParameter(wrapped))
}
