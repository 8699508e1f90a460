package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Accepts(t *testing.T) {
	require.NoError(t, Validate("Abcdef12"))
	require.NoError(t, Validate("longerPassw0rd!"))
}

func TestValidate_TooShort(t *testing.T) {
	err := Validate("Ab1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestValidate_MissingClasses(t *testing.T) {
	err := Validate("alllowercase1")
	assert.ErrorIs(t, err, ErrNoUppercase)

	err = Validate("ALLUPPERCASE1")
	assert.ErrorIs(t, err, ErrNoLowercase)

	err = Validate("NoDigitsHere")
	assert.ErrorIs(t, err, ErrNoDigit)
}

func TestValidate_ReportsAllViolations(t *testing.T) {
	err := Validate("abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooShort)
	assert.ErrorIs(t, err, ErrNoUppercase)
	assert.ErrorIs(t, err, ErrNoDigit)
}
