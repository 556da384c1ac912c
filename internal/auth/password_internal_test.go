package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestDecoyUsesProvisioningCost(t *testing.T) {
	for _, cost := range []int{bcrypt.MinCost, bcrypt.MinCost + 1} {
		v := NewVerifier(cost)
		assert.ErrorIs(t, v.Verify("whatever", nil), ErrInvalidPassword)

		got, err := bcrypt.Cost(v.decoy)
		require.NoError(t, err)
		assert.Equal(t, cost, got)
	}

	assert.Equal(t, bcrypt.DefaultCost, NewVerifier(0).decoyCost)
}
