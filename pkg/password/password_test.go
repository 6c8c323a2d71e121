package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("pw1")
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", hash)
	assert.True(t, h.Verify("pw1", hash))
	assert.False(t, h.Verify("wrong", hash))
}

func TestHash_Salted(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	assert.NotEqual(t, a, b)
}

func TestHash_TooLong(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", MaxLength+1))
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestNewHasher_InvalidCostFallsBack(t *testing.T) {
	h := NewHasher(99)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
	assert.False(t, h.VerifyDummy("anything"))
}
