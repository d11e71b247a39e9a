package testutils

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/tombolalabs/tombola/internal/drawtime"
	"github.com/tombolalabs/tombola/internal/tiers"
)

// RandomAmount returns a random token amount narrow enough for the
// accumulator's 96-bit balance field.
func RandomAmount(t *testing.T) *uint256.Int {
	var buf [12]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	return new(uint256.Int).SetBytes(buf[:])
}

// RandomDrawID returns a random non-zero draw id.
func RandomDrawID(t *testing.T) drawtime.DrawID {
	var buf [4]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	id := binary.BigEndian.Uint32(buf[:])
	if id == 0 {
		id = 1
	}
	return drawtime.DrawID(id)
}

// RandomTierCount returns a tier count the distributor accepts.
func RandomTierCount(t *testing.T) uint8 {
	n, err := rand.Int(rand.Reader, big.NewInt(tiers.MaxTiers-tiers.MinTiers+1))
	require.NoError(t, err)
	return tiers.MinTiers + uint8(n.Int64())
}
