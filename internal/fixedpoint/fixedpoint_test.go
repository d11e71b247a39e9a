package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pow2(n uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), n)
}

func TestAdd(t *testing.T) {
	sum, err := Add(uint256.NewInt(100), uint256.NewInt(150))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(250), sum)

	_, err = Add(MaxBits(256), uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestAddDoesNotAliasInputs(t *testing.T) {
	a := uint256.NewInt(1)
	b := uint256.NewInt(2)
	sum, err := Add(a, b)
	require.NoError(t, err)

	sum.AddUint64(sum, 10)
	assert.Equal(t, uint256.NewInt(1), a)
	assert.Equal(t, uint256.NewInt(2), b)
}

func TestSub(t *testing.T) {
	diff, err := Sub(uint256.NewInt(250), uint256.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(150), diff)

	_, err = Sub(uint256.NewInt(100), uint256.NewInt(101))
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMulU64(t *testing.T) {
	product, err := MulU64(uint256.NewInt(Scale), 510)
	require.NoError(t, err)

	want := new(uint256.Int).Mul(uint256.NewInt(Scale), uint256.NewInt(510))
	assert.Equal(t, want, product)

	_, err = MulU64(MaxBits(256), 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDivU64(t *testing.T) {
	quot, rem, err := DivU64(uint256.NewInt(517), 100)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), quot)
	assert.Equal(t, uint256.NewInt(17), rem)

	quot, rem, err = DivU64(uint256.NewInt(500), 100)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5), quot)
	assert.True(t, rem.IsZero())

	_, _, err = DivU64(uint256.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestDivCeilU64(t *testing.T) {
	tests := []struct {
		name string
		a    uint64
		b    uint64
		want uint64
	}{
		{"exact", 500, 100, 5},
		{"rounds up", 501, 100, 6},
		{"just below exact", 499, 100, 5},
		{"zero dividend", 0, 100, 0},
		{"dividend below divisor", 1, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DivCeilU64(uint256.NewInt(tt.a), tt.b)
			require.NoError(t, err)
			assert.Equal(t, uint256.NewInt(tt.want), got)
		})
	}

	_, err := DivCeilU64(uint256.NewInt(1), 0)
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestMulDiv(t *testing.T) {
	// The intermediate product spans well past 256 bits but the quotient
	// fits again.
	got, err := MulDiv(pow2(200), pow2(100), pow2(100))
	require.NoError(t, err)
	assert.Equal(t, pow2(200), got)

	got, err = MulDiv(uint256.NewInt(10), uint256.NewInt(3), uint256.NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(7), got)

	_, err = MulDiv(pow2(200), pow2(100), uint256.NewInt(2))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(uint256.NewInt(1), uint256.NewInt(1), uint256.NewInt(0))
	assert.ErrorIs(t, err, ErrDivByZero)
}

func TestFitsBits(t *testing.T) {
	max96 := MaxBits(96)
	assert.True(t, FitsBits(max96, 96))
	assert.True(t, FitsBits(uint256.NewInt(0), 96))

	over := new(uint256.Int).AddUint64(max96, 1)
	assert.False(t, FitsBits(over, 96))
	assert.True(t, FitsBits(over, 97))
}

func TestMaxBits(t *testing.T) {
	assert.Equal(t, uint256.NewInt(0), MaxBits(0))
	assert.Equal(t, uint256.NewInt(255), MaxBits(8))

	max256 := MaxBits(256)
	assert.Equal(t, 256, max256.BitLen())

	_, overflow := new(uint256.Int).AddOverflow(max256, uint256.NewInt(1))
	assert.True(t, overflow)
}

func TestSaturateBits(t *testing.T) {
	small := uint256.NewInt(42)
	assert.Equal(t, small, SaturateBits(small, 104))

	over := new(uint256.Int).AddUint64(MaxBits(104), 1)
	assert.Equal(t, MaxBits(104), SaturateBits(over, 104))
}
