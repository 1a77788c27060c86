package otp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verimail/internal/domain"
)

func TestGenerate_Token_LengthAndAlphabet(t *testing.T) {
	v, err := Generate(FormatToken, DefaultTokenLength)
	require.NoError(t, err)
	assert.Len(t, v, DefaultTokenLength)
	for _, c := range v {
		assert.True(t, strings.ContainsRune(urlAlphabet, c), "unexpected char %q", c)
	}
}

func TestGenerate_Token_Independent(t *testing.T) {
	a, err := Generate(FormatToken, DefaultTokenLength)
	require.NoError(t, err)
	b, err := Generate(FormatToken, DefaultTokenLength)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerate_Code_FixedWidth(t *testing.T) {
	for i := 0; i < 100; i++ {
		v, err := Generate(FormatCode, 6)
		require.NoError(t, err)
		require.Len(t, v, 6)
		for _, c := range v {
			require.True(t, c >= '0' && c <= '9')
		}
	}
}

// Draw 10k six-digit codes and check each digit position is roughly uniform.
// With 10k samples each digit value should appear ~1000 times per position;
// a ±35% band is far wider than any plausible statistical wobble but catches
// systematic bias (e.g. a generator that never emits leading zeros).
func TestGenerate_Code_UniformDigits(t *testing.T) {
	const samples = 10000
	counts := [6][10]int{}
	leadingZero := 0
	for i := 0; i < samples; i++ {
		v, err := Generate(FormatCode, 6)
		require.NoError(t, err)
		if v[0] == '0' {
			leadingZero++
		}
		for pos := 0; pos < 6; pos++ {
			counts[pos][v[pos]-'0']++
		}
	}
	for pos := 0; pos < 6; pos++ {
		for d := 0; d < 10; d++ {
			c := counts[pos][d]
			assert.Greater(t, c, 650, "digit %d at position %d underrepresented (%d)", d, pos, c)
			assert.Less(t, c, 1350, "digit %d at position %d overrepresented (%d)", d, pos, c)
		}
	}
	// ~10% of codes start with zero.
	assert.Greater(t, leadingZero, 650)
}

func TestGenerate_InvalidLength(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Generate(FormatToken, n)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
		_, err = Generate(FormatCode, n)
		assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
	}
	_, err := Generate(FormatCode, maxCodeLength+1)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestGenerate_UnknownFormat(t *testing.T) {
	_, err := Generate(Format("hex"), 6)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}
