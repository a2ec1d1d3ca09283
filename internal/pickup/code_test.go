package pickup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlphabet(t *testing.T) {
	assert.Len(t, Alphabet, 32)
	for _, c := range "0O1I" {
		assert.NotContains(t, Alphabet, string(c))
	}
	seen := map[rune]bool{}
	for _, c := range Alphabet {
		assert.False(t, seen[c], "duplicate symbol %q", c)
		seen[c] = true
	}
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			require.True(t, strings.ContainsRune(Alphabet, c), "symbol %q", c)
		}
		seen[code] = true
	}
	// 2000 draws from 32^6 should essentially never collide
	assert.Greater(t, len(seen), 1990)
}

func TestComputeExpiry(t *testing.T) {
	loc := time.FixedZone("EET", 2*3600)
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, loc)

	exp := ComputeExpiry(now, 10)
	assert.Equal(t, time.UTC, exp.Location())
	assert.Equal(t, 10*time.Minute, exp.Sub(now))
}

func TestIsExpiredBoundary(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := ComputeExpiry(issued, DefaultTTLMinutes)

	assert.False(t, IsExpired(exp, issued))
	assert.False(t, IsExpired(exp, exp), "the expiry instant itself is still valid")
	assert.True(t, IsExpired(exp, exp.Add(time.Nanosecond)))
	assert.True(t, IsExpired(exp, issued.Add(10*time.Minute+time.Second)))
}

func TestParseCode(t *testing.T) {
	code, err := ParseCode("  abc234\n")
	require.NoError(t, err)
	assert.Equal(t, "ABC234", code)

	for _, raw := range []string{"", "ABC23", "ABC2345", "ABC0DE", "ABCIDE", "AB C23", "ÄBC234"} {
		_, err := ParseCode(raw)
		assert.ErrorIs(t, err, ErrValidation, "%q", raw)
	}
}

func TestFormatRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(9*time.Minute + 45*time.Second)

	assert.Equal(t, "09:45", FormatRemaining(exp, now))
	assert.Equal(t, "00:00", FormatRemaining(exp, exp))
	assert.Equal(t, "Expired", FormatRemaining(exp, exp.Add(time.Second)))
	assert.Equal(t, time.Duration(0), Remaining(exp, exp.Add(time.Minute)))
}
