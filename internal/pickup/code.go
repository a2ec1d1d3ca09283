package pickup

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// Alphabet omits 0, O, I and 1, which are easily misread on a phone
// screen or aloud.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	CodeLength        = 6
	DefaultTTLMinutes = 10
)

// GenerateCode draws CodeLength symbols from crypto/rand. The alphabet has
// 32 symbols so masking five bits keeps the draw uniform.
func GenerateCode() (string, error) {
	var buf [CodeLength]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate pickup code: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[b&31]
	}
	return string(buf[:]), nil
}

func ComputeExpiry(now time.Time, minutes int) time.Time {
	return now.UTC().Add(time.Duration(minutes) * time.Minute)
}

// IsExpired is false at the exact expiry instant.
func IsExpired(expiry, now time.Time) bool {
	return now.After(expiry)
}

// NormalizeCode accepts manual entry and scanned QR payloads alike.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("%w: want %d characters, got %d", ErrValidation, CodeLength, len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return fmt.Errorf("%w: %q is not a valid symbol", ErrValidation, r)
		}
	}
	return nil
}

// ParseCode normalizes and validates raw in one step.
func ParseCode(raw string) (string, error) {
	code := NormalizeCode(raw)
	if err := ValidateCode(code); err != nil {
		return "", err
	}
	return code, nil
}

// Remaining is zero once the code has expired.
func Remaining(expiry, now time.Time) time.Duration {
	if d := expiry.Sub(now); d > 0 {
		return d
	}
	return 0
}

// FormatRemaining renders the countdown shown next to the code.
func FormatRemaining(expiry, now time.Time) string {
	if IsExpired(expiry, now) {
		return "Expired"
	}
	secs := int(Remaining(expiry, now).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
