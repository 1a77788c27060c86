package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/verimail/internal/domain"
)

// Format selects the shape of a generated credential value.
type Format string

const (
	// FormatToken is a URL-safe random string, suitable for verification links.
	FormatToken Format = "token"
	// FormatCode is a fixed-width decimal code with leading zeros, suitable
	// for manual entry or SMS delivery.
	FormatCode Format = "code"
)

const (
	// DefaultTokenLength gives 132 bits of entropy over the 64-char alphabet.
	DefaultTokenLength = 22
	DefaultCodeLength  = 6

	// maxCodeLength keeps the code range inside int64.
	maxCodeLength = 18
)

// urlAlphabet is the URL-safe character set (RFC 4648 base64url, no padding).
const urlAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// Generate produces a random credential value. It is a pure function of
// (format, length, crypto/rand) with no other state: collision arbitration
// belongs to the store, not the generator.
func Generate(format Format, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive, got %d: %w", length, domain.ErrInvalidConfig)
	}
	switch format {
	case FormatToken:
		return token(length)
	case FormatCode:
		if length > maxCodeLength {
			return "", fmt.Errorf("code length %d exceeds %d digits: %w", length, maxCodeLength, domain.ErrInvalidConfig)
		}
		return code(length)
	default:
		return "", fmt.Errorf("unknown format %q: %w", format, domain.ErrInvalidConfig)
	}
}

func token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	// len(urlAlphabet) is 64, so masking the low 6 bits keeps the draw uniform.
	for i := range b {
		b[i] = urlAlphabet[b[i]&0x3f]
	}
	return string(b), nil
}

// code draws uniformly from [0, 10^n) so leading zeros are as likely as any
// other digit.
func code(n int) (string, error) {
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", n, v.Int64()), nil
}
