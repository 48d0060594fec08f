package reservations

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/weddingpass/pass-api/internal/domain"
)

// codeSpace is the number of distinct 4-digit suffixes.
var codeSpace = big.NewInt(10000)

// GenerateCode returns a random invitation code such as "WED-0427".
// It does not guarantee uniqueness; the caller retries on collision.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%s-%04d", domain.CodePrefix, n.Int64()), nil
}
