// Package passwords hashes and checks admin passwords with bcrypt.
package passwords

import "golang.org/x/crypto/bcrypt"

const DefaultCost = 12

func Hash(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(b), err
}

// Check reports whether password matches hash. Malformed hashes never match.
func Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Cost returns the bcrypt cost encoded in hash.
func Cost(hash string) (int, error) {
	return bcrypt.Cost([]byte(hash))
}
