// Command adminhash prints a bcrypt hash for an admin account's password_hash setting.
//
//	adminhash 'correct horse battery staple'
//	ADMIN_PASSWORD=... adminhash
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/weddingpass/pass-api/internal/platform/auth/passwords"
)

func main() {
	pw := os.Getenv("ADMIN_PASSWORD")
	if len(os.Args) > 1 {
		pw = os.Args[1]
	}
	if pw == "" {
		log.Fatalf("usage: adminhash <password> (or set ADMIN_PASSWORD)")
	}
	hash, err := passwords.Hash(pw, passwords.DefaultCost)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}
