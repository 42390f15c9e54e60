package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/member-registry/config"
	"github.com/oksasatya/member-registry/pkg/helpers"
)

// issue_token mints a staff bearer token for the write gate, or with -hash
// prints the bcrypt hash of an API key for API_KEY_HASH.
func main() {
	subject := flag.String("sub", "", "staff identifier recorded as the actor")
	role := flag.String("role", "staff", "role claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_TTL)")
	hash := flag.String("hash", "", "print the bcrypt hash of this API key and exit")
	flag.Parse()

	if *hash != "" {
		h, err := helpers.HashSecret(*hash)
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		fmt.Println(h)
		return
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET not set")
	}
	lifetime := cfg.JWTTTL
	if *ttl > 0 {
		lifetime = *ttl
	}
	tok, exp, err := helpers.NewJWTManager(cfg.JWTSecret, lifetime, cfg.JWTIssuer).Generate(*subject, *role)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	fmt.Println(tok)
	fmt.Printf("expires %s\n", exp.Format(time.RFC3339))
}
