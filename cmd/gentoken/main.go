// cmd/gentoken/main.go — mints an access token for an operator.
// Usage: go run cmd/gentoken/main.go -id 1 -username ivan -role owner
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"agrosnab/internal/config"
	"agrosnab/internal/middleware"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	id := flag.Int64("id", 1, "actor id recorded on ledger rows")
	username := flag.String("username", "admin", "actor username")
	role := flag.String("role", middleware.RoleOwner, "owner | manager | viewer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		ActorID:  *id,
		Username: *username,
		Role:     *role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("sign error: %v", err)
	}
	fmt.Println(signed)
}
