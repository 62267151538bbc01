package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/linesmerrill/violation-case-api/session"
)

// Quick utility to mint a staff bearer token for local testing. Roles are reloaded from
// the users collection on every request, so the user must exist there.
// Usage: JWT_SECRET=... go run scripts/issue_token.go <userID> [ttl]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: JWT_SECRET=... go run scripts/issue_token.go <userID> [ttl]")
		fmt.Println("Example: JWT_SECRET=dev go run scripts/issue_token.go 64b7f0c2e1a4 12h")
		os.Exit(1)
	}

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		fmt.Println("JWT_SECRET must be set")
		os.Exit(1)
	}
	ttl := 8 * time.Hour
	if len(os.Args) > 2 {
		d, err := time.ParseDuration(os.Args[2])
		if err != nil {
			fmt.Printf("Invalid ttl: %v\n", err)
			os.Exit(1)
		}
		ttl = d
	}

	token, expiresAt, err := session.Issue([]byte(secret), os.Args[1], session.Claims{}, time.Now(), ttl)
	if err != nil {
		fmt.Printf("Error issuing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Subject: %s\n", os.Args[1])
	fmt.Printf("Expires: %s\n", expiresAt.Format(time.RFC3339))
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("\ncurl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/cases\n", token)
}
