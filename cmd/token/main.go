// Command token mints API tokens for clinic front-ends and service integrations.
package main

import (
	"flag"
	"fmt"
	"log"

	"clinic-backend/internal/auth"
	"clinic-backend/internal/config"
)

func main() {
	subject := flag.String("subject", "", "Token subject (user email or integration name)")
	role := flag.String("role", auth.RoleClinic, "Role: admin, service or clinic")
	clinicID := flag.String("clinic", "", "Clinic ID (required for clinic tokens)")
	hours := flag.Int("hours", 0, "Expiry in hours (overrides jwt.expiration_hours)")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-subject is required")
	}
	switch *role {
	case auth.RoleAdmin, auth.RoleService, auth.RoleClinic:
	default:
		log.Fatalf("Unknown role %q", *role)
	}

	cfg := config.Load()
	if *hours > 0 {
		cfg.JWT.ExpirationHours = *hours
	}

	token, err := auth.NewJWTManager(cfg).GenerateToken(*subject, *clinicID, *role)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}
	fmt.Println(token)
}
