package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"fooddash/internal/config"
	"fooddash/internal/models"
	"fooddash/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// devtoken mints an access token signed with the server's JWT settings, for
// calling the API locally without the identity service.
func main() {
	var (
		userHex = flag.String("user", "", "User ObjectID (hex); a new one is generated when empty")
		role    = flag.String("role", string(models.RoleCustomer), "Role: customer, restaurant or admin")
		ttl     = flag.Duration("ttl", time.Hour, "Token lifetime")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Mint a development access token\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  devtoken [--user <hex>] [--role <role>] [--ttl <duration>]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if !models.Role(*role).IsValid() {
		fmt.Fprintf(os.Stderr, "Error: unknown role %q\n", *role)
		os.Exit(2)
	}

	userID := primitive.NewObjectID()
	if *userHex != "" {
		id, err := primitive.ObjectIDFromHex(*userHex)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid user id: %v\n", err)
			os.Exit(2)
		}
		userID = id
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	token, err := utils.GenerateToken(userID, *role, cfg.Security.JWTIssuer, cfg.Security.JWTSecret, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user_id=%s role=%s expires_in=%s\n", userID.Hex(), *role, *ttl)
	fmt.Println(token)
}
