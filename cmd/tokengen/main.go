package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/GTDGit/catalog_api/internal/utils"
)

// main mints a vendor token for the /v1/vendor endpoints. JWT_SECRET is read
// from the environment or a .env file.
func main() {
	vendorID := flag.String("vendor", "", "vendor id to put in the token subject")
	email := flag.String("email", "", "optional vendor email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET must be set")
		os.Exit(1)
	}
	if *vendorID == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := utils.GenerateJWT(secret, *vendorID, *email, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
