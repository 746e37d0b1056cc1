package main

import (
	"fmt"
	"log"

	"github.com/lagoonresort/reservation-backend/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("Secret Generator for Lagoon Resort")
	fmt.Println("===========================================")
	fmt.Println()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	passphrase, err := utils.GenerateSecret(24)
	if err != nil {
		log.Fatalf("Failed to generate PayFast passphrase: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)
	fmt.Println()
	fmt.Println("Optional PayFast passphrase (must match the merchant dashboard):")
	fmt.Printf("PAYFAST_PASSPHRASE=%s\n", passphrase)
	fmt.Println()
	fmt.Println("Keep these secrets out of version control.")
	fmt.Println("===========================================")
}
