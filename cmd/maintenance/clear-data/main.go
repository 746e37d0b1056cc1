package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lagoonresort/reservation-backend/internal/config"
	"github.com/lagoonresort/reservation-backend/internal/database"
)

// Reservation data, children first. Accounts are listed separately so they can be kept.
var (
	reservationTables = []string{
		"payments",
		"bookings",
		"customers",
		"images",
		"room_amenities",
		"amenities",
		"rooms",
	}
	accountTables = []string{
		"audit_logs",
		"password_resets",
		"refresh_tokens",
		"user_profiles",
		"users",
	}
)

func main() {
	var dbURLFlag string
	var keepAccounts bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&keepAccounts, "keep-accounts", false, "keep users, sessions and audit logs")
	flag.Parse()

	// Load .env from the working directory so secrets stay off the command line
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	tables := reservationTables
	if !keepAccounts {
		tables = append(append([]string{}, reservationTables...), accountTables...)
	}

	fmt.Println("Connected to database. Truncating tables...")
	truncateSQL := "TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE"
	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("Data cleared (tables truncated, identities reset).")
	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
