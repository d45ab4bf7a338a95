//go:build ignore

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

// Clears all marketplace data from a local database. Development only.
func main() {
	dbURL := os.Getenv("BAZAAR_DATABASE_URL")
	if dbURL == "" {
		log.Fatal("BAZAAR_DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// FK order: sales and transactions first, reference data last.
	tables := []string{
		"product_sales",
		"transactions",
		"payouts",
		"purchase_orders",
		"products",
		"marketplaces",
		"tokens",
		"networks",
	}

	fmt.Printf("Clearing %d tables...\n", len(tables))
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			log.Printf("Warning: Failed to truncate %s: %v", table, err)
			continue
		}
		fmt.Printf("✓ Cleared %s\n", table)
	}

	fmt.Println("\n✅ All marketplace data cleared")
}
