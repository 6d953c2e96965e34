package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/callgenie/saathi-backend/pkg/env"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("Database Connection Diagnostic Tool")
	fmt.Println("========================================")
	fmt.Println()

	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Postgres host: %s:%d\n", cfg.DBHost, cfg.DBPort)
	fmt.Printf("Database name: %s\n", cfg.DBName)
	fmt.Println()

	fmt.Println("Test 1: Connecting...")
	db, err := postgres.Connect(cfg)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		fmt.Println()
		fmt.Println("Check DB_HOST, DB_PORT, DB_USER, DB_PASSWORD and DB_NAME in .env")
		return
	}
	fmt.Println("OK: connected")
	fmt.Println()

	fmt.Println("Test 2: Running migrations...")
	if err := postgres.AutoMigrate(db); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	fmt.Println("OK: schema up to date")
	fmt.Println()

	store := postgres.NewGormStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("Test 3: Pinging...")
	if err := store.Ping(ctx); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		return
	}
	fmt.Println("OK: database reachable")
	fmt.Println()
	fmt.Println("All checks passed.")
}
