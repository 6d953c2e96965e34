package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/callgenie/saathi-backend/pkg/env"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

// seed-pool loads phone numbers into the assignment pool. Numbers come
// from positional args, or one per line from a file via -file.
func main() {
	filePath := flag.String("file", "", "file with one phone number per line")
	flag.Parse()

	numbers := flag.Args()
	if *filePath != "" {
		fileNumbers, err := readNumbers(*filePath)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *filePath, err)
		}
		numbers = append(numbers, fileNumbers...)
	}

	if len(numbers) == 0 {
		fmt.Println("Usage: seed-pool [-file numbers.txt] [+14155550101 ...]")
		os.Exit(1)
	}

	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	if err := postgres.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	store := postgres.NewGormStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	inserted, err := store.SeedPhoneNumbers(ctx, numbers)
	if err != nil {
		log.Fatalf("Seeding failed after %d inserts: %v", inserted, err)
	}

	fmt.Printf("Seeded %d new numbers (%d already present)\n", inserted, len(numbers)-inserted)
}

func readNumbers(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var numbers []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		numbers = append(numbers, line)
	}
	return numbers, scanner.Err()
}
