package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS votes CASCADE`,
		`DROP TABLE IF EXISTS candidates CASCADE`,
		`DROP TABLE IF EXISTS elections CASCADE`,
		`DROP TABLE IF EXISTS organizations CASCADE`,
		`DROP TABLE IF EXISTS user_roles CASCADE`,
		`DROP TABLE IF EXISTS roles CASCADE`,
		`DROP TABLE IF EXISTS users CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			employee_id VARCHAR(64) UNIQUE,
			password_hash VARCHAR(255),
			full_name VARCHAR(255),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS roles (
			id SERIAL PRIMARY KEY,
			name VARCHAR(64) NOT NULL UNIQUE
		)`,

		`CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id INTEGER NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			PRIMARY KEY (user_id, role_id)
		)`,

		`CREATE TABLE IF NOT EXISTS organizations (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS elections (
			id UUID PRIMARY KEY,
			organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'draft',
			created_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT ck_elections_window CHECK (end_time > start_time),
			CONSTRAINT ck_elections_status CHECK (status IN ('draft', 'active', 'closed'))
		)`,

		`CREATE TABLE IF NOT EXISTS candidates (
			id UUID PRIMARY KEY,
			election_id UUID NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// The ledger carries the hashed anonymous token, never a user
		// reference. The composite constraint is the duplicate-vote guard.
		`CREATE TABLE IF NOT EXISTS votes (
			id UUID PRIMARY KEY,
			election_id UUID NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
			candidate_id UUID NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
			hashed_token CHAR(64) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT uq_votes_election_token UNIQUE (election_id, hashed_token)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_elections_organization ON elections(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_election ON candidates(election_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_election_candidate ON votes(election_id, candidate_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	fmt.Println("  Created: users, roles, user_roles, organizations, elections, candidates, votes")

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	for _, role := range []string{"SUPER_ADMIN", "ORG_ADMIN", "ELECTION_MANAGER", "VOTER"} {
		if _, err := conn.Exec(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", role, err)
		}
	}
	fmt.Println("  Seeded: roles")

	email := os.Getenv("SUPER_ADMIN_EMAIL")
	password := os.Getenv("SUPER_ADMIN_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("  Skipped: super admin (SUPER_ADMIN_EMAIL / SUPER_ADMIN_PASSWORD not set)")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}

	adminID := uuid.New().String()
	if _, err := conn.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, is_active)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (email) DO NOTHING`,
		adminID, email, string(hash)); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	if _, err := conn.Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id)
		 SELECT u.id, r.id FROM users u, roles r
		 WHERE u.email = $1 AND r.name = 'SUPER_ADMIN'
		 ON CONFLICT DO NOTHING`,
		email); err != nil {
		return fmt.Errorf("failed to grant super admin role: %w", err)
	}

	fmt.Println("  Seeded: super admin " + email)
	return nil
}
