package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/spontis/backend-spontis/internal/app"
)

// Seeds a development database with an admin account, one shipper and one
// carrier company, and an active pricing set so quotes work out of the box.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	userIDs := seedUsers(ctx, pool)
	seedCompanies(ctx, pool, userIDs)
	seedPricingSet(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool) map[string]string {
	users := []struct {
		Name    string
		Email   string
		IsAdmin bool
	}{
		{"Admin Spontis", "admin@spontis.ch", true},
		{"Claire Bonvin", "claire@helvetrans.ch", false},
		{"Marc Dubois", "marc@dubois-transports.ch", false},
		{"Lea Schmid", "lea@alpexpedition.ch", false},
	}

	log.Println("Seeding users...")
	ids := make(map[string]string)
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "spontis123"
	}
	hash, err := app.HashPassword(password)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	for _, u := range users {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, name, is_admin)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id;
		`, u.Email, hash, u.Name, u.IsAdmin).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
			continue
		}
		ids[u.Email] = id
	}
	return ids
}

func seedCompanies(ctx context.Context, pool *pgxpool.Pool, userIDs map[string]string) {
	companies := []struct {
		Name  string
		Role  string
		IDE   string
		Owner string
	}{
		{"Helvetrans SA", "EXPEDITEUR", "CHE-123.456.789", "claire@helvetrans.ch"},
		{"Dubois Transports Sàrl", "TRANSPORTEUR", "CHE-987.654.321", "marc@dubois-transports.ch"},
		{"Alpexpedition AG", "EXPEDITEUR", "CHE-555.111.222", "lea@alpexpedition.ch"},
	}

	log.Println("Seeding companies...")
	for _, c := range companies {
		ownerID, ok := userIDs[c.Owner]
		if !ok {
			log.Printf("Skipping company %s: owner %s missing", c.Name, c.Owner)
			continue
		}

		var companyID string
		err := pool.QueryRow(ctx, `
			INSERT INTO companies (name, role, ide)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM companies WHERE name = $1)
			RETURNING id;
		`, c.Name, c.Role, c.IDE).Scan(&companyID)
		if err != nil {
			// Already seeded on a previous run.
			if err := pool.QueryRow(ctx, `SELECT id FROM companies WHERE name = $1`, c.Name).Scan(&companyID); err != nil {
				log.Printf("Failed to seed company %s: %v", c.Name, err)
				continue
			}
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO company_members (company_id, user_id, role)
			VALUES ($1, $2, 'OWNER')
			ON CONFLICT (user_id) DO NOTHING;
		`, companyID, ownerID)
		if err != nil {
			log.Printf("Failed to seed membership for %s: %v", c.Owner, err)
		}
	}
}

func seedPricingSet(ctx context.Context, pool *pgxpool.Pool) {
	log.Println("Seeding pricing set...")

	variables := `{
		"tarif_km_base_chf": "1.85",
		"maj_carburant_pct": "6.0",
		"maj_embouteillage_pct": "4.0",
		"tva_rate_pct": "8.1"
	}`
	supplements := `[
		{"nom": "Livraison samedi", "type": "fix", "montant": "45.00"},
		{"nom": "Hayon", "type": "fix", "montant": "30.00"},
		{"nom": "Zone alpine", "type": "pct", "montant": "8.0"}
	]`

	_, err := pool.Exec(ctx, `
		INSERT INTO pricing_sets (name, version, is_active, variables, supplements)
		SELECT 'Tarifs standard', 1, true, $1::jsonb, $2::jsonb
		WHERE NOT EXISTS (SELECT 1 FROM pricing_sets WHERE is_active);
	`, variables, supplements)
	if err != nil {
		log.Printf("Failed to seed pricing set: %v", err)
	}
}
