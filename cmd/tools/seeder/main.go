package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	serviceIDs := seedServices(db)
	seedPackages(db, serviceIDs)
	seedOrderMaps(db, serviceIDs)
	seedChecklists(db)

	log.Println("Seeding completed successfully!")
}

type variantSeed struct {
	Name  string
	Price int64
}

type serviceSeed struct {
	Name        string
	Category    string
	Subcategory string
	Price       int64
	Hourly      bool
	Variants    []variantSeed
}

// Prices in cents.
var services = []serviceSeed{
	{Name: "Vacuum & dust removal", Category: "interior", Subcategory: "cleaning", Price: 4500},
	{Name: "Upholstery shampoo", Category: "interior", Subcategory: "cleaning", Price: 9000},
	{Name: "Leather treatment", Category: "interior", Subcategory: "care", Price: 12000},
	{Name: "Ozone odour removal", Category: "interior", Subcategory: "care", Price: 6000, Hourly: true},
	{Name: "Pet hair removal", Category: "interior", Subcategory: "cleaning", Price: 5000, Hourly: true},
	{Name: "Hand wash & dry", Category: "exterior", Subcategory: "wash", Price: 3500},
	{Name: "Clay bar decontamination", Category: "exterior", Subcategory: "paint", Price: 8000},
	{Name: "Machine polish", Category: "exterior", Subcategory: "paint", Variants: []variantSeed{
		{Name: "One-step polish", Price: 25000},
		{Name: "Two-step correction", Price: 45000},
		{Name: "Full paint correction", Price: 80000},
	}},
	{Name: "Ceramic coating", Category: "exterior", Subcategory: "protection", Variants: []variantSeed{
		{Name: "1-year coat", Price: 35000},
		{Name: "3-year coat", Price: 65000},
	}},
	{Name: "Wheel & arch detail", Category: "exterior", Subcategory: "wash", Price: 6000},
	{Name: "Engine bay cleaning", Category: "exterior", Subcategory: "wash", Price: 7500},
	{Name: "Headlight restoration", Category: "exterior", Subcategory: "paint", Price: 9000},
}

func seedServices(db *sql.DB) map[string]string {
	fmt.Println("Seeding Services...")
	ids := make(map[string]string, len(services))
	for _, s := range services {
		hasVariants := len(s.Variants) > 0
		var id string
		err := db.QueryRow(`
			INSERT INTO services (name, price, hourly, has_variants, subcategory, main_category)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id;
		`, s.Name, s.Price, s.Hourly, hasVariants, s.Subcategory, s.Category).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed service %s: %v", s.Name, err)
			continue
		}
		ids[s.Name] = id
		for pos, v := range s.Variants {
			if _, err := db.Exec(`
				INSERT INTO service_variants (service_id, name, price, position)
				VALUES ($1, $2, $3, $4);
			`, id, v.Name, v.Price, pos); err != nil {
				log.Printf("Failed to seed variant %s / %s: %v", s.Name, v.Name, err)
			}
		}
	}
	return ids
}

func seedPackages(db *sql.DB, serviceIDs map[string]string) {
	packages := []struct {
		Name    string
		Price   int64
		Members []string
	}{
		{"Fresh Start", 15000, []string{"Vacuum & dust removal", "Hand wash & dry", "Wheel & arch detail"}},
		{"Showroom Interior", 27000, []string{"Vacuum & dust removal", "Upholstery shampoo", "Leather treatment"}},
		{"Winter Prep", 42000, []string{"Hand wash & dry", "Clay bar decontamination", "Wheel & arch detail", "Headlight restoration"}},
	}

	fmt.Println("Seeding Packages...")
	for _, p := range packages {
		var id string
		err := db.QueryRow(`
			INSERT INTO packages (name, price) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET price = EXCLUDED.price
			RETURNING id;
		`, p.Name, p.Price).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed package %s: %v", p.Name, err)
			continue
		}
		for pos, member := range p.Members {
			sid, ok := serviceIDs[member]
			if !ok {
				log.Printf("Missing service %q for package %s", member, p.Name)
				continue
			}
			if _, err := db.Exec(`
				INSERT INTO package_services (package_id, service_id, position)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING;
			`, id, sid, pos); err != nil {
				log.Printf("Failed to link %s to package %s: %v", member, p.Name, err)
			}
		}
	}
}

func seedOrderMaps(db *sql.DB, serviceIDs map[string]string) {
	fmt.Println("Seeding Order Maps...")

	// Categories in fixed display order, then the wash subcategory leading
	// inside exterior.
	upsertOrderMap(db, "category", "root", map[string]int{"interior": 0, "exterior": 1, "package": 2})
	upsertOrderMap(db, "subcategory", "exterior", map[string]int{"wash": 0, "paint": 1, "protection": 2})

	washOrder := map[string]int{}
	for i, name := range []string{"Hand wash & dry", "Wheel & arch detail", "Engine bay cleaning"} {
		if id, ok := serviceIDs[name]; ok {
			washOrder[id] = i
		}
	}
	upsertOrderMap(db, "service", "exterior/wash", washOrder)
}

func upsertOrderMap(db *sql.DB, scope, group string, ranks map[string]int) {
	data, err := json.Marshal(ranks)
	if err != nil {
		log.Printf("Failed to encode order map %s/%s: %v", scope, group, err)
		return
	}
	if _, err := db.Exec(`
		INSERT INTO order_maps (scope, group_key, ranks) VALUES ($1, $2, $3)
		ON CONFLICT (scope, group_key) DO UPDATE SET ranks = EXCLUDED.ranks;
	`, scope, group, data); err != nil {
		log.Printf("Failed to seed order map %s/%s: %v", scope, group, err)
	}
}

func seedChecklists(db *sql.DB) {
	checklists := map[string][]string{
		"Full detail handover": {
			"Photograph car on arrival",
			"Note existing paint damage",
			"Remove personal items to tray",
			"Final inspection with customer",
		},
		"Ceramic coating aftercare": {
			"Confirm no wash for 7 days",
			"Hand over aftercare sheet",
			"Book 2-week checkup",
		},
	}

	fmt.Println("Seeding Checklists...")
	for name, items := range checklists {
		var id string
		err := db.QueryRow(`
			INSERT INTO checklists (name) VALUES ($1) RETURNING id;
		`, name).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed checklist %s: %v", name, err)
			continue
		}
		for pos, label := range items {
			if _, err := db.Exec(`
				INSERT INTO checklist_items (checklist_id, label, position)
				VALUES ($1, $2, $3);
			`, id, label, pos); err != nil {
				log.Printf("Failed to seed checklist item %s: %v", label, err)
			}
		}
	}
}
