// seed inserts development data for local testing: approved signup domains
// for every portal and a bootstrap admin account. Idempotent: existing rows
// are left alone.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"talentgrid/backend/internal/config"
	"talentgrid/backend/internal/db"
	directorydomain "talentgrid/backend/internal/directory/domain"
	directoryrepo "talentgrid/backend/internal/directory/repository"
	"talentgrid/backend/internal/region"
	"talentgrid/backend/internal/security"
	userdomain "talentgrid/backend/internal/user/domain"
	userrepo "talentgrid/backend/internal/user/repository"
)

const (
	adminEmail  = "admin@talentgrid.example"
	adminRegion = region.IND1
)

var devDomains = []directorydomain.ApprovedDomain{
	{Domain: "example.com", Portal: userdomain.PortalHub, Region: region.IND1},
	{Domain: "employer.example.com", Portal: userdomain.PortalOrg, Region: region.USA1},
	{Domain: "agency.example.com", Portal: userdomain.PortalAgency, Region: region.DEU1},
	{Domain: "talentgrid.example", Portal: userdomain.PortalAdmin, Region: adminRegion},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}

	dirPool, err := db.Open(ctx, cfg.DirectoryDatabaseURL)
	if err != nil {
		log.Fatalf("directory db: %v", err)
	}
	defer dirPool.Close()

	regionURLs, err := cfg.RegionURLs()
	if err != nil {
		log.Fatalf("region config: %v", err)
	}
	pools := make(map[region.Region]*pgxpool.Pool, len(regionURLs))
	for rg, dsn := range regionURLs {
		pool, err := db.Open(ctx, dsn)
		if err != nil {
			log.Fatalf("region db %s: %v", rg, err)
		}
		pools[rg] = pool
	}
	router, err := region.NewRouter(pools)
	if err != nil {
		log.Fatalf("region router: %v", err)
	}
	defer router.Close()

	dir := directoryrepo.NewPostgresRepository(dirPool)
	now := time.Now().UTC()

	for _, d := range devDomains {
		d.CreatedAt = now
		if err := dir.CreateApprovedDomain(ctx, &d); err != nil {
			log.Fatalf("approve domain %s: %v", d.Domain, err)
		}
		log.Printf("approved %s for %s (%s)", d.Domain, d.Portal, d.Region)
	}

	existing, err := dir.LookupEmail(ctx, userdomain.PortalAdmin, adminEmail)
	if err != nil {
		log.Fatalf("lookup admin: %v", err)
	}
	if existing != nil {
		log.Printf("admin %s already present; done", adminEmail)
		return
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123$dev"
	}
	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(password))
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}

	admin := &userdomain.User{
		ID:                uuid.New().String(),
		Portal:            userdomain.PortalAdmin,
		Email:             adminEmail,
		Handle:            "admin",
		Name:              "Platform Admin",
		PasswordHash:      hash,
		Status:            userdomain.StatusActive,
		PreferredLanguage: "en",
		Region:            adminRegion,
		Roles:             userdomain.DefaultRoles[userdomain.PortalAdmin],
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	users := userrepo.NewPostgresRepository(router)
	if err := users.Create(ctx, adminRegion, admin); err != nil {
		log.Fatalf("create admin: %v", err)
	}
	if err := dir.CreateEntry(ctx, &directorydomain.Entry{
		Portal:    userdomain.PortalAdmin,
		Email:     adminEmail,
		Region:    adminRegion,
		UserID:    admin.ID,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("directory entry for admin: %v", err)
	}
	log.Printf("seeded admin %s in %s", adminEmail, adminRegion)
}
