package database

import (
	"context"
	"database/sql"
	"log"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/config"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// defaultCategories is the reference data a fresh install starts with.
var defaultCategories = []model.Category{
	{Name: "Webinar", Description: "Online talks and live streams"},
	{Name: "Concert", Description: "Live music performances"},
	{Name: "Workshop", Description: "Hands-on sessions with limited seats"},
	{Name: "Conference", Description: "Multi-track industry conferences"},
	{Name: "Sports", Description: "Matches, races and tournaments"},
}

// Seed inserts default categories when the table is empty and creates a
// bootstrap admin account when none exists and credentials are
// configured. Both steps are idempotent so Seed can run on every start.
func Seed(ctx context.Context, db *sql.DB, cfg config.Config) error {
	if err := seedCategories(ctx, repository.NewCategoryRepo(db)); err != nil {
		return err
	}
	return seedAdmin(ctx, repository.NewUserRepo(db), cfg)
}

func seedCategories(ctx context.Context, repo *repository.CategoryRepo) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for i := range defaultCategories {
		c := defaultCategories[i]
		if err := repo.Create(ctx, &c); err != nil {
			return err
		}
	}
	log.Printf("seeded %d event categories", len(defaultCategories))
	return nil
}

func seedAdmin(ctx context.Context, repo *repository.UserRepo, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPass == "" {
		return nil
	}
	n, err := repo.CountByRole(ctx, repository.RoleAdmin)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	id, err := repo.Create(ctx, cfg.SeedAdminEmail, "Administrator",
		cfg.SeedAdminPass, repository.RoleAdmin, cfg.BcryptCost)
	if err != nil {
		return err
	}
	log.Printf("seeded bootstrap admin user id=%d", id)
	return nil
}
