package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kofiboateng/cschool/internal/app/models"
	"github.com/kofiboateng/cschool/internal/app/repositories"
	"github.com/kofiboateng/cschool/internal/config"
	"github.com/kofiboateng/cschool/internal/pkg/auth"
	"github.com/kofiboateng/cschool/internal/pkg/codes"
)

// CreateDefaultData seeds the first staff account and the academic calendar
// fixtures on an empty database. Safe to run on every startup.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	if err := seedFirstAdmin(ctx, dbPool, cfg, lgr); err != nil {
		return err
	}
	if err := seedAcademicCalendar(ctx, dbPool, lgr); err != nil {
		return err
	}
	return nil
}

// seedFirstAdmin creates the bootstrap staff account. Skipped as soon as any
// admin row exists, so credential rotation happens through the application.
func seedFirstAdmin(ctx context.Context, dbPool *pgxpool.Pool, cfg *config.Config, lgr zerolog.Logger) error {
	adminRepo := repositories.NewAdminRepository(dbPool)

	count, err := adminRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("error counting admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := cfg.Admin.Password
	generated := false
	if password == "" {
		password, err = codes.TempPassword(12)
		if err != nil {
			return fmt.Errorf("error generating admin password: %w", err)
		}
		generated = true
	}

	hash, err := auth.HashSecret(password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	admin := &models.Admin{
		Username: cfg.Admin.Username,
		Password: hash,
		FullName: cfg.Admin.FullName,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := adminRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("error creating first admin: %w", err)
	}

	event := lgr.Info().Str("username", admin.Username)
	if generated {
		// Printed once; there is no other way to recover it.
		event = event.Str("password", password)
	}
	event.Msg("First staff account created")
	return nil
}

// seedAcademicCalendar inserts the standard class ladder and a first academic
// year so vouchers and admissions have placements to bind to. Idempotent.
func seedAcademicCalendar(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	_, err := dbPool.Exec(ctx, `
		INSERT INTO academic_years (name, status, start_date, end_date)
		VALUES ('2026/2027', 'ACTIVE', '2026-09-01', '2027-07-31')
		ON CONFLICT (name) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("error seeding academic year: %w", err)
	}

	classes := []struct {
		name  string
		level string
	}{
		{"KG 1", "KG"},
		{"KG 2", "KG"},
		{"Primary 1", "Primary"},
		{"Primary 2", "Primary"},
		{"Primary 3", "Primary"},
		{"Primary 4", "Primary"},
		{"Primary 5", "Primary"},
		{"Primary 6", "Primary"},
		{"JHS 1", "JHS"},
		{"JHS 2", "JHS"},
		{"JHS 3", "JHS"},
	}
	for _, class := range classes {
		_, err := dbPool.Exec(ctx, `
			INSERT INTO class_rooms (name, level)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, class.name, class.level)
		if err != nil {
			return fmt.Errorf("error seeding class %s: %w", class.name, err)
		}
	}

	terms := []struct {
		name  string
		start string
		end   string
	}{
		{"Term 1", "2026-09-01", "2026-12-18"},
		{"Term 2", "2027-01-05", "2027-04-01"},
		{"Term 3", "2027-04-19", "2027-07-31"},
	}
	for _, term := range terms {
		_, err := dbPool.Exec(ctx, `
			INSERT INTO terms (academic_year_id, name, start_date, end_date)
			SELECT id, $1, $2::date, $3::date FROM academic_years WHERE name = '2026/2027'
			ON CONFLICT (academic_year_id, name) DO NOTHING`, term.name, term.start, term.end)
		if err != nil {
			return fmt.Errorf("error seeding term %s: %w", term.name, err)
		}
	}

	lgr.Debug().Msg("Academic calendar fixtures checked")
	return nil
}
