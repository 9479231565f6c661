package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"postboard/internal/config"
	"postboard/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will do for a given mode and environment.
// SQL migrations are authoritative; AutoMigrate only tops up dev databases.
type schemaPlan struct {
	mode    string
	env     string
	sql     bool
	autoMig bool
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	p := schemaPlan{
		mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)),
		env:  cfg.Env,
	}
	if p.mode == "" {
		p.mode = SchemaModeHybrid
	}

	var prodLike bool
	switch strings.ToLower(strings.TrimSpace(cfg.Env)) {
	case "production", "prod", "staging":
		prodLike = true
	}

	switch p.mode {
	case SchemaModeSQL:
		p.sql = true
	case SchemaModeHybrid:
		p.sql = true
		p.autoMig = !prodLike
	case SchemaModeAuto:
		if prodLike {
			return p, fmt.Errorf("DB_SCHEMA_MODE=auto is not allowed in %q", cfg.Env)
		}
		p.autoMig = true
	default:
		return p, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", p.mode)
	}
	return p, nil
}

// AutoMigrate creates or updates tables for every persistent model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the database up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}
	if plan.sql {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations: %w", err)
		}
	}
	if !plan.autoMig {
		return nil
	}
	middleware.Logger.InfoContext(ctx, "auto-migrating models",
		slog.String("mode", plan.mode), slog.String("env", plan.env))
	if err := AutoMigrate(db.WithContext(ctx)); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// SchemaStatus is the read-only view behind `migrate status`.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
}

// GetSchemaStatus reports applied and pending migrations without changing anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        plan.env,
		WillRunSQL:         plan.sql,
		WillRunAutoMigrate: plan.autoMig,
		AppliedVersions:    applied,
		PendingMigrations:  pendingMigrations(applied, GetMigrations()),
	}
	return status, nil
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, m := range registered {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending
}
