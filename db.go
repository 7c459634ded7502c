package main

import (
	"os"
	"strings"

	"memberhub/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// seedAdminStudentNumber identifies the bootstrap administrator account.
const seedAdminStudentNumber = 1000000000

// initDB opens the configured Postgres database and returns the stores.
// Without a DB_DSN the in-memory store is used instead, which is only
// useful for local development.
func initDB(cfg *Config) (MemberStore, RefreshTokenStore) {
	if cfg.DBDSN == "" {
		logger.Warn("DB_DSN not set; using in-memory store, data will not persist")
		mem := newMemoryStore()
		seedAdmin(mem, cfg)
		return mem, mem
	}

	var err error
	db, err = gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect postgres database", zap.Error(err))
	}

	// Control schema migrations with env DB_AUTO_MIGRATE (default true).
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		// Migrate models individually so a failure on one doesn't block others
		if err := db.AutoMigrate(&models.Member{}); err != nil {
			logger.Warn("migration warning (members)", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.RefreshToken{}); err != nil {
			logger.Warn("migration warning (refresh_tokens)", zap.Error(err))
		}
	}

	members := newGormMemberStore(db)
	refresh := newGormRefreshStore(db)
	seedAdmin(members, cfg)
	return members, refresh
}

// seedAdmin creates the bootstrap administrator credential if it is absent.
func seedAdmin(members MemberStore, cfg *Config) {
	if _, err := members.FindByStudentNumber(seedAdminStudentNumber); err == nil {
		return
	}
	admin := &models.Member{
		StudentNumber: seedAdminStudentNumber,
		PasswordHash:  HashPassword(envOr("ADMIN_SEED_PASSWORD", "admin123"), cfg.HashSalt),
	}
	admin.SetRoles([]models.Role{models.RoleMember, models.RoleAdmin})
	admin.SetPermissions([]models.Permission{models.PermMember, models.PermAdmin})
	if err := members.Save(admin); err != nil {
		logger.Warn("failed to seed admin member", zap.Error(err))
		return
	}
	logger.Info("seeded admin member", zap.Int64("student_number", seedAdminStudentNumber))
}
