// Package db connects to the database, runs migrations, and seeds the
// role vocabulary.
package db

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/downpricer/downpricer/internal/config"
	"github.com/downpricer/downpricer/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the configured database with a retry loop (the DB
// container may still be starting in dev/CI).
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel), TranslateError: true}

	var db *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		switch cfg.Driver {
		case "sqlite":
			db, err = gorm.Open(sqlite.Open(cfg.SqlitePath), gcfg)
		default:
			db, err = gorm.Open(postgres.Open(cfg.DSN()), gcfg)
		}
		if err == nil {
			break
		}
		log.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	return db, nil
}

// Migrate brings the schema up to date. With MIGRATIONS enabled the SQL
// migrations in ./migrations run via golang-migrate (postgres only);
// otherwise AutoMigrate covers dev and sqlite.
func Migrate(db *gorm.DB, cfg config.DatabaseConfig, useSQLMigrations bool) error {
	if useSQLMigrations && cfg.Driver != "sqlite" {
		if err := runSQLMigrations(cfg); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(db); err != nil {
			return err
		}
	}
	for _, table := range []string{"roles", "users", "demandes", "sales"} {
		if !db.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// AutoMigrate creates/updates tables from the model structs.
func AutoMigrate(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Role{}, &models.User{}, &models.Subscription{},
		&models.Article{}, &models.Demande{}, &models.DepositPayment{},
		&models.Sale{}, &models.PaymentProof{}, &models.Minisite{},
		&models.AuditLog{}, &models.Notification{},
		&models.ProArticle{}, &models.ProTransaction{},
	}
	for _, m := range modelsToMigrate {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(cfg config.DatabaseConfig) error {
	url := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)
	m, err := migrate.New("file://migrations", url)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Seed ensures the role vocabulary exists and, in dev, a default admin
// account.
func Seed(db *gorm.DB, dev bool) error {
	roles := []models.Role{
		{Name: "CLIENT", Description: "Client passant des demandes"},
		{Name: "SELLER", Description: "Vendeur déclarant des ventes"},
		{Name: "ADMIN", Description: "Back office"},
		{Name: "SUPERADMIN", Description: "Back office, accès total"},
		{Name: "SITE_PLAN_1", Description: "Minisite starter"},
		{Name: "SITE_PLAN_2", Description: "Minisite standard"},
		{Name: "SITE_PLAN_3", Description: "Minisite premium"},
		{Name: "S_PLAN_5", Description: "Pro, palier 5"},
		{Name: "S_PLAN_10", Description: "Pro, palier 10 (legacy)"},
		{Name: "S_PLAN_15", Description: "Pro, palier 15"},
		{Name: "SITE_PLAN_10", Description: "Pro, ancien palier minisite"},
	}
	for _, r := range roles {
		var existing models.Role
		if err := db.Where("name = ?", r.Name).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&r).Error; err != nil {
				return err
			}
		}
	}

	if !dev {
		return nil
	}
	// Dev-only bootstrap admin.
	email := strings.ToLower(os.Getenv("ADMIN_EMAIL"))
	if email == "" {
		email = "admin@downpricer.local"
	}
	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return nil
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	var adminRole models.Role
	if err := db.Where("name = ?", "ADMIN").First(&adminRole).Error; err != nil {
		return err
	}
	admin := models.User{Email: email, Password: string(hash), Roles: []models.Role{adminRole}}
	return db.Create(&admin).Error
}
