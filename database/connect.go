package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"zipline_manager/config"
)

func ConnectDB(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	logrus.Info("Connection Opened to Database")

	if err := db.AutoMigrate(&DocumentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logrus.Info("Database Migrated")
	return db, nil
}

// OpenStore picks the document backend named by STORE_BACKEND.
func OpenStore(cfg *config.AppConfig) (DocumentStore, error) {
	switch cfg.StoreBackend {
	case "github":
		return NewGitHubStore(GitHubStoreConfig{
			Token:  cfg.GitHub.Token,
			Owner:  cfg.GitHub.Owner,
			Repo:   cfg.GitHub.Repo,
			Branch: cfg.GitHub.Branch,
		})
	case "postgres":
		db, err := ConnectDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		return NewGormStore(db), nil
	case "memory":
		logrus.Warn("using in-memory document store, data is lost on restart")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}
