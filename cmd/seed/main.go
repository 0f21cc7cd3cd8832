// Command seed applies the database schema and creates the initial
// admin account without starting the HTTP server. Useful for fresh
// environments and CI databases.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/config"
	"github.com/visitorlog/visitorlog-backend/internal/database"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to apply schema: %v", err)
	}
	logger.Info("Schema applied")

	if err := database.SeedAdminUser(db, *cfg, logger); err != nil {
		logger.Fatalf("Failed to seed admin user: %v", err)
	}

	logger.Info("Seeding complete")
}
