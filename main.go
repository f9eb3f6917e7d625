// @title TOEFL Simulation API
// @version 1.0
// @description Practice test assembly, scoring and review for the TOEFL portal.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"
	"toefl_sim_backend/internal/app"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "run database migrations and exit")
	migrate := flag.Bool("migrate", false, "run database migrations at startup even in release mode")
	importPath := flag.String("import", "", "import a question bank YAML file and exit")
	flag.Parse()

	// .env is optional; real environments set variables directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded")
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly || *importPath != ""
	cfg.MigrateOnly = *migrateOnly
	cfg.ImportPath = *importPath

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *migrateOnly {
		log.Println("Database migration finished")
		return
	}

	if *importPath != "" {
		if err := application.ImportBank(context.Background(), *importPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	application.Run()
}
