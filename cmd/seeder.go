package cmd

import (
	"context"
	"log"

	"github.com/frahmantamala/crm-backoffice/internal/core/database"
	"github.com/frahmantamala/crm-backoffice/internal/core/seed"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the permission catalogue, roles, users and reference data from a YAML fixture. Safe to run repeatedly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		setupLogger(cfg)

		fx, err := seed.Load(seedFile)
		if err != nil {
			log.Fatalf("failed to load fixture: %v", err)
		}

		sdb, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sdb.Close()

		db, err := database.Open(sdb.DB, false)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		seeder := seed.NewSeeder(db, cfg.Security.BCryptCost, logger.LoggerWrapper())
		if err := seeder.Apply(context.Background(), fx); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
		logger.LoggerWrapper().Info("seed complete", "file", seedFile)
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "db/seed/seed.yml", "YAML fixture to load")
}
