// Package cli implements the apectl admin commands.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"apeBeacon/business/admin"
	psqlRepo "apeBeacon/internal/repository/postgres"
	"apeBeacon/internal/repository/sqlite"
	"apeBeacon/pkg/config"
	"apeBeacon/pkg/database"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	driverFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "apectl",
	Short: "Manage APE beacon customers, sites and content",
	Long:  "Admin CLI for the APE beacon. Works directly against the sqlite or postgres store.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite path (default: $STORE_SQLITE_PATH)")
	RootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Store driver: sqlite or postgres (default: $STORE_DRIVER)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if driverFlag != "" {
		cfg.Store.Driver = driverFlag
	}
	if dbPath != "" {
		cfg.Store.SQLitePath = dbPath
	}
	return cfg, nil
}

// openService returns the admin service over the configured store and a
// closer for it.
func openService() (adminService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	creds := admin.Credentials{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		JWTSecret:    cfg.JWT.SecretKey,
		TokenTTL:     cfg.JWT.TTL,
	}

	switch cfg.Store.Driver {
	case config.StoreSQLite:
		s, err := sqlite.NewStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return admin.NewAdminService(s, s, creds), func() { s.Close() }, nil

	case config.StorePostgres:
		db, err := database.InitPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := psqlRepo.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		return admin.NewAdminService(psqlRepo.NewCustomerRepository(db), psqlRepo.NewContentRepository(db), creds), closeFn, nil

	default:
		return nil, nil, errors.New("apectl needs a persistent store, use --driver sqlite or postgres")
	}
}

func printJSON(cmd *cobra.Command, v any) {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		exitErr("encode output", err)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
