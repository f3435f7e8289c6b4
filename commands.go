package main

import (
	"fmt"
	"log/slog"
	"time"

	"scorekeeper/auth"
	"scorekeeper/config"
	"scorekeeper/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	catalogPath      string
	tokenSubject     string
	tokenPermissions []string
	tokenTTL         time.Duration

	resortCmd = &cobra.Command{
		Use:   "resort",
		Short: "Recompute the display order of all entities and awards",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			result, err := service.NewEntityService(db).ResortHierarchy(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("hierarchy resorted", "entities", result.Entities, "awards", result.Awards)
			return nil
		},
	}

	seedAwardsCmd = &cobra.Command{
		Use:   "seed-awards",
		Short: "Create or update awards from a YAML award catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := catalogPath
			if path == "" {
				path = config.Env().AwardCatalogPath
			}
			if path == "" {
				return fmt.Errorf("no award catalog given, pass --catalog or set AWARD_CATALOG_PATH")
			}
			catalog, err := config.LoadAwardCatalog(path)
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			result, err := service.NewAwardService(db).SeedAwards(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			slog.Info("awards seeded", "created", result.Created, "updated", result.Updated)
			return nil
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Sign an operator token for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.CreateToken(tokenSubject, tokenPermissions, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
)

func init() {
	seedAwardsCmd.Flags().StringVar(&catalogPath, "catalog", "", "path to the award catalog (defaults to AWARD_CATALOG_PATH)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "operator name recorded as the actor of transitions")
	tokenCmd.Flags().StringSliceVar(&tokenPermissions, "permissions", []string{auth.PermissionScoring}, "granted permissions: admin, drcj, scoring")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func openDB() (*gorm.DB, error) {
	cfg := config.Env()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return config.InitDB(cfg)
}
