// Command p3m-admin runs operator tasks against the P3M database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/dto"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/models"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/repository"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/internal/service"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/config"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/database"
	"github.com/MrPhilosopher04/P3m-polimdo-sub000/pkg/logger"
)

const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "p3m-admin"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Operator tasks for the P3M API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(migrateCmd(), createAdminCmd(), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func migrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			migrations, err := database.Migrations()
			if err != nil {
				return err
			}
			if dryRun {
				for _, m := range migrations {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}
			return withDatabase(func(ctx context.Context, db *sqlx.DB, logr *zap.Logger) error {
				applied, err := database.Migrate(ctx, db, migrations, logr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List embedded migrations without touching the database")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("P3M_ADMIN_PASSWORD")
			}
			return withDatabase(func(ctx context.Context, db *sqlx.DB, logr *zap.Logger) error {
				users := service.NewUserService(repository.NewUserRepository(db), validator.New(), logr)
				user, err := users.Create(ctx, dto.CreateUserRequest{
					Email:    email,
					Password: password,
					FullName: name,
					Role:     models.RoleAdmin,
				}, "", service.RequestMeta{UserAgent: appName})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Login e-mail")
	cmd.Flags().StringVar(&password, "password", "", "Password (defaults to $P3M_ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&name, "name", "Administrator P3M", "Full name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func withDatabase(fn func(ctx context.Context, db *sqlx.DB, logr *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	return fn(ctx, db, logr)
}
