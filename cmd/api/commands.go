package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return database.RunMigrations(cfg.DatabaseURL())
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Auto-checkout every open entry past the threshold once",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		scheduler := cron.NewScheduler()
		cron.NewTimesheetJobs(a.timesheet, cfg.Timesheet.SweepInterval).RegisterJobs(scheduler)
		return scheduler.RunOnce(cmd.Context())
	},
}

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo departments and users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.NewPostgreSQLDB(cmd.Context(), cfg.DatabaseURL())
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()

		ids, err := fixtures.SeedDemoTeam(cmd.Context(), postgresql.NewUserRepository(db), seedPassword, bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		for username, id := range ids.UserIDs {
			fmt.Printf("%-10s %s\n", username, id)
		}
		return nil
	},
}

var (
	tokenUserID   string
	tokenUsername string
	tokenAdmin    bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an access token for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		svc := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)
		token, expiresAt, err := svc.GenerateAccessToken(jwt.Claims{
			UserID:   tokenUserID,
			Username: tokenUsername,
			IsAdmin:  tokenAdmin,
		})
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}

		fmt.Println(token)
		fmt.Printf("expires %s\n", time.Unix(expiresAt, 0).UTC().Format(time.RFC3339))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "Password given to every demo user")

	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User id placed in the token")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "Username placed in the token")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant admin privileges")
	_ = tokenCmd.MarkFlagRequired("user-id")
}
