package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/account-hub/internal/app"
	appPostgres "github.com/frahmantamala/account-hub/internal/app/postgres"
	"github.com/frahmantamala/account-hub/internal/user"
	userPostgres "github.com/frahmantamala/account-hub/internal/user/postgres"
	"github.com/frahmantamala/account-hub/pkg/logger"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
)

var clearData bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo user and a demo application for development and testing purposes.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing data before seeding")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, gormDB, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	lg := logger.LoggerWrapper()

	if clearData {
		for _, table := range []string{"login_history", "user_phone_numbers", "user_emails", "users", "apps"} {
			if err := gormDB.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		lg.Info("existing data cleared")
	}

	users := userPostgres.NewUserRepository(gormDB)
	existing, err := users.GetByUsername(ctx, "jane")
	if err != nil {
		return err
	}
	if existing != nil {
		lg.Info("demo user already exists", "user_id", existing.ID)
	} else {
		hash, err := user.HashPassword("password", cfg.Security.BCryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		dob := time.Date(1990, time.March, 14, 0, 0, 0, 0, time.UTC)

		demo := user.ToDataModel(&user.User{
			ID:           xid.New().String(),
			Username:     "jane",
			PasswordHash: hash,
			ContactInfo: user.ContactInfo{
				Email:       []user.Email{{Address: "jane@mail.com", Type: user.EmailTypePrimary, Verified: true}},
				PhoneNumber: []user.PhoneNumber{{CountryCode: "+62", Number: "81234567890", Verified: true}},
			},
			PersonalData: user.PersonalData{
				FirstName:   "Jane",
				LastName:    "Doe",
				Gender:      "female",
				DateOfBirth: &dob,
				Address:     user.Address{Permanent: user.Location{Country: "ID"}},
			},
			Version: 1,
		})
		if err := users.Create(ctx, demo); err != nil {
			return fmt.Errorf("create demo user: %w", err)
		}
		lg.Info("seeded demo user", "user_id", demo.ID, "username", demo.Username)
	}

	codes := app.NewCodeSigner(cfg.Security.AuthorizationSecret, cfg.Security.AuthorizationCodeTTL)
	apps := app.NewService(appPostgres.NewAppRepository(gormDB), codes, cfg.Security.BCryptCost, lg)
	registered, secret, err := apps.Register(ctx, "demo")
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "demo user: jane / password\n")
	fmt.Fprintf(cmd.OutOrStdout(), "demo app:  client_id=%s client_secret=%s\n", registered.ID, secret)
	return nil
}
