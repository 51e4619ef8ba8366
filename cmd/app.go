package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/account-hub/internal/app"
	appPostgres "github.com/frahmantamala/account-hub/internal/app/postgres"
	"github.com/frahmantamala/account-hub/pkg/logger"
	"github.com/spf13/cobra"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage applications allowed to call the permission manager",
}

var appRegisterCmd = &cobra.Command{
	Use:   "register <name>",
	Short: "Register an application and print its client credentials",
	Args:  cobra.ExactArgs(1),
	RunE: withAppService(func(ctx context.Context, cmd *cobra.Command, svc *app.Service, args []string) error {
		registered, secret, err := svc.Register(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "client_id=%s\nclient_secret=%s\n", registered.ID, secret)
		return nil
	}),
}

var appCodeCmd = &cobra.Command{
	Use:   "code <client_id> <client_secret>",
	Short: "Issue an authorization code for an application",
	Args:  cobra.ExactArgs(2),
	RunE: withAppService(func(ctx context.Context, cmd *cobra.Command, svc *app.Service, args []string) error {
		code, expiresAt, err := svc.IssueCode(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "authorization_code=%s\nexpires_at=%s\n", code, expiresAt.Format(time.RFC3339))
		return nil
	}),
}

var appRotateCmd = &cobra.Command{
	Use:   "rotate <client_id>",
	Short: "Replace the secret of an application",
	Args:  cobra.ExactArgs(1),
	RunE: withAppService(func(ctx context.Context, cmd *cobra.Command, svc *app.Service, args []string) error {
		secret, err := svc.RotateSecret(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "client_secret=%s\n", secret)
		return nil
	}),
}

var appDeactivateCmd = &cobra.Command{
	Use:   "deactivate <client_id>",
	Short: "Stop accepting codes from an application",
	Args:  cobra.ExactArgs(1),
	RunE: withAppService(func(ctx context.Context, cmd *cobra.Command, svc *app.Service, args []string) error {
		return svc.Deactivate(ctx, args[0])
	}),
}

func withAppService(run func(context.Context, *cobra.Command, *app.Service, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		db, gormDB, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		codes := app.NewCodeSigner(cfg.Security.AuthorizationSecret, cfg.Security.AuthorizationCodeTTL)
		svc := app.NewService(appPostgres.NewAppRepository(gormDB), codes, cfg.Security.BCryptCost, logger.LoggerWrapper())
		return run(cmd.Context(), cmd, svc, args)
	}
}

func init() {
	appCmd.AddCommand(appRegisterCmd, appCodeCmd, appRotateCmd, appDeactivateCmd)
}
