package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnavshah/worker-allocator-go/pkg/auth"
	"github.com/arnavshah/worker-allocator-go/pkg/config"
	"github.com/arnavshah/worker-allocator-go/pkg/database"
)

var ttl time.Duration

var rootCmd = &cobra.Command{
	Use:   "keygen <username>",
	Short: "Issue a bearer token for an existing account",
	Long: `Looks the account up in the configured database and prints a token
carrying its role, signed with JWT_SECRET.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv()
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if ttl > 0 {
			cfg.TokenTTL = ttl
		}

		db, err := database.InitDB(cfg)
		if err != nil {
			return err
		}
		user, err := database.NewStore(db).FindEmployeeByName(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("lookup %q: %w", args[0], err)
		}

		token, err := auth.New(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost).CreateToken(user.Name, user.Role)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s token for %s:\n%s\n", user.Role, user.Name, token)
		return nil
	},
}

func init() {
	rootCmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
