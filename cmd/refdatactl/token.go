package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"refdata/internal/config"
	"refdata/internal/middleware"
)

func tokenCmd() *cobra.Command {
	var (
		user  string
		email string
		perms []string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token",
		Long: `Sign an access token with JWT_SECRET for local testing.

Examples:
  refdatactl token --user u-1 --perm ASSET_CLASS_READ --perm ASSET_CLASS_CREATE`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTExpirationDur
			}

			token, err := middleware.GenerateAccessToken(user, email, perms, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "user id carried by the token")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "granted permission, repeatable")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime (defaults to JWT_EXPIRES_IN)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
