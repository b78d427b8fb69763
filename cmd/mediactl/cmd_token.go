package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/media-service/internal/utils/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint a bearer token for user-id signed with jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().Duration("ttl", jwt.TokenTTL, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = time.Hour
	}
	token, err := jwt.CreateTokenWithTTL(args[0], cfg.JWTSecret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
