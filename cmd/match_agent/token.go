package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/internx-match/internal/config"
	"github.com/jonathan/internx-match/internal/server"
	"github.com/jonathan/internx-match/internal/types"
	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenRole string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	Long:  "Signs a JWT with auth.jwt_secret for the given user and role. Intended for development and smoke tests.",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "User ID (default: a new random UUID)")
	tokenCmd.Flags().StringVarP(&tokenRole, "role", "r", string(types.RoleCandidate), "Role: candidate, company, validator or admin")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	jwtConfig, err := config.NewJWTConfig(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}

	userID := uuid.New()
	if tokenUser != "" {
		if userID, err = uuid.Parse(tokenUser); err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(types.Caller{UserID: userID, Role: types.Role(tokenRole)})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
