package cmd

import (
	"fmt"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed bearer token for local development",
	Long: `Issue an HS256 token signed with IDENTITY_SECRET_KEY. The server accepts
it when IDENTITY_PROVIDER=jwt.

Example:
  server token --subject user_123 --email dev@example.com --ttl 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		token, err := issueToken(cfg.Auth, tokenSubject, tokenEmail, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "user id carried in the sub claim (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")
}

func issueToken(cfg config.AuthConfig, subject, email string, ttl time.Duration) (string, error) {
	if cfg.Provider == config.ProviderRemote {
		return "", fmt.Errorf("tokens for IDENTITY_PROVIDER=remote are issued by the provider")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	manager := auth.NewJWTManager(cfg.SecretKey, ttl, cfg.Issuer)
	token, err := manager.Generate(subject, email)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
