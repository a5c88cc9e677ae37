package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Zainify/onlineportal-sub001/internal/config"
	"github.com/Zainify/onlineportal-sub001/internal/domain"
	transport "github.com/Zainify/onlineportal-sub001/internal/transport/http"
	"github.com/spf13/cobra"
)

// NewTokenCmd mints an access token for local development and testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID   string
		role     string
		children []string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			id := domain.Identity{UserID: userID, Role: domain.Role(strings.ToLower(role)), Children: children}
			ttl := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)
			tok, err := transport.NewAuthenticator(cfg.Auth.JWTSecret).IssueToken(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "student, teacher, parent or admin")
	cmd.Flags().StringSliceVar(&children, "child", nil, "student id a parent may read (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
