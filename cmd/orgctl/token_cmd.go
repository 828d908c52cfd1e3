package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgtree/pkg/configuration"
	"github.com/iota-uz/orgtree/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		userID uint
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := configuration.Use()
			if conf.Auth.SigningKey == "" {
				return withCode(exitUsage, fmt.Errorf("JWT_SIGNING_KEY is not set"))
			}
			if ttl <= 0 {
				ttl = conf.Auth.TokenTTL
			}
			signed, err := jwt.New(userID, conf.Auth.Issuer, []byte(conf.Auth.SigningKey), ttl)
			if err != nil {
				return err
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]string{
				"authorization": jwt.SignedStringToHeaderValue(signed),
				"expires_at":    time.Now().Add(ttl).UTC().Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "User id (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime, defaults to JWT_TOKEN_TTL")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
