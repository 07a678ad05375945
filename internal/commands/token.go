package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/schemaeditor/internal/auth"
	"evalgo.org/schemaeditor/internal/config"
)

var (
	tokenSubject    string
	tokenRoles      []string
	tokenExpiration time.Duration
	tokenSecret     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a bearer token",
	Long: `Generate a JWT for the UI bridge or the development backend.

The token is signed with security.jwt_secret. A read token can browse
schemas; a write token can also edit and submit them.

Examples:
  schemaeditor token --subject alice
  schemaeditor token --subject ci --role write --expiration 720h
  schemaeditor token --subject bob --secret "my-custom-secret"`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject (required)")
	tokenCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{string(auth.RoleRead)}, "granted roles (read, write)")
	tokenCmd.Flags().DurationVar(&tokenExpiration, "expiration", 0, "token lifetime (default: security.jwt_expiration)")
	tokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret (default: from config file)")
	_ = tokenCmd.MarkFlagRequired("subject") //nolint:errcheck
}

func runToken(cmd *cobra.Command, args []string) error {
	security := cfg.Security
	if tokenSecret != "" {
		security.JWTSecret = tokenSecret
	}
	if security.JWTSecret == "" {
		return fmt.Errorf(`jwt_secret not found in config file and --secret not provided

Please either:
  1. Add to your config.yaml:
     security:
       jwt_secret: your-secret-here

  2. Or use the --secret flag:
     schemaeditor token --subject %s --secret "your-secret-here"`, tokenSubject)
	}
	if tokenExpiration != 0 {
		security.JWTExpiration = tokenExpiration
	}

	roles := make([]auth.Role, 0, len(tokenRoles))
	for _, r := range tokenRoles {
		role, err := auth.ParseRole(r)
		if err != nil {
			return err
		}
		roles = append(roles, role)
	}

	token, err := auth.NewJWTService(security).GenerateToken(tokenSubject, roles...)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token Generated Successfully\n")
	fmt.Fprintf(out, "============================\n\n")
	fmt.Fprintf(out, "Subject:    %s\n", tokenSubject)
	fmt.Fprintf(out, "Roles:      %v\n", tokenRoles)
	fmt.Fprintf(out, "Expiration: %s\n", security.JWTExpiration)
	fmt.Fprintf(out, "\nToken:\n%s\n\n", token)
	fmt.Fprintf(out, "Add this to a client configuration:\n")
	fmt.Fprintf(out, "  backend:\n")
	fmt.Fprintf(out, "    token: %s\n\n", token)
	if security.JWTSecret == config.Default().Security.JWTSecret {
		fmt.Fprintf(out, "⚠️  Signed with the default secret. Set security.jwt_secret before exposing a server.\n")
	}

	return nil
}
