// Command token-generator prints a signed access token for a user, for
// calling the API during development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/service/auth"
)

func main() {
	userFlag := flag.String("user", "", "user id to issue the token for (random when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := generate(context.Background(), cfg.Auth, *userFlag, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// generate writes the user id and a bearer token for it to out.
func generate(ctx context.Context, cfg config.AuthConfig, rawUserID string, out io.Writer) error {
	userID := uuid.New()
	if rawUserID != "" {
		parsed, err := uuid.Parse(rawUserID)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", rawUserID, err)
		}
		if parsed == uuid.Nil {
			return errors.New("user id must not be the nil UUID")
		}
		userID = parsed
	}

	svc, err := auth.NewJWTService(cfg)
	if err != nil {
		return err
	}

	token, err := svc.GenerateToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintf(out, "User:  %s\nToken: %s\nHeader: Authorization: Bearer %s\n", userID, token, token)
	return err
}
