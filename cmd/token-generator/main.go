// Command token-generator mints a bearer token for an owner id using the
// configured JWT secret. It is meant for local development and smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/config"
	"github.com/phrazzld/classplan/internal/service/auth"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("token-generator: %v", err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("token-generator", flag.ContinueOnError)
	owner := fs.String("owner", "", "owner id (a new random id when empty)")
	configDir := fs.String("config-dir", ".", "directory holding an optional config.yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ownerID := uuid.New()
	if *owner != "" {
		parsed, err := uuid.Parse(*owner)
		if err != nil {
			return fmt.Errorf("invalid owner id %q: %w", *owner, err)
		}
		ownerID = parsed
	}

	cfg, err := config.LoadFrom(*configDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	svc, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return err
	}
	token, err := svc.GenerateToken(context.Background(), ownerID)
	if err != nil {
		return err
	}

	fmt.Printf("Owner: %s\nToken: %s\n", ownerID, token)
	return nil
}
