// Command devtoken mints an organizer access token signed with the configured
// auth secret, for local development against a server without the identity
// service.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"eventdrop/internal/config"
	"eventdrop/internal/domain"
	"eventdrop/internal/service"
)

func main() {
	tenant := flag.String("tenant", "", "tenant ID (required)")
	user := flag.String("user", "", "user ID (random when empty)")
	role := flag.String("role", string(domain.RoleOrganizer), "role claim: admin, organizer or viewer")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if err := run(*tenant, *user, domain.UserRole(*role), *ttl); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(tenant, user string, role domain.UserRole, ttl time.Duration) error {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return fmt.Errorf("invalid -tenant: %w", err)
	}
	userID := uuid.New()
	if user != "" {
		if userID, err = uuid.Parse(user); err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}
	switch role {
	case domain.RoleAdmin, domain.RoleOrganizer, domain.RoleViewer:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	token, err := service.NewAuthService(cfg.Auth).IssueToken(tenantID, userID, role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
