package resolver

import (
	"context"

	"github.com/google/uuid"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
)

// Organization is the directory's view of an organization.
type Organization struct {
	ID     uuid.UUID
	Name   string
	Slug   string
	Domain string
	Tier   string
}

// Resolver determines which local user an external identity belongs to and
// answers organization lookups. It is the ONLY place where identity-to-user
// mapping logic lives.
type Resolver interface {
	// Resolve maps an external identity to a local user id, creating the
	// user and a default-organization membership when no match exists.
	Resolve(ctx context.Context, identity *auth.Identity) (userID string, err error)

	// OrganizationByID returns nil, nil when the id is unknown.
	OrganizationByID(ctx context.Context, id string) (*Organization, error)

	// OrganizationBySlug returns nil, nil when the slug is unknown.
	OrganizationBySlug(ctx context.Context, slug string) (*Organization, error)

	// EnsureDefaultOrganization returns the well-known default
	// organization, creating it on first use.
	EnsureDefaultOrganization(ctx context.Context) (*Organization, error)

	// ListOrganizations returns every active organization.
	ListOrganizations(ctx context.Context) ([]Organization, error)
}
