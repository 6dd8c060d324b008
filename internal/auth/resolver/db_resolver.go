package resolver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/danmarauda/araps-mobile-app/internal/auth"
	"github.com/danmarauda/araps-mobile-app/internal/db"
)

// DBResolver resolves identities against the local directory database.
type DBResolver struct {
	db *db.DB

	defaultOrgName string
	defaultOrgSlug string
}

func NewDBResolver(db *db.DB, defaultOrgName, defaultOrgSlug string) *DBResolver {
	return &DBResolver{
		db:             db,
		defaultOrgName: defaultOrgName,
		defaultOrgSlug: defaultOrgSlug,
	}
}

func (r *DBResolver) Resolve(
	ctx context.Context,
	identity *auth.Identity,
) (string, error) {

	if identity == nil {
		return "", errors.New("identity is nil")
	}

	// 1. Try identity lookup (provider + provider_user_id)
	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM identities
		WHERE provider = $1
		  AND provider_user_id = $2
	`,
		identity.Provider,
		identity.ProviderUserID,
	).Scan(&userID)

	if err == nil {
		if err := r.touchUser(ctx, userID, identity); err != nil {
			return "", err
		}
		return userID.String(), nil
	}

	if err != sql.ErrNoRows {
		return "", err
	}

	// 2. Try email-based linking (existing user, new provider)
	if identity.Email != "" {
		err = r.db.QueryRowContext(ctx, `
			SELECT id
			FROM users
			WHERE LOWER(email) = LOWER($1)
		`,
			identity.Email,
		).Scan(&userID)

		if err == nil {
			_, err = r.db.ExecContext(ctx, `
				INSERT INTO identities (user_id, provider, provider_user_id)
				VALUES ($1, $2, $3)
			`,
				userID,
				identity.Provider,
				identity.ProviderUserID,
			)
			if err != nil {
				return "", err
			}

			if err := r.touchUser(ctx, userID, identity); err != nil {
				return "", err
			}
			return userID.String(), nil
		}

		if err != sql.ErrNoRows {
			return "", err
		}
	}

	// 3. Create new user
	email := identity.Email
	if email == "" {
		// native sign-in can withhold the email entirely
		email = identity.ProviderUserID + "@privaterelay.appleid.com"
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO users (email, email_verified, first_name, last_name, auth_provider, last_login_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`,
		email,
		identity.EmailVerified,
		identity.FirstName,
		identity.LastName,
		identity.Provider,
	).Scan(&userID)

	if err != nil {
		return "", err
	}

	// 4. Create identity mapping
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO identities (user_id, provider, provider_user_id)
		VALUES ($1, $2, $3)
	`,
		userID,
		identity.Provider,
		identity.ProviderUserID,
	)
	if err != nil {
		return "", err
	}

	// 5. Attach to the default organization
	org, err := r.EnsureDefaultOrganization(ctx)
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO organization_memberships (user_id, organization_id, role)
		VALUES ($1, $2, 'member')
		ON CONFLICT (user_id, organization_id) DO NOTHING
	`,
		userID,
		org.ID,
	)
	if err != nil {
		return "", err
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE users SET organization_id = $2, updated_at = NOW() WHERE id = $1
	`,
		userID,
		org.ID,
	)
	if err != nil {
		return "", err
	}

	return userID.String(), nil
}

// touchUser refreshes the mutable profile facts a provider re-asserts on
// every login. Blank fields never overwrite known values.
func (r *DBResolver) touchUser(ctx context.Context, userID uuid.UUID, identity *auth.Identity) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name = COALESCE(NULLIF($2, ''), first_name),
		    last_name = COALESCE(NULLIF($3, ''), last_name),
		    auth_provider = $4,
		    last_login_at = NOW(),
		    updated_at = NOW()
		WHERE id = $1
	`,
		userID,
		identity.FirstName,
		identity.LastName,
		identity.Provider,
	)
	return err
}

func (r *DBResolver) OrganizationByID(ctx context.Context, id string) (*Organization, error) {
	orgID, err := uuid.Parse(id)
	if err != nil {
		return nil, nil // not a local organization id
	}

	return r.scanOrganization(r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(domain, ''), tier
		FROM organizations
		WHERE id = $1 AND is_active
	`, orgID))
}

func (r *DBResolver) OrganizationBySlug(ctx context.Context, slug string) (*Organization, error) {
	return r.scanOrganization(r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, COALESCE(domain, ''), tier
		FROM organizations
		WHERE slug = $1 AND is_active
	`, slug))
}

func (r *DBResolver) EnsureDefaultOrganization(ctx context.Context) (*Organization, error) {
	org, err := r.OrganizationBySlug(ctx, r.defaultOrgSlug)
	if err != nil {
		return nil, err
	}
	if org != nil {
		return org, nil
	}

	return r.scanOrganization(r.db.QueryRowContext(ctx, `
		INSERT INTO organizations (name, slug, tier)
		VALUES ($1, $2, 'enterprise')
		ON CONFLICT (slug) DO UPDATE SET name = organizations.name
		RETURNING id, name, slug, COALESCE(domain, ''), tier
	`,
		r.defaultOrgName,
		r.defaultOrgSlug,
	))
}

func (r *DBResolver) ListOrganizations(ctx context.Context) ([]Organization, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, COALESCE(domain, ''), tier
		FROM organizations
		WHERE is_active
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.Domain, &org.Tier); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *DBResolver) scanOrganization(row rowScanner) (*Organization, error) {
	var org Organization
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.Domain, &org.Tier)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &org, nil
}
