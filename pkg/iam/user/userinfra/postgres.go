package userinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// redactedColumns is every projection except the password hash. has_password
// lets callers distinguish local accounts without ever seeing the hash.
const redactedColumns = `
	id, email, name, avatar, oauth_provider, oauth_id, role,
	is_approved, is_active, (password_hash IS NOT NULL) AS has_password, created_at`

// PostgresUserRepository is the Postgres implementation of user.Repository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) user.Repository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a new account. The unique index on email resolves
// concurrent creates: the loser gets USER_EMAIL_TAKEN and must re-read.
func (r *PostgresUserRepository) Create(ctx context.Context, n user.NewUser) (*user.User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO users (
			id, email, name, avatar, password_hash, oauth_provider, oauth_id,
			role, is_approved, is_active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, true, $10)
		RETURNING ` + redactedColumns

	var row userRow
	err := r.db.GetContext(ctx, &row, query,
		kernel.NewUserID().String(),
		user.NormalizeEmail(n.Email),
		n.Name,
		n.Avatar,
		n.PasswordHash,
		providerString(n.OAuthProvider),
		n.OAuthID,
		string(n.Role),
		n.IsApproved,
		time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return nil, user.ErrEmailTaken().WithDetail("email", user.NormalizeEmail(n.Email))
		}
		if isUniqueViolation(err, "users_oauth_identity_key") {
			return nil, user.ErrLinkConflict()
		}
		return nil, errx.Wrap(err, "failed to create user", errx.TypeInternal)
	}

	u := row.toDomain()
	return &u, nil
}

// FindByID returns the redacted projection for an id.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return r.findOne(ctx, "id = $1", id.String())
}

// FindByEmail returns the redacted projection for an email.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email = $1", user.NormalizeEmail(email))
}

// FindByOAuthID returns the account holding a federated identity.
func (r *PostgresUserRepository) FindByOAuthID(ctx context.Context, provider iam.OAuthProvider, externalID string) (*user.User, error) {
	var row userRow
	query := fmt.Sprintf(`SELECT %s FROM users WHERE oauth_provider = $1 AND oauth_id = $2`, redactedColumns)
	err := r.db.GetContext(ctx, &row, query, string(provider), externalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user by oauth id", errx.TypeInternal)
	}
	u := row.toDomain()
	return &u, nil
}

// FindCredentialByEmail is the unredacted read path for password login.
func (r *PostgresUserRepository) FindCredentialByEmail(ctx context.Context, email string) (*user.Credential, error) {
	var cred struct {
		ID    string         `db:"id"`
		Email string         `db:"email"`
		Hash  sql.NullString `db:"password_hash"`
	}
	query := `SELECT id, email, password_hash FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &cred, query, user.NormalizeEmail(email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to fetch credential", errx.TypeInternal)
	}
	return &user.Credential{
		UserID: kernel.UserIDFrom(cred.ID),
		Email:  cred.Email,
		Hash:   cred.Hash.String,
	}, nil
}

// LinkOAuth attaches a federated identity to an existing account, preserving
// id, role and email. Re-linking the same pair to the same user is a no-op.
func (r *PostgresUserRepository) LinkOAuth(ctx context.Context, id kernel.UserID, provider iam.OAuthProvider, externalID string) (*user.User, error) {
	current, err := r.FindByOAuthID(ctx, provider, externalID)
	if err == nil {
		if current.ID == id {
			return current, nil
		}
		return nil, user.ErrLinkConflict().WithDetail("provider", string(provider))
	}
	if !errx.HasCode(err, user.CodeNotFound) {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE users SET oauth_provider = $1, oauth_id = $2
		WHERE id = $3
		RETURNING %s`, redactedColumns)

	var row userRow
	err = r.db.GetContext(ctx, &row, query, string(provider), externalID, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound()
		}
		// Lost a race against a concurrent link of the same pair.
		if isUniqueViolation(err, "users_oauth_identity_key") {
			return nil, user.ErrLinkConflict()
		}
		return nil, errx.Wrap(err, "failed to link oauth identity", errx.TypeInternal)
	}
	u := row.toDomain()
	return &u, nil
}

// SetRole updates the account role.
func (r *PostgresUserRepository) SetRole(ctx context.Context, id kernel.UserID, role kernel.Role) error {
	return r.exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id.String())
}

// SetApproval flips the instructor approval flag.
func (r *PostgresUserRepository) SetApproval(ctx context.Context, id kernel.UserID, approved bool) error {
	return r.exec(ctx, `UPDATE users SET is_approved = $1 WHERE id = $2`, approved, id.String())
}

// SetActive enables or disables authentication without deleting the record.
func (r *PostgresUserRepository) SetActive(ctx context.Context, id kernel.UserID, active bool) error {
	return r.exec(ctx, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id.String())
}

// UpdateCredential replaces the password hash.
func (r *PostgresUserRepository) UpdateCredential(ctx context.Context, id kernel.UserID, hash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id.String())
}

// UpdateProfile patches display metadata.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id kernel.UserID, name, avatar *string) (*user.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET
			name = COALESCE($1, name),
			avatar = COALESCE($2, avatar)
		WHERE id = $3
		RETURNING %s`, redactedColumns)

	var row userRow
	err := r.db.GetContext(ctx, &row, query, name, avatar, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to update profile", errx.TypeInternal)
	}
	u := row.toDomain()
	return &u, nil
}

// List returns a filtered, paginated user listing for the admin surface.
func (r *PostgresUserRepository) List(ctx context.Context, filter user.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	opts = opts.Normalize()

	where, params := buildFilter(filter)

	total, err := r.Count(ctx, filter)
	if err != nil {
		return kernel.Paginated[user.User]{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		redactedColumns, where, len(params)+1, len(params)+2)
	params = append(params, opts.PageSize, opts.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, params...); err != nil {
		return kernel.Paginated[user.User]{}, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	items := make([]user.User, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// Count returns the number of users matching the filter.
func (r *PostgresUserRepository) Count(ctx context.Context, filter user.ListFilter) (int, error) {
	where, params := buildFilter(filter)

	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM users %s`, where)
	if err := r.db.GetContext(ctx, &total, query, params...); err != nil {
		return 0, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	var row userRow
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s`, redactedColumns, where)
	err := r.db.GetContext(ctx, &row, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, user.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *PostgresUserRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if affected == 0 {
		return user.ErrNotFound()
	}
	return nil
}

func buildFilter(filter user.ListFilter) (string, []interface{}) {
	var clauses []string
	var params []interface{}

	if filter.Role != nil {
		params = append(params, string(*filter.Role))
		clauses = append(clauses, fmt.Sprintf("role = $%d", len(params)))
	}
	if filter.IsActive != nil {
		params = append(params, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(params)))
	}

	if len(clauses) == 0 {
		return "", params
	}
	return "WHERE " + strings.Join(clauses, " AND "), params
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

func providerString(p *iam.OAuthProvider) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

// userRow maps the redacted projection to DB types.
type userRow struct {
	ID            string         `db:"id"`
	Email         string         `db:"email"`
	Name          string         `db:"name"`
	Avatar        sql.NullString `db:"avatar"`
	OAuthProvider sql.NullString `db:"oauth_provider"`
	OAuthID       sql.NullString `db:"oauth_id"`
	Role          string         `db:"role"`
	IsApproved    bool           `db:"is_approved"`
	IsActive      bool           `db:"is_active"`
	HasPassword   bool           `db:"has_password"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (row userRow) toDomain() user.User {
	u := user.User{
		ID:          kernel.UserIDFrom(row.ID),
		Email:       row.Email,
		Name:        row.Name,
		Role:        kernel.Role(row.Role),
		IsApproved:  row.IsApproved,
		IsActive:    row.IsActive,
		HasPassword: row.HasPassword,
		CreatedAt:   row.CreatedAt,
	}
	if row.Avatar.Valid {
		u.Avatar = &row.Avatar.String
	}
	if row.OAuthProvider.Valid && row.OAuthID.Valid {
		p := iam.OAuthProvider(row.OAuthProvider.String)
		u.OAuthProvider = &p
		u.OAuthID = &row.OAuthID.String
	}
	return u
}
