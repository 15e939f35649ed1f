package userinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/academy/pkg/iam"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// InMemoryUserRepository implements user.Repository with a mutex-guarded
// map. Meant for tests and local development; the mutex gives it the same
// uniqueness-under-concurrency semantics the Postgres unique index provides.
type InMemoryUserRepository struct {
	mu     sync.Mutex
	users  map[kernel.UserID]*record
	nowFun func() time.Time
}

type record struct {
	user user.User
	hash string
}

// NewInMemoryUserRepository creates an empty in-memory identity store.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:  make(map[kernel.UserID]*record),
		nowFun: time.Now,
	}
}

// Create inserts a new account, enforcing email and oauth-pair uniqueness
// atomically under the lock.
func (r *InMemoryUserRepository) Create(_ context.Context, n user.NewUser) (*user.User, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	email := user.NormalizeEmail(n.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.users {
		if rec.user.Email == email {
			return nil, user.ErrEmailTaken().WithDetail("email", email)
		}
		if n.OAuthProvider != nil && rec.user.HasOAuth() &&
			*rec.user.OAuthProvider == *n.OAuthProvider && *rec.user.OAuthID == *n.OAuthID {
			return nil, user.ErrLinkConflict()
		}
	}

	u := user.User{
		ID:          kernel.NewUserID(),
		Email:       email,
		Name:        n.Name,
		Avatar:      copyString(n.Avatar),
		Role:        n.Role,
		IsApproved:  n.IsApproved,
		IsActive:    true,
		HasPassword: n.PasswordHash != nil,
		CreatedAt:   r.nowFun().UTC(),
	}
	if n.OAuthProvider != nil {
		p := *n.OAuthProvider
		id := *n.OAuthID
		u.OAuthProvider = &p
		u.OAuthID = &id
	}

	rec := &record{user: u}
	if n.PasswordHash != nil {
		rec.hash = *n.PasswordHash
	}
	r.users[u.ID] = rec

	out := u
	return &out, nil
}

// FindByID returns the account for an id.
func (r *InMemoryUserRepository) FindByID(_ context.Context, id kernel.UserID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound()
	}
	out := rec.user
	return &out, nil
}

// FindByEmail returns the account with the given email.
func (r *InMemoryUserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.users {
		if rec.user.Email == email {
			out := rec.user
			return &out, nil
		}
	}
	return nil, user.ErrNotFound()
}

// FindByOAuthID returns the account holding the federated identity.
func (r *InMemoryUserRepository) FindByOAuthID(_ context.Context, provider iam.OAuthProvider, externalID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec := r.findByPair(provider, externalID); rec != nil {
		out := rec.user
		return &out, nil
	}
	return nil, user.ErrNotFound()
}

// FindCredentialByEmail returns the unredacted credential projection.
func (r *InMemoryUserRepository) FindCredentialByEmail(_ context.Context, email string) (*user.Credential, error) {
	email = user.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.users {
		if rec.user.Email == email {
			return &user.Credential{UserID: rec.user.ID, Email: rec.user.Email, Hash: rec.hash}, nil
		}
	}
	return nil, user.ErrNotFound()
}

// LinkOAuth attaches a federated identity, preserving id, role and email.
func (r *InMemoryUserRepository) LinkOAuth(_ context.Context, id kernel.UserID, provider iam.OAuthProvider, externalID string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner := r.findByPair(provider, externalID); owner != nil {
		if owner.user.ID == id {
			out := owner.user
			return &out, nil
		}
		return nil, user.ErrLinkConflict()
	}

	rec, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound()
	}

	p := provider
	eid := externalID
	rec.user.OAuthProvider = &p
	rec.user.OAuthID = &eid

	out := rec.user
	return &out, nil
}

// SetRole updates the account role.
func (r *InMemoryUserRepository) SetRole(_ context.Context, id kernel.UserID, role kernel.Role) error {
	return r.update(id, func(rec *record) { rec.user.Role = role })
}

// SetApproval flips the instructor approval flag.
func (r *InMemoryUserRepository) SetApproval(_ context.Context, id kernel.UserID, approved bool) error {
	return r.update(id, func(rec *record) { rec.user.IsApproved = approved })
}

// SetActive enables or disables authentication.
func (r *InMemoryUserRepository) SetActive(_ context.Context, id kernel.UserID, active bool) error {
	return r.update(id, func(rec *record) { rec.user.IsActive = active })
}

// UpdateCredential replaces the password hash.
func (r *InMemoryUserRepository) UpdateCredential(_ context.Context, id kernel.UserID, hash string) error {
	return r.update(id, func(rec *record) {
		rec.hash = hash
		rec.user.HasPassword = true
	})
}

// UpdateProfile patches display metadata.
func (r *InMemoryUserRepository) UpdateProfile(_ context.Context, id kernel.UserID, name, avatar *string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound()
	}
	if name != nil {
		rec.user.Name = *name
	}
	if avatar != nil {
		rec.user.Avatar = copyString(avatar)
	}
	out := rec.user
	return &out, nil
}

// List returns a filtered, paginated listing ordered by creation time.
func (r *InMemoryUserRepository) List(_ context.Context, filter user.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[user.User], error) {
	opts = opts.Normalize()

	r.mu.Lock()
	matched := r.matching(filter)
	r.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := opts.Offset()
	if start > total {
		start = total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}

	return kernel.NewPaginated(matched[start:end], opts.Page, opts.PageSize, total), nil
}

// Count returns the number of users matching the filter.
func (r *InMemoryUserRepository) Count(_ context.Context, filter user.ListFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(filter)), nil
}

func (r *InMemoryUserRepository) matching(filter user.ListFilter) []user.User {
	var out []user.User
	for _, rec := range r.users {
		if filter.Role != nil && rec.user.Role != *filter.Role {
			continue
		}
		if filter.IsActive != nil && rec.user.IsActive != *filter.IsActive {
			continue
		}
		out = append(out, rec.user)
	}
	return out
}

func (r *InMemoryUserRepository) findByPair(provider iam.OAuthProvider, externalID string) *record {
	for _, rec := range r.users {
		if rec.user.HasOAuth() && *rec.user.OAuthProvider == provider && *rec.user.OAuthID == externalID {
			return rec
		}
	}
	return nil
}

func (r *InMemoryUserRepository) update(id kernel.UserID, fn func(*record)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.users[id]
	if !ok {
		return user.ErrNotFound()
	}
	fn(rec)
	return nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
