package courseinfra

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

const courseColumns = `
	id, title, description, category, price_cents, thumbnail, status,
	instructor_id, created_at, updated_at`

// PostgresCourseRepository is the Postgres implementation of
// course.Repository.
type PostgresCourseRepository struct {
	db *sqlx.DB
}

// NewPostgresCourseRepository creates a new repository instance.
func NewPostgresCourseRepository(db *sqlx.DB) course.Repository {
	return &PostgresCourseRepository{db: db}
}

// Create inserts a draft course.
func (r *PostgresCourseRepository) Create(ctx context.Context, n course.NewCourse) (*course.Course, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO courses (
			id, title, description, category, price_cents, thumbnail,
			status, instructor_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + courseColumns

	var row courseRow
	err := r.db.GetContext(ctx, &row, query,
		kernel.NewCourseID().String(),
		n.Title,
		n.Description,
		n.Category,
		n.PriceCents,
		n.Thumbnail,
		string(course.StatusDraft),
		n.InstructorID.String(),
		now,
	)
	if err != nil {
		return nil, errx.Wrap(err, "failed to create course", errx.TypeInternal)
	}

	c := row.toDomain()
	return &c, nil
}

// FindByID returns one course.
func (r *PostgresCourseRepository) FindByID(ctx context.Context, id kernel.CourseID) (*course.Course, error) {
	var row courseRow
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	err := r.db.GetContext(ctx, &row, query, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, course.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to find course", errx.TypeInternal)
	}
	c := row.toDomain()
	return &c, nil
}

// Update patches the mutable fields. Nil patch fields keep their values.
func (r *PostgresCourseRepository) Update(ctx context.Context, id kernel.CourseID, p course.Patch) (*course.Course, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE courses SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			category = COALESCE($3, category),
			price_cents = COALESCE($4, price_cents),
			thumbnail = COALESCE($5, thumbnail),
			updated_at = $6
		WHERE id = $7
		RETURNING %s`, courseColumns)

	var row courseRow
	err := r.db.GetContext(ctx, &row, query,
		p.Title, p.Description, p.Category, p.PriceCents, p.Thumbnail,
		time.Now().UTC(), id.String(),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, course.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to update course", errx.TypeInternal)
	}
	c := row.toDomain()
	return &c, nil
}

// SetStatus moves the course through the publication state machine. The
// transition has already been validated by the service.
func (r *PostgresCourseRepository) SetStatus(ctx context.Context, id kernel.CourseID, status course.Status) (*course.Course, error) {
	query := fmt.Sprintf(`
		UPDATE courses SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING %s`, courseColumns)

	var row courseRow
	err := r.db.GetContext(ctx, &row, query, string(status), time.Now().UTC(), id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, course.ErrNotFound()
		}
		return nil, errx.Wrap(err, "failed to set course status", errx.TypeInternal)
	}
	c := row.toDomain()
	return &c, nil
}

// Delete removes the course.
func (r *PostgresCourseRepository) Delete(ctx context.Context, id kernel.CourseID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete course", errx.TypeInternal)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if affected == 0 {
		return course.ErrNotFound()
	}
	return nil
}

// OwnerOf resolves only the owning instructor id.
func (r *PostgresCourseRepository) OwnerOf(ctx context.Context, id kernel.CourseID) (kernel.UserID, error) {
	var owner string
	err := r.db.GetContext(ctx, &owner, `SELECT instructor_id FROM courses WHERE id = $1`, id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return "", course.ErrNotFound()
		}
		return "", errx.Wrap(err, "failed to resolve course owner", errx.TypeInternal)
	}
	return kernel.UserIDFrom(owner), nil
}

// List returns a filtered, paginated course listing.
func (r *PostgresCourseRepository) List(ctx context.Context, filter course.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[course.Course], error) {
	opts = opts.Normalize()

	where, params := buildFilter(filter)

	total, err := r.Count(ctx, filter)
	if err != nil {
		return kernel.Paginated[course.Course]{}, err
	}

	query := fmt.Sprintf(`SELECT %s FROM courses %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		courseColumns, where, len(params)+1, len(params)+2)
	params = append(params, opts.PageSize, opts.Offset())

	var rows []courseRow
	if err := r.db.SelectContext(ctx, &rows, query, params...); err != nil {
		return kernel.Paginated[course.Course]{}, errx.Wrap(err, "failed to list courses", errx.TypeInternal)
	}

	items := make([]course.Course, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// Count returns the number of courses matching the filter.
func (r *PostgresCourseRepository) Count(ctx context.Context, filter course.ListFilter) (int, error) {
	where, params := buildFilter(filter)

	var total int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM courses %s`, where)
	if err := r.db.GetContext(ctx, &total, query, params...); err != nil {
		return 0, errx.Wrap(err, "failed to count courses", errx.TypeInternal)
	}
	return total, nil
}

func buildFilter(filter course.ListFilter) (string, []interface{}) {
	var clauses []string
	var params []interface{}

	if filter.Status != nil {
		params = append(params, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(params)))
	}
	if filter.InstructorID != nil {
		params = append(params, filter.InstructorID.String())
		clauses = append(clauses, fmt.Sprintf("instructor_id = $%d", len(params)))
	}
	if filter.Category != nil {
		params = append(params, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(params)))
	}

	if len(clauses) == 0 {
		return "", params
	}
	return "WHERE " + strings.Join(clauses, " AND "), params
}

type courseRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	Category     string         `db:"category"`
	PriceCents   int            `db:"price_cents"`
	Thumbnail    sql.NullString `db:"thumbnail"`
	Status       string         `db:"status"`
	InstructorID string         `db:"instructor_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (row courseRow) toDomain() course.Course {
	c := course.Course{
		ID:           kernel.CourseIDFrom(row.ID),
		Title:        row.Title,
		Description:  row.Description,
		Category:     row.Category,
		PriceCents:   row.PriceCents,
		Status:       course.Status(row.Status),
		InstructorID: kernel.UserIDFrom(row.InstructorID),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Thumbnail.Valid {
		c.Thumbnail = &row.Thumbnail.String
	}
	return c
}
