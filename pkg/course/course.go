package course

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// Status is the course publication state. Draft courses are private to
// their instructor, pending courses await admin review, published courses
// are in the public catalog.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
)

// IsValid checks for a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished:
		return true
	}
	return false
}

// Course is the catalog aggregate. InstructorID is the owner; only the
// owner or an admin may mutate it.
type Course struct {
	ID           kernel.CourseID `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	Category     string          `db:"category" json:"category"`
	PriceCents   int             `db:"price_cents" json:"price_cents"`
	Thumbnail    *string         `db:"thumbnail" json:"thumbnail,omitempty"`
	Status       Status          `db:"status" json:"status"`
	InstructorID kernel.UserID   `db:"instructor_id" json:"instructor_id"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NewCourse carries the fields an instructor supplies at creation. Every
// course starts as a draft.
type NewCourse struct {
	Title        string
	Description  string
	Category     string
	PriceCents   int
	Thumbnail    *string
	InstructorID kernel.UserID
}

// Validate checks the creation invariants.
func (n *NewCourse) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Title is required")
	}
	if n.PriceCents < 0 {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Price cannot be negative")
	}
	if n.InstructorID.IsEmpty() {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Instructor is required")
	}
	return nil
}

// Patch carries a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	Category    *string
	PriceCents  *int
	Thumbnail   *string
}

// Validate checks the patched fields.
func (p *Patch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Title cannot be empty")
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return ErrRegistry.NewWithMessage(CodeInvalidInput, "Price cannot be negative")
	}
	return nil
}

// ListFilter narrows course listings.
type ListFilter struct {
	Status       *Status
	InstructorID *kernel.UserID
	Category     *string
}

// CanTransition reports whether the publication state machine allows the
// move. Draft goes to pending on submit, pending goes to published on
// approval or back to draft on rejection, published can be pulled back to
// draft.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusPending
	case StatusPending:
		return to == StatusPublished || to == StatusDraft
	case StatusPublished:
		return to == StatusDraft
	}
	return false
}

var ErrRegistry = errx.NewRegistry("COURSE")

var (
	CodeNotFound          = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Course not found")
	CodeInvalidInput      = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Invalid course data")
	CodeInvalidTransition = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusUnprocessableEntity, "Invalid course status transition")
)

func ErrNotFound() *errx.Error { return ErrRegistry.New(CodeNotFound) }

func ErrInvalidTransition(from, to Status) *errx.Error {
	return ErrRegistry.New(CodeInvalidTransition).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}
