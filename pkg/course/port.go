package course

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/kernel"
)

// Repository is the course store contract.
type Repository interface {
	Create(ctx context.Context, n NewCourse) (*Course, error)
	FindByID(ctx context.Context, id kernel.CourseID) (*Course, error)
	Update(ctx context.Context, id kernel.CourseID, p Patch) (*Course, error)
	SetStatus(ctx context.Context, id kernel.CourseID, status Status) (*Course, error)
	Delete(ctx context.Context, id kernel.CourseID) error

	// OwnerOf returns just the owning instructor, for the ownership guard.
	OwnerOf(ctx context.Context, id kernel.CourseID) (kernel.UserID, error)

	List(ctx context.Context, filter ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[Course], error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}
