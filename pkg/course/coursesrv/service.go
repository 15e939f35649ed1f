package coursesrv

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/logx"
)

// CourseService owns the catalog rules: visibility of non-published
// courses and the publication state machine. Ownership of individual
// mutations is enforced one layer up by the route guards.
type CourseService struct {
	repo course.Repository
}

// NewCourseService creates the course service.
func NewCourseService(repo course.Repository) *CourseService {
	return &CourseService{repo: repo}
}

// CreateCourse opens a draft owned by the instructor.
func (s *CourseService) CreateCourse(ctx context.Context, instructorID kernel.UserID, n course.NewCourse) (*course.Course, error) {
	n.InstructorID = instructorID

	c, err := s.repo.Create(ctx, n)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"course_id":     c.ID,
		"instructor_id": instructorID,
	}).Info("course created")
	return c, nil
}

// GetCourse returns one course, hiding unpublished courses from everyone
// but their owner and admins.
func (s *CourseService) GetCourse(ctx context.Context, id kernel.CourseID, viewer *kernel.Principal) (*course.Course, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.Status != course.StatusPublished && !canSeeUnpublished(c, viewer) {
		// Hidden courses are indistinguishable from absent ones.
		return nil, course.ErrNotFound()
	}
	return c, nil
}

// UpdateCourse patches course fields.
func (s *CourseService) UpdateCourse(ctx context.Context, id kernel.CourseID, p course.Patch) (*course.Course, error) {
	return s.repo.Update(ctx, id, p)
}

// DeleteCourse removes the course.
func (s *CourseService) DeleteCourse(ctx context.Context, id kernel.CourseID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logx.WithField("course_id", id).Info("course deleted")
	return nil
}

// SubmitForReview moves a draft into the review queue.
func (s *CourseService) SubmitForReview(ctx context.Context, id kernel.CourseID) (*course.Course, error) {
	return s.transition(ctx, id, course.StatusPending)
}

// Publish approves a pending course into the public catalog.
func (s *CourseService) Publish(ctx context.Context, id kernel.CourseID) (*course.Course, error) {
	return s.transition(ctx, id, course.StatusPublished)
}

// Reject sends a pending course back to draft.
func (s *CourseService) Reject(ctx context.Context, id kernel.CourseID) (*course.Course, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != course.StatusPending {
		return nil, course.ErrInvalidTransition(c.Status, course.StatusDraft)
	}
	return s.repo.SetStatus(ctx, id, course.StatusDraft)
}

// Unpublish pulls a published course back to draft.
func (s *CourseService) Unpublish(ctx context.Context, id kernel.CourseID) (*course.Course, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != course.StatusPublished {
		return nil, course.ErrInvalidTransition(c.Status, course.StatusDraft)
	}
	return s.repo.SetStatus(ctx, id, course.StatusDraft)
}

func (s *CourseService) transition(ctx context.Context, id kernel.CourseID, to course.Status) (*course.Course, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.CanTransition(c.Status, to) {
		return nil, course.ErrInvalidTransition(c.Status, to)
	}

	updated, err := s.repo.SetStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"course_id": id,
		"from":      c.Status,
		"to":        to,
	}).Info("course status changed")
	return updated, nil
}

// ListCatalog returns the public, published catalog.
func (s *CourseService) ListCatalog(ctx context.Context, category *string, opts kernel.PaginationOptions) (kernel.Paginated[course.Course], error) {
	published := course.StatusPublished
	return s.repo.List(ctx, course.ListFilter{Status: &published, Category: category}, opts)
}

// ListByInstructor returns every course an instructor owns regardless of
// status.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID kernel.UserID, opts kernel.PaginationOptions) (kernel.Paginated[course.Course], error) {
	return s.repo.List(ctx, course.ListFilter{InstructorID: &instructorID}, opts)
}

// ListPendingReview returns the admin review queue.
func (s *CourseService) ListPendingReview(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[course.Course], error) {
	pending := course.StatusPending
	return s.repo.List(ctx, course.ListFilter{Status: &pending}, opts)
}

// CountByStatus counts courses in one status.
func (s *CourseService) CountByStatus(ctx context.Context, status course.Status) (int, error) {
	return s.repo.Count(ctx, course.ListFilter{Status: &status})
}

// OwnerOf exposes course ownership to the route guards.
func (s *CourseService) OwnerOf(ctx context.Context, resourceID string) (kernel.UserID, error) {
	return s.repo.OwnerOf(ctx, kernel.CourseIDFrom(resourceID))
}

func canSeeUnpublished(c *course.Course, viewer *kernel.Principal) bool {
	if viewer == nil {
		return false
	}
	return viewer.IsAdmin() || viewer.UserID == c.InstructorID
}
