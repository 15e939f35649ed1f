package courseinfra

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

// InMemoryCourseRepository implements course.Repository with a
// mutex-guarded map. Meant for tests and local development.
type InMemoryCourseRepository struct {
	mu      sync.Mutex
	courses map[kernel.CourseID]course.Course
	nowFun  func() time.Time
}

// NewInMemoryCourseRepository creates an empty in-memory course store.
func NewInMemoryCourseRepository() *InMemoryCourseRepository {
	return &InMemoryCourseRepository{
		courses: make(map[kernel.CourseID]course.Course),
		nowFun:  time.Now,
	}
}

// Create inserts a draft course.
func (r *InMemoryCourseRepository) Create(_ context.Context, n course.NewCourse) (*course.Course, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	now := r.nowFun().UTC()
	c := course.Course{
		ID:           kernel.NewCourseID(),
		Title:        n.Title,
		Description:  n.Description,
		Category:     n.Category,
		PriceCents:   n.PriceCents,
		Thumbnail:    copyString(n.Thumbnail),
		Status:       course.StatusDraft,
		InstructorID: n.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.mu.Lock()
	r.courses[c.ID] = c
	r.mu.Unlock()

	out := c
	return &out, nil
}

// FindByID returns one course.
func (r *InMemoryCourseRepository) FindByID(_ context.Context, id kernel.CourseID) (*course.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, course.ErrNotFound()
	}
	out := c
	return &out, nil
}

// Update patches the mutable fields.
func (r *InMemoryCourseRepository) Update(_ context.Context, id kernel.CourseID, p course.Patch) (*course.Course, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, course.ErrNotFound()
	}

	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.PriceCents != nil {
		c.PriceCents = *p.PriceCents
	}
	if p.Thumbnail != nil {
		c.Thumbnail = copyString(p.Thumbnail)
	}
	c.UpdatedAt = r.nowFun().UTC()

	r.courses[id] = c
	out := c
	return &out, nil
}

// SetStatus moves the course to the given status.
func (r *InMemoryCourseRepository) SetStatus(_ context.Context, id kernel.CourseID, status course.Status) (*course.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return nil, course.ErrNotFound()
	}
	c.Status = status
	c.UpdatedAt = r.nowFun().UTC()
	r.courses[id] = c

	out := c
	return &out, nil
}

// Delete removes the course.
func (r *InMemoryCourseRepository) Delete(_ context.Context, id kernel.CourseID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.courses[id]; !ok {
		return course.ErrNotFound()
	}
	delete(r.courses, id)
	return nil
}

// OwnerOf resolves the owning instructor id.
func (r *InMemoryCourseRepository) OwnerOf(_ context.Context, id kernel.CourseID) (kernel.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.courses[id]
	if !ok {
		return "", course.ErrNotFound()
	}
	return c.InstructorID, nil
}

// List returns a filtered, paginated listing ordered by creation time.
func (r *InMemoryCourseRepository) List(_ context.Context, filter course.ListFilter, opts kernel.PaginationOptions) (kernel.Paginated[course.Course], error) {
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

// Count returns the number of courses matching the filter.
func (r *InMemoryCourseRepository) Count(_ context.Context, filter course.ListFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(filter)), nil
}

func (r *InMemoryCourseRepository) matching(filter course.ListFilter) []course.Course {
	var out []course.Course
	for _, c := range r.courses {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.InstructorID != nil && c.InstructorID != *filter.InstructorID {
			continue
		}
		if filter.Category != nil && c.Category != *filter.Category {
			continue
		}
		out = append(out, c)
	}
	return out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
