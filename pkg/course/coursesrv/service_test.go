package coursesrv_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/course/courseinfra"
	"github.com/Abraxas-365/academy/pkg/course/coursesrv"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

func newService() *coursesrv.CourseService {
	return coursesrv.NewCourseService(courseinfra.NewInMemoryCourseRepository())
}

func createCourse(t *testing.T, svc *coursesrv.CourseService, instructor kernel.UserID) *course.Course {
	t.Helper()
	c, err := svc.CreateCourse(context.Background(), instructor, course.NewCourse{
		Title:      "Intro to Go",
		Category:   "programming",
		PriceCents: 4900,
	})
	if err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}
	return c
}

func asPrincipal(id kernel.UserID, role kernel.Role) *kernel.Principal {
	return &kernel.Principal{UserID: id, Email: "p@example.com", Name: "P", Role: role, IsActive: true, IsApproved: true}
}

func TestCreateCourse_StartsAsDraft(t *testing.T) {
	svc := newService()
	instructor := kernel.NewUserID()

	c := createCourse(t, svc, instructor)
	if c.Status != course.StatusDraft {
		t.Errorf("status: got %s, want draft", c.Status)
	}
	if c.InstructorID != instructor {
		t.Errorf("owner: got %s, want %s", c.InstructorID, instructor)
	}
}

func TestPublicationLifecycle(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := createCourse(t, svc, kernel.NewUserID())

	// draft -> pending
	c2, err := svc.SubmitForReview(ctx, c.ID)
	if err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	if c2.Status != course.StatusPending {
		t.Fatalf("status: got %s, want pending", c2.Status)
	}

	// pending -> published
	c3, err := svc.Publish(ctx, c.ID)
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if c3.Status != course.StatusPublished {
		t.Fatalf("status: got %s, want published", c3.Status)
	}

	// published -> draft
	c4, err := svc.Unpublish(ctx, c.ID)
	if err != nil {
		t.Fatalf("Unpublish failed: %v", err)
	}
	if c4.Status != course.StatusDraft {
		t.Fatalf("status: got %s, want draft", c4.Status)
	}
}

func TestReject_SendsPendingBackToDraft(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := createCourse(t, svc, kernel.NewUserID())

	if _, err := svc.SubmitForReview(ctx, c.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	got, err := svc.Reject(ctx, c.ID)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got.Status != course.StatusDraft {
		t.Errorf("status: got %s, want draft", got.Status)
	}
}

func TestInvalidTransitions(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := createCourse(t, svc, kernel.NewUserID())

	// A draft cannot be published or rejected directly.
	if _, err := svc.Publish(ctx, c.ID); !errx.HasCode(err, course.CodeInvalidTransition) {
		t.Errorf("publish draft: expected COURSE_INVALID_TRANSITION, got %v", err)
	}
	if _, err := svc.Reject(ctx, c.ID); !errx.HasCode(err, course.CodeInvalidTransition) {
		t.Errorf("reject draft: expected COURSE_INVALID_TRANSITION, got %v", err)
	}
	if _, err := svc.Unpublish(ctx, c.ID); !errx.HasCode(err, course.CodeInvalidTransition) {
		t.Errorf("unpublish draft: expected COURSE_INVALID_TRANSITION, got %v", err)
	}
}

func TestGetCourse_Visibility(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	owner := kernel.NewUserID()
	c := createCourse(t, svc, owner)

	cases := []struct {
		name    string
		viewer  *kernel.Principal
		visible bool
	}{
		{"anonymous", nil, false},
		{"other student", asPrincipal(kernel.NewUserID(), kernel.RoleStudent), false},
		{"other instructor", asPrincipal(kernel.NewUserID(), kernel.RoleInstructor), false},
		{"owner", asPrincipal(owner, kernel.RoleInstructor), true},
		{"admin", asPrincipal(kernel.NewUserID(), kernel.RoleAdmin), true},
	}
	for _, tc := range cases {
		t.Run("draft/"+tc.name, func(t *testing.T) {
			_, err := svc.GetCourse(ctx, c.ID, tc.viewer)
			if tc.visible && err != nil {
				t.Fatalf("expected visible, got %v", err)
			}
			if !tc.visible && !errx.HasCode(err, course.CodeNotFound) {
				t.Fatalf("hidden course must look absent, got %v", err)
			}
		})
	}

	// Published courses are visible to everyone.
	if _, err := svc.SubmitForReview(ctx, c.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	if _, err := svc.Publish(ctx, c.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, err := svc.GetCourse(ctx, c.ID, nil); err != nil {
		t.Fatalf("published course hidden from anonymous viewer: %v", err)
	}
}

func TestListCatalog_OnlyPublished(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	instructor := kernel.NewUserID()

	draft := createCourse(t, svc, instructor)
	published := createCourse(t, svc, instructor)
	if _, err := svc.SubmitForReview(ctx, published.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}
	if _, err := svc.Publish(ctx, published.ID); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	page, err := svc.ListCatalog(ctx, nil, kernel.PaginationOptions{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListCatalog failed: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("catalog size: got %d, want 1", len(page.Items))
	}
	if page.Items[0].ID != published.ID {
		t.Error("catalog contains the wrong course")
	}
	_ = draft

	// The instructor listing sees both regardless of status.
	mine, err := svc.ListByInstructor(ctx, instructor, kernel.PaginationOptions{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListByInstructor failed: %v", err)
	}
	if len(mine.Items) != 2 {
		t.Fatalf("instructor listing: got %d, want 2", len(mine.Items))
	}
}

func TestListPendingReviewAndCounts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	a := createCourse(t, svc, kernel.NewUserID())
	createCourse(t, svc, kernel.NewUserID())
	if _, err := svc.SubmitForReview(ctx, a.ID); err != nil {
		t.Fatalf("SubmitForReview failed: %v", err)
	}

	pending, err := svc.ListPendingReview(ctx, kernel.PaginationOptions{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListPendingReview failed: %v", err)
	}
	if len(pending.Items) != 1 || pending.Items[0].ID != a.ID {
		t.Fatalf("review queue: got %d items", len(pending.Items))
	}

	count, err := svc.CountByStatus(ctx, course.StatusDraft)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if count != 1 {
		t.Errorf("draft count: got %d, want 1", count)
	}
}

func TestOwnerOf(t *testing.T) {
	svc := newService()
	owner := kernel.NewUserID()
	c := createCourse(t, svc, owner)

	got, err := svc.OwnerOf(context.Background(), c.ID.String())
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if got != owner {
		t.Errorf("owner: got %s, want %s", got, owner)
	}

	if _, err := svc.OwnerOf(context.Background(), kernel.NewCourseID().String()); !errx.HasCode(err, course.CodeNotFound) {
		t.Fatalf("expected COURSE_NOT_FOUND, got %v", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	c := createCourse(t, svc, kernel.NewUserID())

	title := "Advanced Go"
	price := 9900
	updated, err := svc.UpdateCourse(ctx, c.ID, course.Patch{Title: &title, PriceCents: &price})
	if err != nil {
		t.Fatalf("UpdateCourse failed: %v", err)
	}
	if updated.Title != "Advanced Go" || updated.PriceCents != 9900 {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Category != "programming" {
		t.Errorf("untouched field changed: %s", updated.Category)
	}

	if err := svc.DeleteCourse(ctx, c.ID); err != nil {
		t.Fatalf("DeleteCourse failed: %v", err)
	}
	if _, err := svc.GetCourse(ctx, c.ID, nil); !errx.HasCode(err, course.CodeNotFound) {
		t.Fatalf("expected COURSE_NOT_FOUND after delete, got %v", err)
	}
}
