package course_test

import (
	"testing"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/errx"
	"github.com/Abraxas-365/academy/pkg/kernel"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to course.Status }{
		{course.StatusDraft, course.StatusPending},
		{course.StatusPending, course.StatusPublished},
		{course.StatusPending, course.StatusDraft},
		{course.StatusPublished, course.StatusDraft},
	}
	for _, tc := range allowed {
		if !course.CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to course.Status }{
		{course.StatusDraft, course.StatusPublished},
		{course.StatusDraft, course.StatusDraft},
		{course.StatusPublished, course.StatusPending},
		{course.StatusPublished, course.StatusPublished},
		{course.StatusPending, course.StatusPending},
	}
	for _, tc := range denied {
		if course.CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func TestNewCourse_Validate(t *testing.T) {
	valid := course.NewCourse{
		Title:        "Intro to Go",
		PriceCents:   4900,
		InstructorID: kernel.NewUserID(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid course rejected: %v", err)
	}

	cases := []struct {
		name string
		n    course.NewCourse
	}{
		{"empty title", course.NewCourse{Title: "  ", InstructorID: kernel.NewUserID()}},
		{"negative price", course.NewCourse{Title: "T", PriceCents: -1, InstructorID: kernel.NewUserID()}},
		{"no instructor", course.NewCourse{Title: "T"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.n.Validate(); !errx.HasCode(err, course.CodeInvalidInput) {
				t.Fatalf("expected COURSE_INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestPatch_Validate(t *testing.T) {
	empty := ""
	neg := -5
	if err := (&course.Patch{Title: &empty}).Validate(); !errx.HasCode(err, course.CodeInvalidInput) {
		t.Error("empty title patch accepted")
	}
	if err := (&course.Patch{PriceCents: &neg}).Validate(); !errx.HasCode(err, course.CodeInvalidInput) {
		t.Error("negative price patch accepted")
	}
	if err := (&course.Patch{}).Validate(); err != nil {
		t.Errorf("empty patch rejected: %v", err)
	}
}

func TestStatus_IsValid(t *testing.T) {
	for _, s := range []course.Status{course.StatusDraft, course.StatusPending, course.StatusPublished} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if course.Status("archived").IsValid() {
		t.Error("unknown status accepted")
	}
}
