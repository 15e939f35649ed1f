// Package adminapi is the administration HTTP surface: account management,
// the instructor approval workflow and the review dashboard.
package adminapi

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/asyncx"
	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/course/coursesrv"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/Abraxas-365/academy/pkg/ptrx"
	"github.com/gofiber/fiber/v2"
)

// AdminHandlers owns the /api/admin surface.
type AdminHandlers struct {
	users   *usersrv.UserService
	courses *coursesrv.CourseService
	authCfg minPasswordPolicy
}

type minPasswordPolicy struct {
	MinLength int
}

// NewAdminHandlers creates the admin handlers. minPasswordLength applies to
// admin-provisioned instructor accounts.
func NewAdminHandlers(users *usersrv.UserService, courses *coursesrv.CourseService, minPasswordLength int) *AdminHandlers {
	return &AdminHandlers{
		users:   users,
		courses: courses,
		authCfg: minPasswordPolicy{MinLength: minPasswordLength},
	}
}

// RegisterRoutes mounts the admin endpoints. Everything here is admin-only.
func (h *AdminHandlers) RegisterRoutes(app fiber.Router, authenticate fiber.Handler) {
	grp := app.Group("/api/admin", authenticate, auth.RequireRoles(kernel.RoleAdmin))

	grp.Get("/users", h.listUsers)
	grp.Post("/instructors", h.createInstructor)
	grp.Put("/users/:id/approve", h.approveInstructor)
	grp.Put("/users/:id/active", h.setActive)

	grp.Get("/courses/pending", h.listPendingCourses)
	grp.Get("/dashboard", h.dashboard)
}

func (h *AdminHandlers) listUsers(c *fiber.Ctx) error {
	var filter user.ListFilter
	if v := c.Query("role"); v != "" {
		role := kernel.Role(v)
		if !role.IsValid() {
			return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Unknown role").
				WithDetail("role", v)
		}
		filter.Role = &role
	}
	if v := c.Query("active"); v != "" {
		filter.IsActive = ptrx.Bool(v == "true")
	}

	page, err := h.users.ListUsers(c.Context(), filter, kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 10),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

type createInstructorRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AdminHandlers) createInstructor(c *fiber.Ctx) error {
	var req createInstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}
	if len(req.Password) < h.authCfg.MinLength {
		return auth.ErrWeakPassword(h.authCfg.MinLength)
	}

	u, err := h.users.CreateInstructor(c.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

func (h *AdminHandlers) approveInstructor(c *fiber.Ctx) error {
	u, err := h.users.ApproveInstructor(c.Context(), kernel.UserIDFrom(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AdminHandlers) setActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}

	u, err := h.users.SetActive(c.Context(), kernel.UserIDFrom(c.Params("id")), req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

func (h *AdminHandlers) listPendingCourses(c *fiber.Ctx) error {
	page, err := h.courses.ListPendingReview(c.Context(), kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 10),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// dashboard aggregates independent counts concurrently; the numbers come
// from different tables so the queries fan out.
func (h *AdminHandlers) dashboard(c *fiber.Ctx) error {
	counts, err := asyncx.All(c.Context(),
		func(ctx context.Context) (int, error) {
			return h.users.CountUsers(ctx, user.ListFilter{})
		},
		func(ctx context.Context) (int, error) {
			instructor := kernel.RoleInstructor
			return h.users.CountUsers(ctx, user.ListFilter{Role: &instructor})
		},
		func(ctx context.Context) (int, error) {
			return h.courses.CountByStatus(ctx, course.StatusPending)
		},
		func(ctx context.Context) (int, error) {
			return h.courses.CountByStatus(ctx, course.StatusPublished)
		},
	)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"dashboard": fiber.Map{
			"total_users":       counts[0],
			"instructors":       counts[1],
			"pending_courses":   counts[2],
			"published_courses": counts[3],
		},
	})
}
