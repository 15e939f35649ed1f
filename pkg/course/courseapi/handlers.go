package courseapi

import (
	"context"

	"github.com/Abraxas-365/academy/pkg/course"
	"github.com/Abraxas-365/academy/pkg/course/coursesrv"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// CourseHandlers owns the course HTTP surface.
type CourseHandlers struct {
	svc *coursesrv.CourseService
}

// NewCourseHandlers creates the course handlers.
func NewCourseHandlers(svc *coursesrv.CourseService) *CourseHandlers {
	return &CourseHandlers{svc: svc}
}

// RegisterRoutes mounts the course endpoints. The write routes layer the
// instructor and ownership guards over the authentication middleware.
func (h *CourseHandlers) RegisterRoutes(app fiber.Router, mw *auth.AuthMiddleware) {
	authenticate := mw.Authenticate()
	owner := auth.RequireCourseOwner(h.svc, "id")

	courses := app.Group("/api/courses")
	courses.Get("/", h.listCatalog)
	courses.Get("/:id", mw.OptionalAuthenticate(), h.getCourse)

	courses.Post("/", authenticate, auth.RequireApprovedInstructor(), h.createCourse)
	courses.Put("/:id", authenticate, owner, h.updateCourse)
	courses.Delete("/:id", authenticate, owner, h.deleteCourse)
	courses.Post("/:id/submit", authenticate, owner, h.submitCourse)
	courses.Post("/:id/unpublish", authenticate, owner, h.unpublishCourse)

	courses.Post("/:id/publish", authenticate, auth.RequireRoles(kernel.RoleAdmin), h.publishCourse)
	courses.Post("/:id/reject", authenticate, auth.RequireRoles(kernel.RoleAdmin), h.rejectCourse)

	app.Get("/api/instructor/courses", authenticate, auth.RequireApprovedInstructor(), h.listOwnCourses)
}

func (h *CourseHandlers) listCatalog(c *fiber.Ctx) error {
	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	page, err := h.svc.ListCatalog(c.Context(), category, paginationFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *CourseHandlers) getCourse(c *fiber.Ctx) error {
	viewer, _ := auth.PrincipalFromCtx(c)

	found, err := h.svc.GetCourse(c.Context(), kernel.CourseIDFrom(c.Params("id")), viewer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"course":  found,
	})
}

type courseRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	PriceCents  int     `json:"price_cents"`
	Thumbnail   *string `json:"thumbnail"`
}

func (h *CourseHandlers) createCourse(c *fiber.Ctx) error {
	p, err := auth.PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	var req courseRequest
	if err := c.BodyParser(&req); err != nil {
		return course.ErrRegistry.NewWithMessage(course.CodeInvalidInput, "Invalid request body")
	}

	created, err := h.svc.CreateCourse(c.Context(), p.UserID, course.NewCourse{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"course":  created,
	})
}

type coursePatchRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	PriceCents  *int    `json:"price_cents"`
	Thumbnail   *string `json:"thumbnail"`
}

func (h *CourseHandlers) updateCourse(c *fiber.Ctx) error {
	var req coursePatchRequest
	if err := c.BodyParser(&req); err != nil {
		return course.ErrRegistry.NewWithMessage(course.CodeInvalidInput, "Invalid request body")
	}

	updated, err := h.svc.UpdateCourse(c.Context(), kernel.CourseIDFrom(c.Params("id")), course.Patch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		PriceCents:  req.PriceCents,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"course":  updated,
	})
}

func (h *CourseHandlers) deleteCourse(c *fiber.Ctx) error {
	if err := h.svc.DeleteCourse(c.Context(), kernel.CourseIDFrom(c.Params("id"))); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Course deleted",
	})
}

func (h *CourseHandlers) submitCourse(c *fiber.Ctx) error {
	return h.respondTransition(c, h.svc.SubmitForReview)
}

func (h *CourseHandlers) publishCourse(c *fiber.Ctx) error {
	return h.respondTransition(c, h.svc.Publish)
}

func (h *CourseHandlers) rejectCourse(c *fiber.Ctx) error {
	return h.respondTransition(c, h.svc.Reject)
}

func (h *CourseHandlers) unpublishCourse(c *fiber.Ctx) error {
	return h.respondTransition(c, h.svc.Unpublish)
}

func (h *CourseHandlers) listOwnCourses(c *fiber.Ctx) error {
	p, err := auth.PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	page, err := h.svc.ListByInstructor(c.Context(), p.UserID, paginationFromQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *CourseHandlers) respondTransition(c *fiber.Ctx, fn func(ctx context.Context, id kernel.CourseID) (*course.Course, error)) error {
	updated, err := fn(c.Context(), kernel.CourseIDFrom(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"course":  updated,
	})
}

func paginationFromQuery(c *fiber.Ctx) kernel.PaginationOptions {
	return kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 10),
	}
}
