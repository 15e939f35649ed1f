package auth

import (
	"github.com/Abraxas-365/academy/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// RequireRoles admits principals whose role is in the allowed set. Must run
// after Authenticate.
func RequireRoles(roles ...kernel.Role) fiber.Handler {
	allowed := make(map[kernel.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		p, err := PrincipalFromCtx(c)
		if err != nil {
			return err
		}
		if !allowed[p.Role] {
			return ErrForbidden().
				WithDetail("required", roleNames(roles)).
				WithDetail("actual", string(p.Role))
		}
		return c.Next()
	}
}

// RequireApprovedInstructor admits admins and approved instructors. An
// unapproved instructor holds the role but not the capability yet, which is
// a distinct failure from having the wrong role.
func RequireApprovedInstructor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFromCtx(c)
		if err != nil {
			return err
		}
		if p.IsAdmin() {
			return c.Next()
		}
		if p.Role != kernel.RoleInstructor {
			return ErrForbidden().
				WithDetail("required", roleNames([]kernel.Role{kernel.RoleInstructor, kernel.RoleAdmin})).
				WithDetail("actual", string(p.Role))
		}
		if !p.IsApproved {
			return ErrPendingApproval()
		}
		return c.Next()
	}
}

// RequireCourseOwner admits the owner of the course named by the route
// parameter. Admins bypass ownership unconditionally. A missing course
// surfaces as the checker's not-found error, before any ownership verdict.
func RequireCourseOwner(checker OwnershipChecker, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := PrincipalFromCtx(c)
		if err != nil {
			return err
		}
		if p.IsAdmin() {
			return c.Next()
		}

		owner, err := checker.OwnerOf(c.Context(), c.Params(param))
		if err != nil {
			return err
		}
		if owner != p.UserID {
			return ErrNotCourseOwner()
		}
		return c.Next()
	}
}

func roleNames(roles []kernel.Role) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}
