package userapi

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/academy/pkg/fsx"
	"github.com/Abraxas-365/academy/pkg/iam/auth"
	"github.com/Abraxas-365/academy/pkg/iam/user"
	"github.com/Abraxas-365/academy/pkg/iam/user/usersrv"
	"github.com/gofiber/fiber/v2"
)

// maxAvatarSize bounds avatar uploads to 5 MiB.
const maxAvatarSize = 5 << 20

var allowedAvatarExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// UserHandlers owns the self-service profile endpoints.
type UserHandlers struct {
	svc     *usersrv.UserService
	storage fsx.Storage
}

// NewUserHandlers creates the profile handlers.
func NewUserHandlers(svc *usersrv.UserService, storage fsx.Storage) *UserHandlers {
	return &UserHandlers{svc: svc, storage: storage}
}

// RegisterRoutes mounts the profile endpoints behind authentication.
func (h *UserHandlers) RegisterRoutes(app fiber.Router, authenticate fiber.Handler) {
	grp := app.Group("/api/users", authenticate)

	grp.Put("/me", h.updateProfile)
	grp.Put("/me/avatar", h.uploadAvatar)
}

type profilePatchRequest struct {
	Name   *string `json:"name"`
	Avatar *string `json:"avatar"`
}

func (h *UserHandlers) updateProfile(c *fiber.Ctx) error {
	p, err := auth.PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	var req profilePatchRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Name cannot be empty")
	}

	u, err := h.svc.UpdateProfile(c.Context(), p.UserID, req.Name, req.Avatar)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}

// uploadAvatar stores the multipart file and points the profile at it. The
// key is deterministic per user, so a re-upload overwrites the old avatar.
func (h *UserHandlers) uploadAvatar(c *fiber.Ctx) error {
	p, err := auth.PrincipalFromCtx(c)
	if err != nil {
		return err
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Avatar file is required")
	}
	if file.Size > maxAvatarSize {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Avatar must be smaller than 5MB")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, ok := allowedAvatarExt[ext]
	if !ok {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Avatar must be a PNG, JPEG or WebP image").
			WithDetail("extension", ext)
	}

	src, err := file.Open()
	if err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Could not read avatar file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return user.ErrRegistry.NewWithMessage(user.CodeInvalidInput, "Could not read avatar file")
	}

	key := fmt.Sprintf("avatars/%s%s", p.UserID, ext)
	if err := h.storage.Write(c.Context(), key, data, contentType); err != nil {
		return err
	}

	url := h.storage.URL(key)
	u, err := h.svc.UpdateProfile(c.Context(), p.UserID, nil, &url)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    u,
	})
}
