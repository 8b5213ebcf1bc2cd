package handlers

import (
	"librental/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// actorFromCtx builds the acting user from the auth middleware locals
func actorFromCtx(c *fiber.Ctx) (domain.Actor, bool) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return domain.Actor{}, false
	}

	email, _ := c.Locals("email").(string)
	isStaff, _ := c.Locals("isStaff").(bool)

	return domain.Actor{
		ID:      userID,
		Email:   email,
		IsStaff: isStaff,
	}, true
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
