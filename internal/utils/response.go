package utils

import "github.com/gofiber/fiber/v2"

// Every endpoint replies with the same envelope: {"success": bool, ...}.

// Success sends a successful JSON envelope.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": data})
}

// Created sends a successful JSON envelope with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// Fail sends a failure envelope with the given status code.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": message})
}

// BadRequest sends a failure envelope with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a failure envelope with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, message)
}

// NotFound sends a failure envelope with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusNotFound, message)
}

// Conflict sends a failure envelope with status 409.
func Conflict(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusConflict, message)
}

// InternalError sends a generic failure envelope with status 500. Internal
// error detail never leaks to the caller.
func InternalError(c *fiber.Ctx) error {
	return Fail(c, fiber.StatusInternalServerError, "service temporarily unavailable")
}
