package handlers

import (
	"kudipay/internal/services/auth"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService auth.Service
}

func NewAuthHandler(authService auth.Service) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input struct {
		Name         string `json:"name" validate:"required"`
		Email        string `json:"email" validate:"required,email"`
		Phone        string `json:"phone" validate:"required"`
		Password     string `json:"password" validate:"required,min=8"`
		ReferralCode string `json:"referral_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	user, err := h.authService.Register(c.Context(), auth.RegisterInput{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		Password:     input.Password,
		ReferralCode: input.ReferralCode,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Created(c, fiber.Map{
		"id":            user.ID,
		"email":         user.Email,
		"referral_code": user.ReferralCode,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	token, user, err := h.authService.Login(c.Context(), input.Email, input.Password)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
		},
	})
}
