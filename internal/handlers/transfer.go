package handlers

import (
	"kudipay/internal/services/transfer"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	transfers transfer.Service
}

func NewTransferHandler(transfers transfer.Service) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

type transferInput struct {
	RecipientEmail string  `json:"recipient_email" validate:"required,email"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Note           string  `json:"note" validate:"max=200"`
}

func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input transferInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.transfers.Transfer(c.Context(), claims.UserID, input.RecipientEmail, input.Amount, input.Note)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}

func (h *TransferHandler) ValidateRecipient(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	recipient, err := h.transfers.ValidateRecipient(c.Context(), claims.UserID, input.Email)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, recipient)
}
