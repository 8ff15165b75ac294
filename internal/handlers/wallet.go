package handlers

import (
	"kudipay/internal/services/settlement"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	engine settlement.Service
}

func NewWalletHandler(engine settlement.Service) *WalletHandler {
	return &WalletHandler{engine: engine}
}

func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	balance, err := h.engine.GetBalance(c.Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{"balance": balance})
}

func (h *WalletHandler) FundWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	init, err := h.engine.InitiateFunding(c.Context(), claims.UserID, input.Amount)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, init)
}

func (h *WalletHandler) VerifyFunding(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	reference := c.Params("reference")
	if reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	result, err := h.engine.VerifyFunding(c.Context(), reference)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}
