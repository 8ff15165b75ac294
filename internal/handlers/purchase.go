package handlers

import (
	"kudipay/internal/models"
	"kudipay/internal/services/settlement"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	engine settlement.Service
}

func NewPurchaseHandler(engine settlement.Service) *PurchaseHandler {
	return &PurchaseHandler{engine: engine}
}

type airtimeInput struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	ServiceID string  `json:"service_id" validate:"required"`
	Phone     string  `json:"phone" validate:"required,min=10"`
}

func (h *PurchaseHandler) BuyAirtime(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input airtimeInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.engine.DebitAndFulfill(c.Context(), settlement.PurchaseRequest{
		UserID:    claims.UserID,
		Type:      models.TransactionTypeAirtime,
		Amount:    input.Amount,
		ServiceID: input.ServiceID,
		Recipient: input.Phone,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}

type dataInput struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	ServiceID     string  `json:"service_id" validate:"required"`
	Phone         string  `json:"phone" validate:"required,min=10"`
	VariationCode string  `json:"variation_code" validate:"required"`
}

func (h *PurchaseHandler) BuyData(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input dataInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.engine.DebitAndFulfill(c.Context(), settlement.PurchaseRequest{
		UserID:        claims.UserID,
		Type:          models.TransactionTypeData,
		Amount:        input.Amount,
		ServiceID:     input.ServiceID,
		Recipient:     input.Phone,
		VariationCode: input.VariationCode,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}

type billInput struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	ServiceID     string  `json:"service_id" validate:"required"`
	CustomerID    string  `json:"customer_id" validate:"required"`
	VariationCode string  `json:"variation_code"`
}

func (h *PurchaseHandler) PayBill(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input billInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if err := utils.ValidateStruct(input); err != nil {
		return utils.BadRequest(c, err.Error())
	}

	result, err := h.engine.DebitAndFulfill(c.Context(), settlement.PurchaseRequest{
		UserID:        claims.UserID,
		Type:          models.TransactionTypeBill,
		Amount:        input.Amount,
		ServiceID:     input.ServiceID,
		Recipient:     input.CustomerID,
		VariationCode: input.VariationCode,
	})
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}
