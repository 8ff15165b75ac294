package handlers

import (
	"kudipay/internal/services/referral"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	referrals referral.Service
}

func NewReferralHandler(referrals referral.Service) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// ClaimReward pays out the reward owed for referring the authenticated
// user. Calling it again after a successful payout is a no-op.
func (h *ReferralHandler) ClaimReward(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	result, err := h.referrals.ProcessReward(c.Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}
