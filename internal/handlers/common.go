// Package handlers contains the HTTP handlers for the API layer.
package handlers

import (
	stderrors "errors"

	domain "kudipay/internal/errors"
	"kudipay/internal/models"
	"kudipay/internal/services/settlement"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// extractUserClaims pulls the verified identity off the request.
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// respondError maps service errors onto the response envelope. Business
// and not-found errors carry their message; infrastructure failures are
// logged and surfaced generically.
func respondError(c *fiber.Ctx, err error) error {
	var de *domain.DomainError
	if stderrors.As(err, &de) {
		switch de {
		case domain.ErrUserNotFound, domain.ErrRecipientNotFound,
			domain.ErrTransactionNotFound, domain.ErrReferralNotFound:
			return utils.NotFound(c, de.Message)
		case domain.ErrDuplicateReference:
			return utils.Conflict(c, de.Message)
		case domain.ErrInvariantViolation:
			// internal bug, never user-visible detail
			logrus.WithError(err).Error("ledger invariant violation")
			return utils.InternalError(c)
		default:
			return utils.BadRequest(c, de.Message)
		}
	}

	if stderrors.Is(err, settlement.ErrStoreUnavailable) || stderrors.Is(err, settlement.ErrGatewayUnreachable) {
		logrus.WithError(err).Error("infrastructure failure")
		return utils.InternalError(c)
	}

	logrus.WithError(err).Error("unhandled request error")
	return utils.InternalError(c)
}
