package handlers

import (
	"strconv"
	"time"

	"kudipay/internal/repositories"
	"kudipay/internal/services/settlement"
	"kudipay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	repo   repositories.LedgerRepository
	engine settlement.Service
}

func NewTransactionHandler(repo repositories.LedgerRepository, engine settlement.Service) *TransactionHandler {
	return &TransactionHandler{repo: repo, engine: engine}
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	txns, err := h.repo.ListTransactions(c.Context(), claims.UserID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"transactions": txns,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return utils.BadRequest(c, "invalid transaction ID")
	}

	txn, err := h.repo.GetTransactionByID(c.Context(), claims.UserID, uint(id))
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, txn)
}

func (h *TransactionHandler) GetStats(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		days = 30
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	stats, err := h.repo.GetTransactionStats(c.Context(), claims.UserID, start, end)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"period_days": days,
		"stats":       stats,
	})
}

// Requery re-checks a pending transaction against its provider and settles
// it if the provider has reached a terminal answer.
func (h *TransactionHandler) Requery(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	reference := c.Params("reference")
	if reference == "" {
		return utils.BadRequest(c, "reference is required")
	}

	// Only the owner may requery their transaction.
	txn, err := h.repo.FindTransactionByReference(c.Context(), reference)
	if err != nil {
		return respondError(c, err)
	}
	if txn.UserID != claims.UserID {
		return utils.NotFound(c, "transaction not found")
	}

	result, err := h.engine.ReconcilePending(c.Context(), reference)
	if err != nil {
		return respondError(c, err)
	}

	return utils.Success(c, result)
}
