// Package jobs runs the background reconciliation loop. Transactions
// parked as pending by provider timeouts or missed webhooks are re-checked
// against their provider until they settle.
package jobs

import (
	"context"
	"time"

	"kudipay/internal/models"
	"kudipay/internal/repositories"
	"kudipay/internal/services/settlement"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	// pending rows younger than this are still in their caller's hands
	defaultMinAge = 2 * time.Minute
	defaultBatch  = 50
	jobTimeout    = 5 * time.Minute
)

var reconcilableTypes = []string{
	models.TransactionTypeAirtime,
	models.TransactionTypeData,
	models.TransactionTypeBill,
	models.TransactionTypeWalletFund,
}

type ReconcileJob struct {
	ledger repositories.LedgerRepository
	engine settlement.Service
	minAge time.Duration
	batch  int
}

func NewReconcileJob(ledger repositories.LedgerRepository, engine settlement.Service) *ReconcileJob {
	return &ReconcileJob{
		ledger: ledger,
		engine: engine,
		minAge: defaultMinAge,
		batch:  defaultBatch,
	}
}

// Run reconciles one batch of stale pending transactions. Each reference
// is settled independently so one provider failure does not block the rest.
func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	stale, err := j.ledger.ListStalePending(ctx, reconcilableTypes, time.Now().Add(-j.minAge), j.batch)
	if err != nil {
		logrus.WithError(err).Error("reconciliation sweep failed to list pending transactions")
		return
	}
	if len(stale) == 0 {
		return
	}

	var settled, stillPending, failed int
	for _, txn := range stale {
		result, err := j.engine.ReconcilePending(ctx, txn.Reference)
		if err != nil {
			failed++
			logrus.WithError(err).WithField("reference", txn.Reference).
				Warn("reconciliation attempt failed")
			continue
		}
		if result.Outcome == settlement.OutcomeIndeterminate {
			stillPending++
		} else {
			settled++
		}
	}

	logrus.WithFields(logrus.Fields{
		"scanned":       len(stale),
		"settled":       settled,
		"still_pending": stillPending,
		"errors":        failed,
	}).Info("reconciliation sweep complete")
}

// StartScheduler registers the job on a cron schedule and starts it.
// The returned cron should be stopped on shutdown.
func StartScheduler(job *ReconcileJob, schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
