package bootstrap

import (
	"context"

	agreementapp "github.com/erp/rental/internal/application/agreement"
	billingapp "github.com/erp/rental/internal/application/billing"
	documentapp "github.com/erp/rental/internal/application/document"
	duesapp "github.com/erp/rental/internal/application/dues"
	ledgerapp "github.com/erp/rental/internal/application/ledger"
	"github.com/erp/rental/internal/domain/shared"
	"github.com/erp/rental/internal/infrastructure/scheduler"
)

// RegisterJobs registers the ledger batch jobs on s in the order the daily
// run executes them. Lease status goes first so the statement jobs see the
// current agreements, and the dues snapshot is rebuilt once the balances
// are final. Monthly invoicing is only registered when enabled.
func (svc *Services) RegisterJobs(s *scheduler.Scheduler, invoicingEnabled bool) {
	s.Register(agreementapp.JobExpireAgreements, svc.Agreements.ExpireAgreements)
	s.Register(agreementapp.JobCheckExpiringAgreements, func(ctx context.Context) (*shared.BatchResult, error) {
		_, result, err := svc.Agreements.CheckExpiringAgreements(ctx)
		return result, err
	})
	s.Register(ledgerapp.JobCreateMissingCollectionStatements, svc.Ledger.CreateMissingCollectionStatements)
	s.Register(ledgerapp.JobGenerateMissingStatementEntries, svc.Ledger.GenerateMissingStatementEntries)
	if invoicingEnabled {
		s.Register(billingapp.JobGenerateMonthlyInvoices, svc.Invoices.GenerateMonthlyInvoices)
	}
	s.Register(ledgerapp.JobRecalculateRunningBalances, svc.Ledger.RecalculateAllRunningBalances)
	s.Register(duesapp.JobRebuildOutstandingDues, svc.Dues.Rebuild)
	s.Register(duesapp.JobCollectionReminders, func(ctx context.Context) (*shared.BatchResult, error) {
		_, result, err := svc.Dues.CollectionReminders(ctx)
		return result, err
	})
}

// RegisterMaintenanceJobs registers the jobs that only run on demand
func (svc *Services) RegisterMaintenanceJobs(s *scheduler.Scheduler) {
	s.RegisterManual(ledgerapp.JobCleanupAndRegenerate, svc.Ledger.CleanupAndRegenerate)
	s.RegisterManual(documentapp.JobCleanupPendingUploads, svc.Documents.CleanupPendingUploads)
}
