package cashbills

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service records payments and serves cash bill reads.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs the cash bills service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// PaymentInput is one entry of a split payment request.
type PaymentInput struct {
	Mode   PaymentMode `json:"mode,omitempty"`
	Amount float64     `json:"amount" validate:"required,gt=0"`
	RefNo  string      `json:"ref_no,omitempty"`
	Note   string      `json:"note,omitempty"`
}

// RecordPaymentRequest describes one payment against a sale. A payment may
// be split across tenders; the split is judged against the remaining due as
// a whole.
type RecordPaymentRequest struct {
	SaleID         int64          `json:"sale_id" validate:"required,gt=0"`
	Payments       []PaymentInput `json:"payments" validate:"required,min=1,dive"`
	Date           *time.Time     `json:"date,omitempty"`
	IdempotencyKey string         `json:"-"`
}

// RecordPayment records a payment against a sale. The cash-bill number, the
// bill row, its payment entries and the sale's new payment totals commit
// together; a rejected or failed payment draws no number. A split whose sum
// exceeds the remaining due plus the money tolerance is rejected outright
// rather than capped.
func (s *Service) RecordPayment(ctx context.Context, identity shared.Identity, req RecordPaymentRequest) (CashBill, error) {
	if req.SaleID <= 0 {
		return CashBill{}, ErrMissingSale
	}
	payments, requestedTotal, err := normalizePayments(req.Payments)
	if err != nil {
		return CashBill{}, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, req.IdempotencyKey, "cashbills.payment"); err != nil {
			return CashBill{}, err
		}
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	bill := CashBill{
		OrgID:     identity.OrgID,
		SaleID:    req.SaleID,
		Payments:  payments,
		TotalPaid: requestedTotal,
		Date:      date,
		CreatedBy: identity.UserID,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		bal, err := tx.LockSaleBalance(ctx, identity.OrgID, req.SaleID)
		if err != nil {
			return err
		}
		remaining := bal.Total - bal.PaymentsTotal
		if requestedTotal > remaining+shared.MoneyEpsilon {
			return fmt.Errorf("%w: amount %.2f exceeds remaining due %.2f", shared.ErrOverpayment, requestedTotal, remaining)
		}

		number, err := tx.AllocateNumber(ctx, identity.OrgID, numbering.KindCashBill)
		if err != nil {
			return err
		}
		bill.BillNo = number.String()
		bill.CustomerName = bal.CustomerName

		id, err := tx.InsertBill(ctx, bill)
		if err != nil {
			return err
		}
		bill.ID = id

		newTotal := bal.PaymentsTotal + requestedTotal
		status := sales.DerivePaymentStatus(bal.Total, newTotal)
		return tx.UpdateSalePayments(ctx, identity.OrgID, req.SaleID, newTotal, status)
	})
	if err != nil {
		if req.IdempotencyKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, req.IdempotencyKey)
		}
		return CashBill{}, err
	}

	s.recordAudit(ctx, identity, "cashbill.record", bill.ID, map[string]any{"bill_no": bill.BillNo, "sale_id": bill.SaleID, "total_paid": bill.TotalPaid})
	return bill, nil
}

// Get returns one cash bill in the org scope.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id int64) (CashBill, error) {
	return s.repo.Get(ctx, identity.OrgID, id)
}

// List returns cash bills matching the filter.
func (s *Service) List(ctx context.Context, identity shared.Identity, filter ListFilter) ([]CashBill, error) {
	return s.repo.List(ctx, identity.OrgID, filter)
}

// normalizePayments validates every entry and returns the entries with the
// cash default applied plus the split's sum.
func normalizePayments(inputs []PaymentInput) ([]Payment, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, ErrEmptyPayments
	}
	payments := make([]Payment, len(inputs))
	total := 0.0
	for i, in := range inputs {
		mode := in.Mode
		if mode == "" {
			mode = ModeCash
		}
		if !mode.Valid() {
			return nil, 0, fmt.Errorf("payments[%d]: %w", i, ErrInvalidMode)
		}
		if in.Amount <= 0 || math.IsNaN(in.Amount) {
			return nil, 0, fmt.Errorf("payments[%d]: %w", i, ErrInvalidAmount)
		}
		payments[i] = Payment{Mode: mode, Amount: in.Amount, RefNo: in.RefNo, Note: in.Note}
		total += in.Amount
	}
	return payments, total, nil
}

func (s *Service) recordAudit(ctx context.Context, identity shared.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    identity.OrgID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "cash_bill",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
