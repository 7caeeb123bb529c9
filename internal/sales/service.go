package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/numbering"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates sale transactions.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the sales service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create records a new sale. Invoice allocation, the sale record and the
// stock decrements commit together; any failure leaves the invoice counter
// and product stocks untouched.
func (s *Service) Create(ctx context.Context, identity shared.Identity, req CreateSaleRequest) (Sale, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return Sale{}, err
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	sale := Sale{
		OrgID:         identity.OrgID,
		Date:          date,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		Items:         toItems(req.Items),
		Total:         req.Total,
		PaymentsTotal: 0,
		PaymentStatus: PaymentStatusUnpaid,
		CreatedBy:     identity.UserID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := verifyReferences(ctx, tx, identity.OrgID, sale.Items, sale.CustomerID); err != nil {
			return err
		}
		number, err := tx.AllocateNumber(ctx, identity.OrgID, numbering.KindInvoice)
		if err != nil {
			return err
		}
		sale.InvoiceNo = number.String()
		id, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = id
		return tx.ApplyStockDeltas(ctx, identity.OrgID, outboundDeltas(sale.Items))
	})
	if err != nil {
		return Sale{}, err
	}

	s.recordAudit(ctx, identity, "sale.create", sale.ID, map[string]any{"invoice_no": sale.InvoiceNo, "total": sale.Total})
	return s.repo.Get(ctx, identity.OrgID, sale.ID)
}

// Update rewrites a sale. When the item list changes the old stock movement
// is reversed in full before the new one is applied, so product stocks always
// reflect exactly the persisted items. Payment fields are never touched.
func (s *Service) Update(ctx context.Context, identity shared.Identity, id int64, req UpdateSaleRequest) (Sale, error) {
	if req.Items != nil {
		if err := validateItems(*req.Items); err != nil {
			return Sale{}, err
		}
	}
	if req.Total != nil && *req.Total < 0 {
		return Sale{}, ErrInvalidTotal
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, identity.OrgID, id)
		if err != nil {
			return err
		}

		if req.CustomerID != nil {
			sale.CustomerID = req.CustomerID
		}
		if req.CustomerName != nil {
			sale.CustomerName = *req.CustomerName
		}
		if req.Date != nil {
			sale.Date = req.Date.UTC()
		}
		if req.Total != nil {
			sale.Total = *req.Total
		}

		replaceItems := req.Items != nil
		oldItems := sale.Items
		if replaceItems {
			sale.Items = toItems(*req.Items)
		}

		// Only a customer supplied in this request is re-verified. The stored
		// reference may point at a customer removed since the sale was made.
		if err := verifyReferences(ctx, tx, identity.OrgID, sale.Items, req.CustomerID); err != nil {
			return err
		}
		if replaceItems {
			if err := tx.ApplyStockDeltas(ctx, identity.OrgID, inboundDeltas(oldItems)); err != nil {
				return err
			}
			if err := tx.ApplyStockDeltas(ctx, identity.OrgID, outboundDeltas(sale.Items)); err != nil {
				return err
			}
		}
		return tx.UpdateSale(ctx, sale, replaceItems)
	})
	if err != nil {
		return Sale{}, err
	}

	s.recordAudit(ctx, identity, "sale.update", id, nil)
	return s.repo.Get(ctx, identity.OrgID, id)
}

// Delete removes a sale and returns its stock to the products. Cash bills
// referencing the sale are left in place as historical records.
func (s *Service) Delete(ctx context.Context, identity shared.Identity, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSale(ctx, identity.OrgID, id)
		if err != nil {
			return err
		}
		if err := tx.ApplyStockDeltas(ctx, identity.OrgID, inboundDeltas(sale.Items)); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, identity.OrgID, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, identity, "sale.delete", id, nil)
	return nil
}

// Get returns one sale in the org scope.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id int64) (Sale, error) {
	return s.repo.Get(ctx, identity.OrgID, id)
}

// List returns sales matching the filter.
func (s *Service) List(ctx context.Context, identity shared.Identity, filter ListFilter) ([]Sale, error) {
	return s.repo.List(ctx, identity.OrgID, filter)
}

func verifyReferences(ctx context.Context, tx TxRepository, orgID int64, items []SaleItem, customerID *int64) error {
	ids := distinctProductIDs(items)
	count, err := tx.CountProducts(ctx, orgID, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return ErrForeignProduct
	}
	if customerID != nil {
		ok, err := tx.CustomerExists(ctx, orgID, *customerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignCustomer
		}
	}
	return nil
}

func distinctProductIDs(items []SaleItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

func toItems(reqs []SaleItemRequest) []SaleItem {
	items := make([]SaleItem, len(reqs))
	for i, r := range reqs {
		items[i] = SaleItem{ProductID: r.ProductID, Quantity: r.Quantity, Price: r.Price}
	}
	return items
}

func (s *Service) recordAudit(ctx context.Context, identity shared.Identity, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		OrgID:    identity.OrgID,
		ActorID:  identity.UserID,
		Action:   action,
		Entity:   "sale",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
