package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates purchase transactions.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the purchases service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create records a new purchase and adds its quantities to product stock in
// the same transaction.
func (s *Service) Create(ctx context.Context, identity shared.Identity, req CreatePurchaseRequest) (Purchase, error) {
	if err := ValidateCreateRequest(req); err != nil {
		return Purchase{}, err
	}

	date := time.Now().UTC()
	if req.Date != nil {
		date = req.Date.UTC()
	}

	purchase := Purchase{
		OrgID:        identity.OrgID,
		Date:         date,
		BillNumber:   req.BillNumber,
		SupplierID:   req.SupplierID,
		SupplierName: req.SupplierName,
		Items:        toItems(req.Items),
		SubTotal:     req.SubTotal,
		TaxAmount:    req.TaxAmount,
		Discount:     req.Discount,
		Total:        req.Total,
		Notes:        req.Notes,
		CreatedBy:    identity.UserID,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := verifyReferences(ctx, tx, identity.OrgID, purchase.Items, purchase.SupplierID); err != nil {
			return err
		}
		id, err := tx.InsertPurchase(ctx, purchase)
		if err != nil {
			return err
		}
		purchase.ID = id
		return tx.ApplyStockDeltas(ctx, identity.OrgID, inboundDeltas(purchase.Items))
	})
	if err != nil {
		return Purchase{}, err
	}

	s.recordAudit(ctx, identity, "purchase.create", purchase.ID, map[string]any{"bill_number": purchase.BillNumber, "total": purchase.Total})
	return s.repo.Get(ctx, identity.OrgID, purchase.ID)
}

// Update rewrites a purchase. A changed item list reverses the old stock
// movement in full before the new one is applied.
func (s *Service) Update(ctx context.Context, identity shared.Identity, id int64, req UpdatePurchaseRequest) (Purchase, error) {
	if req.Items != nil {
		if err := validateItems(*req.Items); err != nil {
			return Purchase{}, err
		}
	}
	for _, v := range []*float64{req.SubTotal, req.TaxAmount, req.Discount, req.Total} {
		if v != nil && *v < 0 {
			return Purchase{}, ErrInvalidAmount
		}
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, identity.OrgID, id)
		if err != nil {
			return err
		}

		if req.SupplierID != nil {
			purchase.SupplierID = req.SupplierID
		}
		if req.SupplierName != nil {
			purchase.SupplierName = *req.SupplierName
		}
		if req.BillNumber != nil {
			purchase.BillNumber = *req.BillNumber
		}
		if req.Date != nil {
			purchase.Date = req.Date.UTC()
		}
		if req.SubTotal != nil {
			purchase.SubTotal = *req.SubTotal
		}
		if req.TaxAmount != nil {
			purchase.TaxAmount = *req.TaxAmount
		}
		if req.Discount != nil {
			purchase.Discount = *req.Discount
		}
		if req.Total != nil {
			purchase.Total = *req.Total
		}
		if req.Notes != nil {
			purchase.Notes = *req.Notes
		}

		replaceItems := req.Items != nil
		oldItems := purchase.Items
		if replaceItems {
			purchase.Items = toItems(*req.Items)
		}

		// Only a supplier supplied in this request is re-verified. The stored
		// reference may point at a supplier removed since the purchase was made.
		if err := verifyReferences(ctx, tx, identity.OrgID, purchase.Items, req.SupplierID); err != nil {
			return err
		}
		if replaceItems {
			if err := tx.ApplyStockDeltas(ctx, identity.OrgID, outboundDeltas(oldItems)); err != nil {
				return err
			}
			if err := tx.ApplyStockDeltas(ctx, identity.OrgID, inboundDeltas(purchase.Items)); err != nil {
				return err
			}
		}
		return tx.UpdatePurchase(ctx, purchase, replaceItems)
	})
	if err != nil {
		return Purchase{}, err
	}

	s.recordAudit(ctx, identity, "purchase.update", id, nil)
	return s.repo.Get(ctx, identity.OrgID, id)
}

// Delete removes a purchase and takes its quantities back out of stock.
func (s *Service) Delete(ctx context.Context, identity shared.Identity, id int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		purchase, err := tx.GetPurchase(ctx, identity.OrgID, id)
		if err != nil {
			return err
		}
		if err := tx.ApplyStockDeltas(ctx, identity.OrgID, outboundDeltas(purchase.Items)); err != nil {
			return err
		}
		return tx.DeletePurchase(ctx, identity.OrgID, id)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, identity, "purchase.delete", id, nil)
	return nil
}

// Get returns one purchase in the org scope.
func (s *Service) Get(ctx context.Context, identity shared.Identity, id int64) (Purchase, error) {
	return s.repo.Get(ctx, identity.OrgID, id)
}

// List returns purchases matching the filter.
func (s *Service) List(ctx context.Context, identity shared.Identity, filter ListFilter) ([]Purchase, error) {
	return s.repo.List(ctx, identity.OrgID, filter)
}

func verifyReferences(ctx context.Context, tx TxRepository, orgID int64, items []PurchaseItem, supplierID *int64) error {
	ids := distinctProductIDs(items)
	count, err := tx.CountProducts(ctx, orgID, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return ErrForeignProduct
	}
	if supplierID != nil {
		ok, err := tx.SupplierExists(ctx, orgID, *supplierID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForeignSupplier
		}
	}
	return nil
}

func distinctProductIDs(items []PurchaseItem) []int64 {
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

func toItems(reqs []PurchaseItemRequest) []PurchaseItem {
	items := make([]PurchaseItem, len(reqs))
	for i, r := range reqs {
		items[i] = PurchaseItem{ProductID: r.ProductID, Quantity: r.Quantity, Price: r.Price}
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
		Entity:   "purchase",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}
