package core

import (
	"context"
	"sort"
	"time"

	"neocertify/pkg/domain"
)

// LotStock is the in-stock count of one lot held by an organization.
type LotStock struct {
	LotID      string    `json:"lot_id"`
	LotNumber  string    `json:"lot_number"`
	ProducedOn time.Time `json:"produced_on"`
	ExpiresOn  time.Time `json:"expires_on"`
	Quantity   int       `json:"quantity"`
}

// ProductStock aggregates an organization's in-stock units of one product.
type ProductStock struct {
	ProductID string     `json:"product_id"`
	ModelName string     `json:"model_name"`
	Quantity  int        `json:"quantity"`
	Lots      []LotStock `json:"lots"`
}

// InventorySummary is an organization's current stock by product and lot.
type InventorySummary struct {
	OrganizationID string         `json:"organization_id"`
	Products       []ProductStock `json:"products"`
	Total          int            `json:"total"`
}

// Inventory summarizes the in-stock units currently owned by an organization,
// grouped by product and lot. Lots are listed oldest first, matching the
// order transfers and consumptions will drain them.
func (s *Service) Inventory(ctx context.Context, orgID string) (InventorySummary, error) {
	summary := InventorySummary{OrganizationID: orgID}
	exists := false
	err := s.view(ctx, "inventory", func(view domain.TransactionView) error {
		if _, ok := view.FindOrganization(orgID); !ok {
			return nil
		}
		exists = true

		perLot := make(map[string]int)
		for _, unit := range view.ListUnits() {
			if unit.OwnerID == orgID && unit.State == UnitInStock {
				perLot[unit.LotID]++
			}
		}

		perProduct := make(map[string][]LotStock)
		for lotID, count := range perLot {
			lot, ok := view.FindLot(lotID)
			if !ok {
				continue
			}
			perProduct[lot.ProductID] = append(perProduct[lot.ProductID], LotStock{
				LotID:      lotID,
				LotNumber:  lot.LotNumber,
				ProducedOn: lot.ProducedOn,
				ExpiresOn:  lot.ExpiresOn,
				Quantity:   count,
			})
		}

		for productID, lots := range perProduct {
			sort.Slice(lots, func(i, j int) bool {
				if !lots[i].ProducedOn.Equal(lots[j].ProducedOn) {
					return lots[i].ProducedOn.Before(lots[j].ProducedOn)
				}
				return lots[i].LotNumber < lots[j].LotNumber
			})
			stock := ProductStock{ProductID: productID, Lots: lots}
			if product, ok := view.FindProduct(productID); ok {
				stock.ModelName = product.ModelName
			}
			for _, l := range lots {
				stock.Quantity += l.Quantity
			}
			summary.Products = append(summary.Products, stock)
			summary.Total += stock.Quantity
		}
		sort.Slice(summary.Products, func(i, j int) bool {
			return summary.Products[i].ProductID < summary.Products[j].ProductID
		})
		return nil
	})
	if err != nil {
		return InventorySummary{}, err
	}
	if !exists {
		return InventorySummary{}, domain.NewNotFound(domain.EntityOrganization, orgID)
	}
	return summary, nil
}
