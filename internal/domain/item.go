package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Price        decimal.Decimal     `json:"price"`
	OfferPrice   decimal.NullDecimal `json:"offer_price"`
	Quantity     int                 `json:"quantity"`
	QuantityUnit string              `json:"quantity_unit"`
}

// ItemSnapshot is the item view joined onto line items. It carries no
// stock level.
type ItemSnapshot struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Price        decimal.Decimal     `json:"price"`
	OfferPrice   decimal.NullDecimal `json:"offer_price"`
	QuantityUnit string              `json:"quantity_unit"`
}

func (i Item) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		ID:           i.ID,
		Name:         i.Name,
		Price:        i.Price,
		OfferPrice:   i.OfferPrice,
		QuantityUnit: i.QuantityUnit,
	}
}
