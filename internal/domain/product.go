package domain

import "github.com/shopspring/decimal"

func init() {
	// prices travel as JSON numbers, not quoted strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry. Field names follow the catalog collection.
type Product struct {
	ID       string          `json:"_id,omitempty"`
	Code     string          `json:"product_code"`
	Name     string          `json:"product_name"`
	Price    decimal.Decimal `json:"product_price"`
	ImageURL string          `json:"product_imageurl"`
}
