package domain

import "time"

// CachedOrder is the denormalized order row held in the local cache for
// offline display. Rows are overwritten wholesale on each successful sync.
type CachedOrder struct {
	OrderID string            `json:"order_id"`
	Date    string            `json:"date"`
	Total   float64           `json:"total"`
	Status  string            `json:"status"`
	Items   []CachedOrderItem `json:"items,omitempty"`
}

// CachedOrderItem is a product line within a cached order.
type CachedOrderItem struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// CachedProduct is the denormalized product row held in the local cache.
type CachedProduct struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Status string  `json:"status"`
	Price  float64 `json:"price"`
	Sales  int     `json:"sales,omitempty"`
}

// CachedAdRow is the denormalized ad-report row held in the local cache,
// keyed by report date plus campaign.
type CachedAdRow struct {
	Date        string  `json:"date"`
	Campaign    string  `json:"campaign"`
	Spend       float64 `json:"spend"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	ROAS        float64 `json:"roas"`
}

// Key returns the natural cache key of the row.
func (r CachedAdRow) Key() string {
	return r.Date + "|" + r.Campaign
}

// ConnectionStatus tracks which platforms are connected and when data was
// last synced.
type ConnectionStatus struct {
	Shop     bool       `json:"shop"`
	Ads      bool       `json:"ads"`
	LastSync *time.Time `json:"last_sync,omitempty"`
}
