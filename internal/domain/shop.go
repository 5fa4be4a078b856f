package domain

import "time"

// Shop is an authorized TikTok Shop storefront.
type Shop struct {
	ID     string `json:"shop_id"`
	Name   string `json:"shop_name"`
	Cipher string `json:"cipher"`
	Region string `json:"region"`
}

// PaymentInfo carries the monetary fields of an order. TikTok reports amounts
// as decimal strings.
type PaymentInfo struct {
	TotalAmount string `json:"total_amount"`
	Currency    string `json:"currency"`
}

// OrderLineItem is a purchased product line within an order.
type OrderLineItem struct {
	ProductName string `json:"product_name"`
	SKUName     string `json:"sku_name,omitempty"`
	Quantity    int    `json:"quantity"`
}

// Order is a TikTok Shop order as returned by the orders search endpoint.
type Order struct {
	ID           string          `json:"order_id"`
	Status       string          `json:"order_status"`
	PaymentInfo  PaymentInfo     `json:"payment_info"`
	CreateTime   int64           `json:"create_time"`
	BuyerMessage string          `json:"buyer_message,omitempty"`
	LineItems    []OrderLineItem `json:"line_items,omitempty"`
}

// ProductPrice holds the sale price of a SKU as a decimal string.
type ProductPrice struct {
	SalePrice string `json:"sale_price"`
}

// ProductSKU is a sellable variant of a product.
type ProductSKU struct {
	Price ProductPrice `json:"price"`
}

// Product is a TikTok Shop product listing.
type Product struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Status string       `json:"status"`
	Sales  int          `json:"sales,omitempty"`
	SKUs   []ProductSKU `json:"skus,omitempty"`
}

// ShopMetrics are the dashboard aggregates derived from a shop sync.
type ShopMetrics struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalOrders       int     `json:"total_orders"`
	TotalProducts     int     `json:"total_products"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// ShopSnapshot is the combined result of a shop sync: raw rows plus derived
// metrics. FromCache marks snapshots served from the local cache because the
// platform was unreachable.
type ShopSnapshot struct {
	Shops     []Shop      `json:"shops"`
	Orders    []Order     `json:"orders"`
	Products  []Product   `json:"products"`
	Metrics   ShopMetrics `json:"metrics"`
	SyncedAt  time.Time   `json:"synced_at"`
	FromCache bool        `json:"from_cache,omitempty"`
}
