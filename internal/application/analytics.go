// Package application holds the service layer: orchestration of the platform
// clients, the token store, and the local cache behind the HTTP surface.
package application

import (
	"encoding/json"
	"strconv"
	"time"

	"tiktok-analytics-layer/internal/domain"
)

// ShopMetricsFrom derives the dashboard aggregates from raw shop rows. Pure
// and idempotent: the same rows always produce the same metrics.
func ShopMetricsFrom(orders []domain.Order, products []domain.Product) domain.ShopMetrics {
	m := domain.ShopMetrics{
		TotalOrders:   len(orders),
		TotalProducts: len(products),
	}
	for _, o := range orders {
		m.TotalRevenue += parseAmount(o.PaymentInfo.TotalAmount)
	}
	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue / float64(m.TotalOrders)
	}
	return m
}

// AdsMetricsFrom derives the dashboard aggregates from raw report rows.
// Ratios guard against zero denominators: CTR and CPC are zero when there are
// no impressions or clicks, ROAS is zero when nothing was spent.
func AdsMetricsFrom(reports []domain.AdReport) domain.AdsMetrics {
	var m domain.AdsMetrics
	for _, r := range reports {
		m.TotalSpend += numberFloat(r.Spend)
		m.TotalImpressions += numberInt(r.Impressions)
		m.TotalClicks += numberInt(r.Clicks)
		m.TotalConversions += numberInt(r.Conversion)
	}
	if m.TotalImpressions > 0 {
		m.CTR = float64(m.TotalClicks) / float64(m.TotalImpressions) * 100
	}
	if m.TotalClicks > 0 {
		m.CPC = m.TotalSpend / float64(m.TotalClicks)
	}
	if m.TotalSpend > 0 {
		m.ROAS = float64(m.TotalConversions) / m.TotalSpend
	}
	return m
}

// CachedOrdersFrom denormalizes raw orders into cache rows.
func CachedOrdersFrom(orders []domain.Order) []domain.CachedOrder {
	out := make([]domain.CachedOrder, 0, len(orders))
	for _, o := range orders {
		row := domain.CachedOrder{
			OrderID: o.ID,
			Date:    time.Unix(o.CreateTime, 0).UTC().Format("2006-01-02"),
			Total:   parseAmount(o.PaymentInfo.TotalAmount),
			Status:  o.Status,
		}
		for _, li := range o.LineItems {
			row.Items = append(row.Items, domain.CachedOrderItem{
				ProductName: li.ProductName,
				Quantity:    li.Quantity,
			})
		}
		out = append(out, row)
	}
	return out
}

// CachedProductsFrom denormalizes raw products into cache rows. The price is
// taken from the first SKU.
func CachedProductsFrom(products []domain.Product) []domain.CachedProduct {
	out := make([]domain.CachedProduct, 0, len(products))
	for _, p := range products {
		row := domain.CachedProduct{
			ID:     p.ID,
			Title:  p.Title,
			Status: p.Status,
			Sales:  p.Sales,
		}
		if len(p.SKUs) > 0 {
			row.Price = parseAmount(p.SKUs[0].Price.SalePrice)
		}
		out = append(out, row)
	}
	return out
}

// CachedAdRowsFrom denormalizes raw report rows into cache rows, computing
// per-row ROAS with the same zero-spend guard as the aggregates.
func CachedAdRowsFrom(reports []domain.AdReport) []domain.CachedAdRow {
	out := make([]domain.CachedAdRow, 0, len(reports))
	for _, r := range reports {
		row := domain.CachedAdRow{
			Date:        r.Date,
			Campaign:    r.CampaignID,
			Spend:       numberFloat(r.Spend),
			Clicks:      numberInt(r.Clicks),
			Conversions: numberInt(r.Conversion),
		}
		if r.CampaignName != "" {
			row.Campaign = r.CampaignName
		}
		if row.Spend > 0 {
			row.ROAS = float64(row.Conversions) / row.Spend
		}
		out = append(out, row)
	}
	return out
}

// shopMetricsFromCache rebuilds the aggregates from cached rows so the
// offline snapshot shows consistent numbers.
func shopMetricsFromCache(orders []domain.CachedOrder, products []domain.CachedProduct) domain.ShopMetrics {
	m := domain.ShopMetrics{
		TotalOrders:   len(orders),
		TotalProducts: len(products),
	}
	for _, o := range orders {
		m.TotalRevenue += o.Total
	}
	if m.TotalOrders > 0 {
		m.AverageOrderValue = m.TotalRevenue / float64(m.TotalOrders)
	}
	return m
}

func adsMetricsFromCache(rows []domain.CachedAdRow) domain.AdsMetrics {
	var m domain.AdsMetrics
	for _, r := range rows {
		m.TotalSpend += r.Spend
		m.TotalClicks += r.Clicks
		m.TotalConversions += r.Conversions
	}
	if m.TotalClicks > 0 {
		m.CPC = m.TotalSpend / float64(m.TotalClicks)
	}
	if m.TotalSpend > 0 {
		m.ROAS = float64(m.TotalConversions) / m.TotalSpend
	}
	return m
}

// parseAmount reads a decimal-string money amount; malformed values count as
// zero rather than poisoning the whole aggregate.
func parseAmount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// numberFloat reads a json.Number metric; empty or malformed values count as
// zero.
func numberFloat(n json.Number) float64 {
	v, err := n.Float64()
	if err != nil {
		return 0
	}
	return v
}

func numberInt(n json.Number) int64 {
	return int64(numberFloat(n))
}
