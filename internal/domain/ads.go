package domain

import (
	"encoding/json"
	"time"
)

// Advertiser is a TikTok Ads account.
type Advertiser struct {
	ID     string `json:"advertiser_id"`
	Name   string `json:"advertiser_name"`
	Status string `json:"status"`
}

// Campaign is an ad campaign under an advertiser account.
type Campaign struct {
	ID            string  `json:"campaign_id"`
	Name          string  `json:"campaign_name"`
	Budget        float64 `json:"budget"`
	Status        string  `json:"status"`
	ObjectiveType string  `json:"objective_type"`
}

// AdGroup is an ad group under a campaign.
type AdGroup struct {
	ID     string `json:"adgroup_id"`
	Name   string `json:"adgroup_name"`
	Status string `json:"status"`
}

// Ad is a single ad creative.
type Ad struct {
	ID     string `json:"ad_id"`
	Name   string `json:"ad_name"`
	Status string `json:"status"`
}

// AdReport is one row of the integrated performance report. TikTok returns
// metric values as strings or numbers depending on endpoint version, so
// numeric fields use json.Number and are parsed during aggregation.
type AdReport struct {
	Date              string      `json:"date,omitempty"`
	CampaignID        string      `json:"campaign_id,omitempty"`
	CampaignName      string      `json:"campaign_name,omitempty"`
	Spend             json.Number `json:"spend"`
	Impressions       json.Number `json:"impressions"`
	Clicks            json.Number `json:"clicks"`
	CTR               json.Number `json:"ctr"`
	CPC               json.Number `json:"cpc"`
	CPM               json.Number `json:"cpm"`
	Conversion        json.Number `json:"conversion"`
	CostPerConversion json.Number `json:"cost_per_conversion"`
}

// AudienceReport is one row of the audience insights report, dimensioned by
// age bracket and gender.
type AudienceReport struct {
	Age         string      `json:"age,omitempty"`
	Gender      string      `json:"gender,omitempty"`
	Impressions json.Number `json:"impressions"`
	Clicks      json.Number `json:"clicks"`
	Conversion  json.Number `json:"conversion"`
}

// AdsMetrics are the dashboard aggregates derived from an ads sync.
type AdsMetrics struct {
	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions int64   `json:"total_conversions"`
	CTR              float64 `json:"ctr"`
	CPC              float64 `json:"cpc"`
	ROAS             float64 `json:"roas"`
}

// AdsSnapshot is the combined result of an ads sync.
type AdsSnapshot struct {
	Advertisers []Advertiser `json:"advertisers"`
	Campaigns   []Campaign   `json:"campaigns"`
	Reports     []AdReport   `json:"reports"`
	Metrics     AdsMetrics   `json:"metrics"`
	SyncedAt    time.Time    `json:"synced_at"`
	FromCache   bool         `json:"from_cache,omitempty"`
}

// DateRange is a closed reporting window of UTC calendar dates (YYYY-MM-DD).
type DateRange struct {
	Start string `json:"start_date"`
	End   string `json:"end_date"`
}

const dateLayout = "2006-01-02"

// OrDefault fills missing bounds with the trailing 7-day window ending now,
// inclusive, using UTC calendar dates.
func (r DateRange) OrDefault(now time.Time) DateRange {
	out := r
	if out.End == "" {
		out.End = now.UTC().Format(dateLayout)
	}
	if out.Start == "" {
		out.Start = now.UTC().AddDate(0, 0, -7).Format(dateLayout)
	}
	return out
}
