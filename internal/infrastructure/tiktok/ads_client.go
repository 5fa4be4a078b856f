package tiktok

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"tiktok-analytics-layer/internal/domain"
	"tiktok-analytics-layer/internal/infrastructure/metrics"
	"tiktok-analytics-layer/internal/ports"
)

const (
	defaultAdsBaseURL = "https://business-api.tiktok.com/open_api/v1.3"

	adsPlatformLabel = "tiktok_ads"
)

// Integrated report defaults used when the caller does not specify them.
var (
	defaultReportDimensions = []string{"campaign_id", "stat_time_day"}
	defaultReportMetrics    = []string{
		"spend", "impressions", "clicks", "ctr", "cpc", "cpm",
		"conversion", "cost_per_conversion",
	}
	audienceDimensions = []string{"age", "gender"}
)

// AdsClient calls the TikTok Ads business API. Data requests authenticate
// with an Access-Token header; nothing is signed.
type AdsClient struct {
	base   string
	http   *Client
	now    func() time.Time
	logger zerolog.Logger
}

// NewAdsClient builds an Ads API client over the shared retry client. An
// empty base URL takes the production endpoint.
func NewAdsClient(http *Client, logger zerolog.Logger, base string) *AdsClient {
	if base == "" {
		base = defaultAdsBaseURL
	}
	return &AdsClient{
		base:   base,
		http:   http,
		now:    time.Now,
		logger: logger.With().Str("component", "ads_client").Logger(),
	}
}

func (c *AdsClient) get(ctx context.Context, cred *domain.Credential, operation, path string, q url.Values, out any) error {
	if cred == nil || cred.AccessToken == "" {
		return domain.ErrUnauthenticated
	}

	rawURL := c.base + path
	if len(q) > 0 {
		rawURL += "?" + q.Encode()
	}
	header := http.Header{}
	header.Set("Access-Token", cred.AccessToken)

	var env Envelope
	if err := c.http.DoJSON(ctx, http.MethodGet, rawURL, header, nil, &env); err != nil {
		metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, operation, metrics.OutcomeTransportError).Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}
	if err := env.Decode(out); err != nil {
		metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, operation, metrics.OutcomePlatformError).Inc()
		return fmt.Errorf("%s: %w", operation, err)
	}
	metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, operation, metrics.OutcomeSuccess).Inc()
	return nil
}

func requireAdvertiserID(advertiserID string) error {
	if advertiserID == "" {
		return &domain.ValidationError{Field: "advertiser_id", Reason: "required"}
	}
	return nil
}

// GetAdvertisers lists the advertiser accounts visible to the token.
func (c *AdsClient) GetAdvertisers(ctx context.Context, cred *domain.Credential, page, pageSize int) ([]domain.Advertiser, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	var data struct {
		List []domain.Advertiser `json:"list"`
	}
	if err := c.get(ctx, cred, "get_advertisers", "/oauth2/advertiser/get/", q, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// GetCampaigns lists campaigns under an advertiser. A non-empty filtering map
// is JSON-encoded into the filtering parameter.
func (c *AdsClient) GetCampaigns(ctx context.Context, cred *domain.Credential, advertiserID string, filtering map[string]string) ([]domain.Campaign, error) {
	if err := requireAdvertiserID(advertiserID); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("advertiser_id", advertiserID)
	if len(filtering) > 0 {
		enc, err := json.Marshal(filtering)
		if err != nil {
			return nil, fmt.Errorf("failed to encode filtering: %w", err)
		}
		q.Set("filtering", string(enc))
	}

	var data struct {
		List []domain.Campaign `json:"list"`
	}
	if err := c.get(ctx, cred, "get_campaigns", "/campaign/get/", q, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// GetAdGroups lists ad groups under an advertiser.
func (c *AdsClient) GetAdGroups(ctx context.Context, cred *domain.Credential, advertiserID string) ([]domain.AdGroup, error) {
	if err := requireAdvertiserID(advertiserID); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("advertiser_id", advertiserID)

	var data struct {
		List []domain.AdGroup `json:"list"`
	}
	if err := c.get(ctx, cred, "get_adgroups", "/adgroup/get/", q, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// GetAds lists ads under an advertiser.
func (c *AdsClient) GetAds(ctx context.Context, cred *domain.Credential, advertiserID string) ([]domain.Ad, error) {
	if err := requireAdvertiserID(advertiserID); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("advertiser_id", advertiserID)

	var data struct {
		List []domain.Ad `json:"list"`
	}
	if err := c.get(ctx, cred, "get_ads", "/ad/get/", q, &data); err != nil {
		return nil, err
	}
	return data.List, nil
}

// reportRow is the wire shape of an integrated report row: identifiers under
// dimensions, metric values under metrics.
type reportRow struct {
	Dimensions struct {
		CampaignID  string `json:"campaign_id"`
		StatTimeDay string `json:"stat_time_day"`
	} `json:"dimensions"`
	Metrics domain.AdReport `json:"metrics"`
}

// GetReports fetches the integrated performance report. Missing query fields
// take the defaults: AUCTION/BASIC at campaign level, the standard metric
// set, and the trailing 7-day window.
func (c *AdsClient) GetReports(ctx context.Context, cred *domain.Credential, advertiserID string, query ports.ReportQuery) ([]domain.AdReport, error) {
	if err := requireAdvertiserID(advertiserID); err != nil {
		return nil, err
	}

	r := query.Range.OrDefault(c.now())
	dims := query.Dimensions
	if len(dims) == 0 {
		dims = defaultReportDimensions
	}
	mets := query.Metrics
	if len(mets) == 0 {
		mets = defaultReportMetrics
	}

	q := url.Values{}
	q.Set("advertiser_id", advertiserID)
	q.Set("report_type", "BASIC")
	q.Set("service_type", "AUCTION")
	q.Set("data_level", "AUCTION_CAMPAIGN")
	q.Set("start_date", r.Start)
	q.Set("end_date", r.End)
	setJSONList(q, "dimensions", dims)
	setJSONList(q, "metrics", mets)
	if query.Page > 0 {
		q.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(query.PageSize))
	}

	var data struct {
		List []reportRow `json:"list"`
	}
	if err := c.get(ctx, cred, "get_reports", "/report/integrated/get/", q, &data); err != nil {
		return nil, err
	}

	out := make([]domain.AdReport, 0, len(data.List))
	for _, row := range data.List {
		rep := row.Metrics
		rep.CampaignID = row.Dimensions.CampaignID
		rep.Date = row.Dimensions.StatTimeDay
		out = append(out, rep)
	}
	return out, nil
}

// audienceRow mirrors reportRow for the audience insights report.
type audienceRow struct {
	Dimensions struct {
		Age    string `json:"age"`
		Gender string `json:"gender"`
	} `json:"dimensions"`
	Metrics domain.AudienceReport `json:"metrics"`
}

// GetAudienceReports fetches the audience insights report dimensioned by age
// bracket and gender.
func (c *AdsClient) GetAudienceReports(ctx context.Context, cred *domain.Credential, advertiserID string, r domain.DateRange) ([]domain.AudienceReport, error) {
	if err := requireAdvertiserID(advertiserID); err != nil {
		return nil, err
	}

	window := r.OrDefault(c.now())
	q := url.Values{}
	q.Set("advertiser_id", advertiserID)
	q.Set("report_type", "AUDIENCE")
	q.Set("service_type", "AUCTION")
	q.Set("data_level", "AUCTION_CAMPAIGN")
	q.Set("start_date", window.Start)
	q.Set("end_date", window.End)
	setJSONList(q, "dimensions", audienceDimensions)

	var data struct {
		List []audienceRow `json:"list"`
	}
	if err := c.get(ctx, cred, "get_audience_reports", "/report/audience/get/", q, &data); err != nil {
		return nil, err
	}

	out := make([]domain.AudienceReport, 0, len(data.List))
	for _, row := range data.List {
		rep := row.Metrics
		rep.Age = row.Dimensions.Age
		rep.Gender = row.Dimensions.Gender
		out = append(out, rep)
	}
	return out, nil
}

// ExchangeToken swaps an authorization code for an access token. Unlike the
// Shop exchange this call is not signed; the app secret authenticates it.
func (c *AdsClient) ExchangeToken(ctx context.Context, appID, secret, authCode string) (*domain.TokenGrant, error) {
	if authCode == "" {
		return nil, domain.ErrMissingCode
	}

	body := map[string]string{
		"app_id":    appID,
		"secret":    secret,
		"auth_code": authCode,
	}

	var env Envelope
	if err := c.http.DoJSON(ctx, http.MethodPost, c.base+"/oauth2/access_token/", nil, body, &env); err != nil {
		metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, "exchange_token", metrics.OutcomeTransportError).Inc()
		return nil, fmt.Errorf("exchange_token: %w", err)
	}

	var data struct {
		AccessToken   string   `json:"access_token"`
		AdvertiserIDs []string `json:"advertiser_ids"`
	}
	if err := env.Decode(&data); err != nil {
		metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, "exchange_token", metrics.OutcomePlatformError).Inc()
		return nil, fmt.Errorf("exchange_token: %w", err)
	}
	metrics.PlatformRequests.WithLabelValues(adsPlatformLabel, "exchange_token", metrics.OutcomeSuccess).Inc()

	c.logger.Info().Int("advertisers", len(data.AdvertiserIDs)).Msg("exchanged ads authorization code")
	return &domain.TokenGrant{
		AccessToken:   data.AccessToken,
		AdvertiserIDs: data.AdvertiserIDs,
	}, nil
}

func setJSONList(q url.Values, key string, vals []string) {
	enc, _ := json.Marshal(vals)
	q.Set(key, string(enc))
}
