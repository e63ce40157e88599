package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"trwlexporter/internal/models"
	"trwlexporter/internal/providers"
	"trwlexporter/internal/structures"
)

const maxErrorBodySize = 4 << 10

// Page is one fetched slice of an account's check-in history, newest first.
// NextCursor is empty when the upstream reports no further pages.
type Page struct {
	CheckIns   []models.CheckIn
	NextCursor string
}

// ClientInterface is the exporter's sole network dependency.
type ClientInterface interface {
	FetchPage(ctx context.Context, account *structures.Account, cursor string) (*Page, error)
}

type Client struct {
	conf    *structures.Config
	client  *http.Client
	metrics providers.MetricsProviderInterface
}

func NewClient(conf *structures.Config, metrics providers.MetricsProviderInterface) ClientInterface {
	return &Client{
		conf: conf,
		client: &http.Client{
			Timeout: conf.Upstream.FetchTimeout,
		},
		metrics: metrics,
	}
}

// Wire shapes of GET /user/{id}/statuses.
type statusesResponse struct {
	Data  []statusDTO `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

type statusDTO struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Train     trainDTO  `json:"train"`
}

type trainDTO struct {
	Trip        int64       `json:"trip"`
	Category    string      `json:"category"`
	Number      string      `json:"number"`
	LineName    string      `json:"lineName"`
	Distance    int64       `json:"distance"`
	Points      int64       `json:"points"`
	Duration    int64       `json:"duration"`
	Speed       float64     `json:"speed"`
	Origin      stopoverDTO `json:"origin"`
	Destination stopoverDTO `json:"destination"`
}

type stopoverDTO struct {
	Name               string `json:"name"`
	IsArrivalDelayed   bool   `json:"isArrivalDelayed"`
	IsDepartureDelayed bool   `json:"isDepartureDelayed"`
	Cancelled          bool   `json:"cancelled"`
}

// FetchPage fetches one page of the account's check-in history. The cursor
// is the upstream page token; empty means the newest page.
func (c *Client) FetchPage(ctx context.Context, account *structures.Account, cursor string) (*Page, error) {
	reqURL := fmt.Sprintf("%s/user/%s/statuses", c.conf.Upstream.BaseURL, url.PathEscape(account.ID))
	if cursor != "" {
		reqURL += "?page=" + url.QueryEscape(cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindPermanent, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.conf.Upstream.UserAgent != "" {
		req.Header.Set("User-Agent", c.conf.Upstream.UserAgent)
	}
	if token := c.conf.TokenFor(account); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.IncUpstreamRequests(0)
		return nil, &Error{Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.IncUpstreamRequests(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp)
	}

	var parsed statusesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode statuses: %w", err)}
	}

	page := &Page{CheckIns: make([]models.CheckIn, 0, len(parsed.Data))}
	for _, dto := range parsed.Data {
		page.CheckIns = append(page.CheckIns, toCheckIn(dto))
	}
	if parsed.Links.Next != nil && *parsed.Links.Next != "" {
		page.NextCursor = cursorFromLink(*parsed.Links.Next)
	}
	return page, nil
}

func toCheckIn(dto statusDTO) models.CheckIn {
	return models.CheckIn{
		ID:          dto.ID,
		CreatedAt:   dto.CreatedAt,
		TripID:      dto.Train.Trip,
		Category:    dto.Train.Category,
		LineName:    dto.Train.LineName,
		Number:      dto.Train.Number,
		Origin:      dto.Train.Origin.Name,
		Destination: dto.Train.Destination.Name,
		Distance:    dto.Train.Distance,
		Duration:    dto.Train.Duration,
		Points:      dto.Train.Points,
		Speed:       dto.Train.Speed,
		WasLate:     dto.Train.Destination.IsArrivalDelayed || dto.Train.Origin.IsDepartureDelayed,
		Cancelled:   dto.Train.Destination.Cancelled,
	}
}

// cursorFromLink extracts the page token from the upstream's next-page URL.
func cursorFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("page")
}

func classifyStatus(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	base := fmt.Errorf("unexpected response: %s", string(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := time.Duration(cast.ToInt(resp.Header.Get("Retry-After"))) * time.Second
		return &Error{Kind: KindRateLimited, StatusCode: resp.StatusCode, RetryAfter: retryAfter, Err: base}
	case resp.StatusCode >= 500:
		return &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Err: base}
	default:
		return &Error{Kind: KindPermanent, StatusCode: resp.StatusCode, Err: base}
	}
}
