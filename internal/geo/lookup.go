package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"endlesshmon/internal/models"
)

// Lookup resolves one origin address to a location. Implementations may
// fail transiently; callers must treat failure as "unresolved for now".
type Lookup interface {
	Lookup(ctx context.Context, ip string) (models.Location, error)
}

// DefaultBaseURL is the free ip-api.com endpoint. The free tier enforces
// 45 requests per minute; the Resolver keeps each pass under its own
// budget to stay below that ceiling.
const DefaultBaseURL = "http://ip-api.com"

type apiResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// APILookup queries ip-api.com over HTTP.
type APILookup struct {
	BaseURL string
	Client  *http.Client
}

func NewAPILookup() *APILookup {
	return &APILookup{
		BaseURL: DefaultBaseURL,
		Client:  &http.Client{Timeout: 2 * time.Second},
	}
}

func (l *APILookup) Lookup(ctx context.Context, ip string) (models.Location, error) {
	u := fmt.Sprintf("%s/json/%s?fields=status,message,country,countryCode,city,lat,lon",
		l.BaseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Location{}, err
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("lookup %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("lookup %s: unexpected status %s", ip, resp.Status)
	}

	var r apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.Location{}, fmt.Errorf("lookup %s: decode response: %w", ip, err)
	}
	if r.Status != "success" {
		return models.Location{}, fmt.Errorf("lookup %s: %s", ip, r.Message)
	}

	return models.Location{
		Country:     r.Country,
		CountryCode: r.CountryCode,
		City:        r.City,
		Lat:         r.Lat,
		Lon:         r.Lon,
	}, nil
}
