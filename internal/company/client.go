package company

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bct-dk/siteanalyzer/internal/analyzer"
)

// ClientConfig holds the business-registry API settings.
type ClientConfig struct {
	Endpoint  string
	Country   string
	UserAgent string
	Timeout   time.Duration
}

// Client looks up companies in the Danish business registry through the
// public cvrapi.dk endpoint.
type Client struct {
	cfg    ClientConfig
	client *http.Client
	clock  analyzer.Clock
	logger *zap.Logger
}

// NewClient builds a registry client.
func NewClient(cfg ClientConfig, clock analyzer.Clock, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://cvrapi.dk/api"
	}
	if cfg.Country == "" {
		cfg.Country = "dk"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		clock:  clock,
		logger: logger,
	}
}

// Lookup resolves a CVR number to a normalized company record. Registry
// errors and transport failures yield failed outcomes; the caller leaves the
// website without company data in that case.
func (c *Client) Lookup(ctx context.Context, cvr string) analyzer.Outcome[analyzer.Company] {
	q := url.Values{}
	q.Set("search", cvr)
	q.Set("country", c.cfg.Country)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return analyzer.Failed[analyzer.Company](err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return analyzer.Failed[analyzer.Company](fmt.Errorf("registry request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return analyzer.Failed[analyzer.Company](fmt.Errorf("registry status %d", resp.StatusCode))
	}

	var payload registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return analyzer.Failed[analyzer.Company](fmt.Errorf("registry decode: %w", err))
	}
	if payload.Error != "" {
		return analyzer.Failed[analyzer.Company](fmt.Errorf("registry error: %s", payload.Error))
	}

	company := payload.toCompany(cvr, c.clock.Now())
	c.logger.Debug("registry lookup complete",
		zap.String("cvr", company.CVR),
		zap.String("name", company.Name))
	return analyzer.Ok(company)
}

// registryResponse mirrors the cvrapi.dk payload. Numeric fields arrive as
// numbers or strings depending on the record, so the flexible types below
// absorb both.
type registryResponse struct {
	Error        string   `json:"error"`
	VAT          flexText `json:"vat"`
	Name         string   `json:"name"`
	IndustryDesc string   `json:"industrydesc"`
	IndustryCode flexText `json:"industrycode"`
	Status       string   `json:"status"`
	Employees    flexInt  `json:"employees"`
	Address      string   `json:"address"`
	Zipcode      flexText `json:"zipcode"`
	City         string   `json:"city"`
	StartDate    string   `json:"startdate"`
	Phone        flexText `json:"phone"`
	Email        string   `json:"email"`
	Homepage     string   `json:"homepage"`
}

func (r registryResponse) toCompany(fallbackCVR string, now time.Time) analyzer.Company {
	cvr := string(r.VAT)
	if cvr == "" {
		cvr = fallbackCVR
	}
	return analyzer.Company{
		CVR:           cvr,
		Name:          r.Name,
		Industry:      r.IndustryDesc,
		IndustryCode:  string(r.IndustryCode),
		Status:        r.Status,
		EmployeeCount: int(r.Employees),
		Size:          SizeBucket(int(r.Employees)),
		Location:      r.formatAddress(),
		FoundedYear:   foundedYear(r.StartDate),
		Phone:         string(r.Phone),
		Email:         r.Email,
		Website:       r.Homepage,
		LookupDate:    now,
	}
}

func (r registryResponse) formatAddress() string {
	var parts []string
	if r.Address != "" {
		parts = append(parts, r.Address)
	}
	if cityPart := strings.TrimSpace(string(r.Zipcode) + " " + r.City); cityPart != "" {
		parts = append(parts, cityPart)
	}
	if len(parts) == 0 {
		return "Ikke angivet"
	}
	return strings.Join(parts, ", ")
}

// SizeBucket maps an employee count to a coarse size class.
func SizeBucket(employees int) string {
	switch {
	case employees == 0:
		return "unknown"
	case employees <= 10:
		return "micro"
	case employees <= 50:
		return "small"
	case employees <= 250:
		return "medium"
	default:
		return "large"
	}
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// foundedYear pulls the year out of the registry start date, which shows up
// both as "02/01 - 1995" and ISO-style dates.
func foundedYear(startDate string) string {
	if startDate == "" {
		return ""
	}
	if t, err := time.Parse("2006-01-02", startDate); err == nil {
		return strconv.Itoa(t.Year())
	}
	if m := yearRe.FindStringSubmatch(startDate); m != nil {
		return m[1]
	}
	return ""
}

// flexInt decodes a JSON number, numeric string, or null into an int. Ranged
// strings like "10-19" resolve to their lower bound.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	digits := leadingDigits(s)
	if digits == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexText decodes a JSON string, number, or null into a string.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexText(s)
	return nil
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
