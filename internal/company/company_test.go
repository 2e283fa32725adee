package company

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestDetectCVR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"colon", "<footer>CVR: 12345678</footer>", "12345678"},
		{"dash", "CVR-12345678", "12345678"},
		{"nr suffix", "CVR-nr. betyder intet, men CVR nr: 87654321 g&aelig;lder", "87654321"},
		{"nummer", "cvr-nummer 11223344", "11223344"},
		{"lowercase", "cvr: 55667788", "55667788"},
		{"too short", "CVR: 1234567", ""},
		{"absent", "<p>Kontakt os</p>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, DetectCVR(tt.html))
		})
	}
}

func TestSizeBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		employees int
		want      string
	}{
		{0, "unknown"},
		{5, "micro"},
		{10, "micro"},
		{30, "small"},
		{50, "small"},
		{150, "medium"},
		{250, "medium"},
		{500, "large"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, SizeBucket(tt.employees), "employees=%d", tt.employees)
	}
}

const registryPayload = `{
  "vat": 12345678,
  "name": "Eksempel ApS",
  "industrydesc": "Computerprogrammering",
  "industrycode": 620100,
  "status": "NORMAL",
  "employees": "10-19",
  "address": "Hovedgaden 1",
  "zipcode": 8000,
  "city": "Aarhus C",
  "startdate": "02/01 - 1995",
  "phone": 12131415,
  "email": "info@eksempel.dk",
  "homepage": "eksempel.dk"
}`

func TestLookup(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(registryPayload))
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := NewClient(ClientConfig{Endpoint: srv.URL, UserAgent: "test-agent"}, fixedClock{t: now}, zap.NewNop())

	outcome := client.Lookup(context.Background(), "12345678")
	require.True(t, outcome.IsOk())

	company := outcome.Value()
	require.Equal(t, "12345678", company.CVR)
	require.Equal(t, "Eksempel ApS", company.Name)
	require.Equal(t, "Computerprogrammering", company.Industry)
	require.Equal(t, "620100", company.IndustryCode)
	require.Equal(t, "NORMAL", company.Status)
	require.Equal(t, 10, company.EmployeeCount)
	require.Equal(t, "micro", company.Size)
	require.Equal(t, "Hovedgaden 1, 8000 Aarhus C", company.Location)
	require.Equal(t, "1995", company.FoundedYear)
	require.Equal(t, "12131415", company.Phone)
	require.Equal(t, "info@eksempel.dk", company.Email)
	require.Equal(t, "eksempel.dk", company.Website)
	require.Equal(t, now, company.LookupDate)

	require.Equal(t, []string{"12345678"}, gotQuery["search"])
	require.Equal(t, []string{"dk"}, gotQuery["country"])
	require.Equal(t, []string{"json"}, gotQuery["format"])
}

func TestLookupRegistryError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "NOT_FOUND"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{Endpoint: srv.URL}, fixedClock{t: time.Now()}, zap.NewNop())
	outcome := client.Lookup(context.Background(), "99999999")
	require.True(t, outcome.IsFailed())
	require.ErrorContains(t, outcome.Err(), "NOT_FOUND")
}

func TestLookupServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{Endpoint: srv.URL}, fixedClock{t: time.Now()}, zap.NewNop())
	outcome := client.Lookup(context.Background(), "12345678")
	require.True(t, outcome.IsFailed())
	require.ErrorContains(t, outcome.Err(), "502")
}

func TestFormatAddressFallback(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Ikke angivet", registryResponse{}.formatAddress())
	require.Equal(t, "8000 Aarhus C", registryResponse{Zipcode: "8000", City: "Aarhus C"}.formatAddress())
	require.Equal(t, "Hovedgaden 1", registryResponse{Address: "Hovedgaden 1"}.formatAddress())
}

func TestFoundedYear(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1995", foundedYear("02/01 - 1995"))
	require.Equal(t, "2010", foundedYear("2010-06-15"))
	require.Equal(t, "", foundedYear(""))
	require.Equal(t, "", foundedYear("not a date"))
}
