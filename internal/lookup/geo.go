package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/oschwald/maxminddb-golang"
	"github.com/rileyhilliard/lookout/internal/errors"
	"golang.org/x/time/rate"
)

// DefaultGeoTimeout bounds one geo lookup, including rate limiter waits.
const DefaultGeoTimeout = 90 * time.Second

// GeoRecord is the location of one address. Private is set for addresses
// in reserved ranges, which have no location.
type GeoRecord struct {
	IP          string  `json:"ip" yaml:"ip"`
	Country     string  `json:"country,omitempty" yaml:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Region      string  `json:"region,omitempty" yaml:"region,omitempty"`
	City        string  `json:"city,omitempty" yaml:"city,omitempty"`
	Lat         float64 `json:"lat" yaml:"lat"`
	Lon         float64 `json:"lon" yaml:"lon"`
	ISP         string  `json:"isp,omitempty" yaml:"isp,omitempty"`
	Org         string  `json:"org,omitempty" yaml:"org,omitempty"`
	AS          string  `json:"as,omitempty" yaml:"as,omitempty"`
	Private     bool    `json:"private,omitempty" yaml:"private,omitempty"`
}

// GeoCache memoizes geo records per IP for the life of the process.
type GeoCache struct {
	locator Locator
	memo    *memo[GeoRecord]
}

// NewGeoCache creates a cache over l.
func NewGeoCache(l Locator) *GeoCache {
	return &GeoCache{
		locator: l,
		memo:    newMemo[GeoRecord](DefaultGeoTimeout),
	}
}

// Resolve returns the geo record for ip.
func (c *GeoCache) Resolve(ctx context.Context, ip netip.Addr) (GeoRecord, error) {
	ip = ip.Unmap()
	return c.memo.resolve(ctx, ip.String(), func(ctx context.Context) (GeoRecord, error) {
		return c.locator.Locate(ctx, ip)
	})
}

// Size returns the number of cached addresses.
func (c *GeoCache) Size() int {
	return c.memo.size()
}

func isReserved(ip netip.Addr) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified() || ip.IsMulticast() ||
		(ip.Is4() && netip.MustParsePrefix("100.64.0.0/10").Contains(ip))
}

// DefaultIPAPIURL is the free ip-api.com JSON endpoint.
const DefaultIPAPIURL = "http://ip-api.com/json/"

// IPAPILocator queries ip-api.com. The free tier allows 45 requests a
// minute, which the limiter enforces.
type IPAPILocator struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewIPAPILocator creates a locator allowing perMinute requests. perMinute
// <= 0 disables throttling.
func NewIPAPILocator(perMinute int) *IPAPILocator {
	limit := rate.Inf
	burst := 1
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &IPAPILocator{
		BaseURL: DefaultIPAPIURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(limit, burst),
	}
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Query       string  `json:"query"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

// Locate implements Locator.
func (l *IPAPILocator) Locate(ctx context.Context, ip netip.Addr) (GeoRecord, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return GeoRecord{}, errors.WrapWithCode(err, errors.ErrGeo, "Geo lookup cancelled", "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+ip.String(), nil)
	if err != nil {
		return GeoRecord{}, errors.WrapWithCode(err, errors.ErrGeo, "Invalid geo endpoint", "Check the ip-api base URL")
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return GeoRecord{}, errors.WrapWithCode(err, errors.ErrGeo,
			fmt.Sprintf("Geo lookup for %s failed", ip),
			"Check network access to ip-api.com")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return GeoRecord{}, errors.New(errors.ErrGeo,
			fmt.Sprintf("Geo lookup for %s returned HTTP %d", ip, resp.StatusCode),
			"ip-api returns 429 when the rate limit is exceeded")
	}

	var body ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return GeoRecord{}, errors.WrapWithCode(err, errors.ErrGeo, "Malformed geo response", "")
	}

	switch {
	case body.Status == "success":
		return GeoRecord{
			IP:          ip.String(),
			Country:     body.Country,
			CountryCode: body.CountryCode,
			Region:      body.RegionName,
			City:        body.City,
			Lat:         body.Lat,
			Lon:         body.Lon,
			ISP:         body.ISP,
			Org:         body.Org,
			AS:          body.AS,
		}, nil
	case strings.Contains(body.Message, "private range"), strings.Contains(body.Message, "reserved range"):
		return GeoRecord{IP: ip.String(), Private: true}, nil
	default:
		return GeoRecord{}, errors.New(errors.ErrGeo,
			fmt.Sprintf("Geo lookup for %s failed: %s", ip, body.Message), "")
	}
}

// MaxMindLocator reads a local GeoLite2/GeoIP2 City database.
type MaxMindLocator struct {
	reader *maxminddb.Reader
}

// OpenMaxMind opens the database at path.
func OpenMaxMind(path string) (*MaxMindLocator, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrGeo,
			"Cannot open MaxMind database "+path,
			"Download GeoLite2-City.mmdb and set geo.database")
	}
	return &MaxMindLocator{reader: r}, nil
}

type mmdbCity struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Subdivisions []struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"subdivisions"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// Locate implements Locator.
func (l *MaxMindLocator) Locate(_ context.Context, ip netip.Addr) (GeoRecord, error) {
	if isReserved(ip) {
		return GeoRecord{IP: ip.String(), Private: true}, nil
	}
	if l.reader == nil {
		return GeoRecord{}, errors.New(errors.ErrGeo, "MaxMind database is not open", "Use OpenMaxMind")
	}

	var rec mmdbCity
	_, ok, err := l.reader.LookupNetwork(net.IP(ip.AsSlice()), &rec)
	if err != nil {
		return GeoRecord{}, errors.WrapWithCode(err, errors.ErrGeo, fmt.Sprintf("MaxMind lookup for %s failed", ip), "")
	}
	if !ok {
		return GeoRecord{}, errors.New(errors.ErrGeo, fmt.Sprintf("%s is not in the MaxMind database", ip), "")
	}

	out := GeoRecord{
		IP:          ip.String(),
		Country:     rec.Country.Names["en"],
		CountryCode: rec.Country.ISOCode,
		City:        rec.City.Names["en"],
		Lat:         rec.Location.Latitude,
		Lon:         rec.Location.Longitude,
	}
	if len(rec.Subdivisions) > 0 {
		out.Region = rec.Subdivisions[0].Names["en"]
	}
	return out, nil
}

// Close releases the database.
func (l *MaxMindLocator) Close() error {
	if l.reader == nil {
		return nil
	}
	return l.reader.Close()
}

// NoopLocator treats every address as unlocatable. Used when geo is disabled.
type NoopLocator struct{}

// Locate implements Locator.
func (NoopLocator) Locate(_ context.Context, ip netip.Addr) (GeoRecord, error) {
	if isReserved(ip) {
		return GeoRecord{IP: ip.String(), Private: true}, nil
	}
	return GeoRecord{}, errors.New(errors.ErrGeo, "Geo lookups are disabled", "Set geo.provider to ip-api or maxmind")
}
