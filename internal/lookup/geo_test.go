package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newIPAPIServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		ip := strings.TrimPrefix(r.URL.Path, "/json/")
		w.Header().Set("Content-Type", "application/json")
		switch ip {
		case "8.8.8.8":
			fmt.Fprint(w, `{"status":"success","country":"United States","countryCode":"US","regionName":"California","city":"Mountain View","lat":37.4056,"lon":-122.0775,"isp":"Google LLC","org":"Google Public DNS","as":"AS15169 Google LLC","query":"8.8.8.8"}`)
		case "10.0.0.1":
			fmt.Fprint(w, `{"status":"fail","message":"private range","query":"10.0.0.1"}`)
		default:
			fmt.Fprint(w, `{"status":"fail","message":"invalid query","query":"`+ip+`"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIPAPILocator(t *testing.T) {
	var hits atomic.Int32
	srv := newIPAPIServer(t, &hits)

	l := NewIPAPILocator(0)
	l.BaseURL = srv.URL + "/json/"

	t.Run("success", func(t *testing.T) {
		rec, err := l.Locate(context.Background(), netip.MustParseAddr("8.8.8.8"))
		require.NoError(t, err)
		assert.Equal(t, "8.8.8.8", rec.IP)
		assert.Equal(t, "US", rec.CountryCode)
		assert.Equal(t, "Mountain View", rec.City)
		assert.InDelta(t, 37.4056, rec.Lat, 1e-6)
		assert.InDelta(t, -122.0775, rec.Lon, 1e-6)
		assert.False(t, rec.Private)
	})

	t.Run("private range is a result", func(t *testing.T) {
		rec, err := l.Locate(context.Background(), netip.MustParseAddr("10.0.0.1"))
		require.NoError(t, err)
		assert.True(t, rec.Private)
	})

	t.Run("fail status is an error", func(t *testing.T) {
		_, err := l.Locate(context.Background(), netip.MustParseAddr("192.0.2.1"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrGeo))
	})
}

func TestIPAPILocator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	l := NewIPAPILocator(0)
	l.BaseURL = srv.URL + "/"
	_, err := l.Locate(context.Background(), netip.MustParseAddr("8.8.4.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestIPAPILocator_LimiterHonoursContext(t *testing.T) {
	var hits atomic.Int32
	srv := newIPAPIServer(t, &hits)

	l := NewIPAPILocator(1)
	l.BaseURL = srv.URL + "/json/"

	_, err := l.Locate(context.Background(), netip.MustParseAddr("8.8.8.8"))
	require.NoError(t, err)

	// The second call within the minute has to wait; a cancelled context
	// returns straight away without a request.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Locate(ctx, netip.MustParseAddr("8.8.8.8"))
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGeoCache_CachesSuccessAndPrivate(t *testing.T) {
	var hits atomic.Int32
	srv := newIPAPIServer(t, &hits)
	l := NewIPAPILocator(0)
	l.BaseURL = srv.URL + "/json/"

	c := NewGeoCache(l)
	for i := 0; i < 3; i++ {
		_, err := c.Resolve(context.Background(), netip.MustParseAddr("8.8.8.8"))
		require.NoError(t, err)
		_, err = c.Resolve(context.Background(), netip.MustParseAddr("10.0.0.1"))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, 2, c.Size())

	for i := 0; i < 2; i++ {
		_, err := c.Resolve(context.Background(), netip.MustParseAddr("192.0.2.1"))
		require.Error(t, err)
	}
	assert.Equal(t, int32(4), hits.Load(), "failures are retried")
	assert.Equal(t, 2, c.Size())
}

func TestGeoCache_WithMockLocator(t *testing.T) {
	ctrl := gomock.NewController(t)
	l := NewMockLocator(ctrl)
	ip := netip.MustParseAddr("::ffff:1.1.1.1")

	l.EXPECT().
		Locate(gomock.Any(), netip.MustParseAddr("1.1.1.1")).
		Return(GeoRecord{IP: "1.1.1.1", City: "Sydney"}, nil).
		Times(1)

	c := NewGeoCache(l)
	rec, err := c.Resolve(context.Background(), ip)
	require.NoError(t, err)
	assert.Equal(t, "Sydney", rec.City)

	rec, err = c.Resolve(context.Background(), netip.MustParseAddr("1.1.1.1"))
	require.NoError(t, err)
	assert.Equal(t, "Sydney", rec.City)
}

func TestMaxMindLocator(t *testing.T) {
	_, err := OpenMaxMind(filepath.Join(t.TempDir(), "missing.mmdb"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrGeo))

	var l MaxMindLocator
	rec, err := l.Locate(context.Background(), netip.MustParseAddr("192.168.1.1"))
	require.NoError(t, err)
	assert.True(t, rec.Private)

	_, err = l.Locate(context.Background(), netip.MustParseAddr("8.8.8.8"))
	assert.Error(t, err)
	assert.NoError(t, l.Close())
}

func TestNoopLocator(t *testing.T) {
	var l NoopLocator
	rec, err := l.Locate(context.Background(), netip.MustParseAddr("127.0.0.1"))
	require.NoError(t, err)
	assert.True(t, rec.Private)

	_, err = l.Locate(context.Background(), netip.MustParseAddr("8.8.8.8"))
	assert.Error(t, err)
}

func TestIsReserved(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"10.1.1.1", true},
		{"172.16.0.1", true},
		{"192.168.0.1", true},
		{"127.0.0.1", true},
		{"100.64.1.1", true},
		{"169.254.0.1", true},
		{"fd00::1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, isReserved(netip.MustParseAddr(tt.ip)))
		})
	}
}
