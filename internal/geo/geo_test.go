package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/wtd"
)

type resolverFunc func(ctx context.Context, lat, lng float64) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, lat, lng float64) (string, error) {
	return f(ctx, lat, lng)
}

func ptr(v float64) *float64 { return &v }

func TestLocator_NoFix(t *testing.T) {
	loc := Locator{}.Locate(context.Background(), Fix{})
	assert.Equal(t, wtd.UnknownLocation, loc.Label)
	assert.False(t, loc.HasCoordinates())

	loc = Locator{}.Locate(context.Background(), Fix{Label: "Yard 2"})
	assert.Equal(t, "Yard 2", loc.Label)
}

func TestLocator_ResolverFailureIsAbsorbed(t *testing.T) {
	l := Locator{Resolver: resolverFunc(func(context.Context, float64, float64) (string, error) {
		return "", errors.New("geocoder down")
	})}
	loc := l.Locate(context.Background(), Fix{Latitude: ptr(51.5), Longitude: ptr(-0.12)})

	assert.Equal(t, wtd.UnknownLocation, loc.Label)
	require.True(t, loc.HasCoordinates())
	assert.Equal(t, 51.5, *loc.Latitude)
}

func TestLocator_Timeout(t *testing.T) {
	l := Locator{
		Timeout: 20 * time.Millisecond,
		Resolver: resolverFunc(func(ctx context.Context, _, _ float64) (string, error) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return "too late", nil
		}),
	}
	start := time.Now()
	loc := l.Locate(context.Background(), Fix{Latitude: ptr(1), Longitude: ptr(2)})

	assert.Equal(t, wtd.UnknownLocation, loc.Label)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocator_InvalidCoordinates(t *testing.T) {
	loc := Locator{}.Locate(context.Background(), Fix{Latitude: ptr(123), Longitude: ptr(2)})
	assert.Equal(t, wtd.UnknownLocation, loc.Label)
	assert.False(t, loc.HasCoordinates())
}

func TestDepotResolver(t *testing.T) {
	r := DepotResolver{Depots: []Depot{
		{Name: "North", Latitude: 51.5300, Longitude: -0.1200},
		{Name: "South", Latitude: 51.4500, Longitude: -0.1000, RadiusM: 1000},
	}}
	l := Locator{Resolver: r}

	loc := l.Locate(context.Background(), Fix{Latitude: ptr(51.5301), Longitude: ptr(-0.1201)})
	assert.Equal(t, "North", loc.Label)

	loc = l.Locate(context.Background(), Fix{Latitude: ptr(51.4550), Longitude: ptr(-0.1000)})
	assert.Equal(t, "South", loc.Label)

	_, err := r.Resolve(context.Background(), 40, 10)
	assert.ErrorIs(t, err, ErrNoDepotNearby)
}

func TestPointRoundTrip(t *testing.T) {
	loc := wtd.Location{Label: "x", Latitude: ptr(-1.2921), Longitude: ptr(36.8219)}
	b, err := EncodePoint(loc)
	require.NoError(t, err)

	lat, lng, err := DecodePoint(b)
	require.NoError(t, err)
	assert.InDelta(t, -1.2921, *lat, 1e-9)
	assert.InDelta(t, 36.8219, *lng, 1e-9)

	b, err = EncodePoint(wtd.Unknown())
	require.NoError(t, err)
	assert.Nil(t, b)

	gj, err := PointGeoJSON(loc)
	require.NoError(t, err)
	assert.Contains(t, gj, `"Point"`)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 111195, Distance(0, 0, 1, 0), 10)
	assert.Equal(t, 0.0, Distance(10, 10, 10, 10))
}
