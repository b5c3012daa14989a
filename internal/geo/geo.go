package geo

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"

	"fleet_tracker/internal/wtd"
)

// DefaultTimeout bounds a single location lookup.
const DefaultTimeout = 3 * time.Second

// Fix is a raw position reported by a driver's device.
type Fix struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Label     string   `json:"label"`
}

// Resolver names a position, e.g. a reverse geocoder or a depot list.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (string, error)
}

// Locator turns fixes into locations without ever failing the caller.
type Locator struct {
	Resolver Resolver
	Timeout  time.Duration
}

// Locate resolves fix into a location. Any failure, including a lookup that
// exceeds the timeout, yields the Unknown label; coordinates are kept when valid.
func (l Locator) Locate(ctx context.Context, fix Fix) wtd.Location {
	loc := wtd.Unknown()
	if fix.Latitude == nil || fix.Longitude == nil {
		if fix.Label != "" {
			loc.Label = fix.Label
		}
		return loc
	}
	lat, lng := *fix.Latitude, *fix.Longitude
	if !validCoordinates(lat, lng) {
		logrus.WithFields(logrus.Fields{"latitude": lat, "longitude": lng}).Warn("Discarding out-of-range position fix")
		return loc
	}
	loc.Latitude, loc.Longitude = &lat, &lng
	if fix.Label != "" {
		loc.Label = fix.Label
		return loc
	}
	if l.Resolver == nil {
		return loc
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		label string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		label, err := l.Resolver.Resolve(ctx, lat, lng)
		done <- result{label, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			logrus.WithError(r.err).Debug("Location lookup failed, using Unknown")
		} else if r.label != "" {
			loc.Label = r.label
		}
	case <-ctx.Done():
		logrus.WithError(ctx.Err()).Debug("Location lookup timed out, using Unknown")
	}
	return loc
}

func validCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180 && !math.IsNaN(lat) && !math.IsNaN(lng)
}

// EncodePoint returns the WKB encoding of loc's coordinates, or nil when it has none.
func EncodePoint(loc wtd.Location) ([]byte, error) {
	if !loc.HasCoordinates() {
		return nil, nil
	}
	p := geom.NewPointFlat(geom.XY, []float64{*loc.Longitude, *loc.Latitude})
	return wkb.Marshal(p, binary.LittleEndian)
}

// DecodePoint reads WKB point bytes back into latitude and longitude.
func DecodePoint(b []byte) (lat, lng *float64, err error) {
	if len(b) == 0 {
		return nil, nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, nil, err
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return nil, nil, fmt.Errorf("expected point geometry, got %T", g)
	}
	y, x := p.Y(), p.X()
	return &y, &x, nil
}

// PointGeoJSON renders a location as a GeoJSON point, "" when it has no coordinates.
func PointGeoJSON(loc wtd.Location) (string, error) {
	if !loc.HasCoordinates() {
		return "", nil
	}
	b, err := gjson.Marshal(geom.NewPointFlat(geom.XY, []float64{*loc.Longitude, *loc.Latitude}))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
