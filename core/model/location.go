package model

import (
	"math"

	"github.com/google/uuid"
)

// Location is a known charging location owned by an account. A vehicle is
// "at" the location whose geo-fence circle contains its reported point; ties
// are broken by the smallest radius.
type Location struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Name           string
	LatMicroDeg    int64
	LonMicroDeg    int64
	GeoFenceRadius int // meters
	PriceCode      string
}

const earthRadiusM = 6371000.0

// DistanceM returns the great-circle distance in meters between the location
// center and the given micro-degree point.
func (l Location) DistanceM(latMicro, lonMicro int64) float64 {
	lat1 := float64(l.LatMicroDeg) / 1e6 * math.Pi / 180
	lat2 := float64(latMicro) / 1e6 * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (float64(lonMicro) - float64(l.LonMicroDeg)) / 1e6 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Contains reports whether the point falls inside the geo-fence.
func (l Location) Contains(latMicro, lonMicro int64) bool {
	return l.DistanceM(latMicro, lonMicro) <= float64(l.GeoFenceRadius)
}
