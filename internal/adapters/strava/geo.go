package strava

import "math"

const earthRadiusM = 6371000.0

// haversineM returns the great-circle distance in meters.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

// metersToDegLat converts a distance in meters to degrees of latitude.
func metersToDegLat(m float64) float64 {
	return m / 111111.0
}

// metersToDegLon converts a distance in meters to degrees of longitude
// at the given latitude.
func metersToDegLon(m, lat float64) float64 {
	return m / (111111.0*math.Cos(lat*math.Pi/180) + 1e-12)
}

// decodePolyline decodes a Google encoded polyline into lat/lon pairs.
func decodePolyline(encoded string) [][2]float64 {
	var coords [][2]float64
	var lat, lon int64
	i := 0
	for i < len(encoded) {
		dLat, n, ok := decodeVarint(encoded[i:])
		if !ok {
			return coords
		}
		i += n
		lat += dLat

		dLon, n, ok := decodeVarint(encoded[i:])
		if !ok {
			return coords
		}
		i += n
		lon += dLon

		coords = append(coords, [2]float64{float64(lat) / 1e5, float64(lon) / 1e5})
	}
	return coords
}

// decodeVarint reads one zigzag varint from the encoded polyline.
func decodeVarint(s string) (int64, int, bool) {
	var result int64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int64(s[i]) - 63
		if b < 0 {
			return 0, 0, false
		}
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			if result&1 != 0 {
				return ^(result >> 1), i + 1, true
			}
			return result >> 1, i + 1, true
		}
		shift += 5
	}
	return 0, 0, false
}
