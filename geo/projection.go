package geo

// Project computes the squared planar distance from input to the segment
// source-target, treating lat/lon as orthogonal axes. This is NOT
// geodesically correct; it is only meant to rank nearby candidates within
// a grid cell, where the curvature of the earth is negligible.
//
// Ported from the original ComputeDistance (monav/OSRM NNGrid): all
// arithmetic happens in float64 to avoid overflowing the 32-bit fixed-point
// coordinates, and nearest is truncated back to fixed point at the end.
func Project(input, source, target Coordinate) (nearest Coordinate, r float64, distSq float64) {
	vLat := float64(target.Lat) - float64(source.Lat)
	vLon := float64(target.Lon) - float64(source.Lon)

	wLat := float64(input.Lat) - float64(source.Lat)
	wLon := float64(input.Lon) - float64(source.Lon)

	lengthSquared := vLat*vLat + vLon*vLon

	if lengthSquared == 0 {
		return source, 0, wLat*wLat + wLon*wLon
	}

	r = (vLat*wLat + vLon*wLon) / lengthSquared

	if r <= 0 {
		return source, 0, wLat*wLat + wLon*wLon
	}
	if r >= 1 {
		dLat := float64(input.Lat) - float64(target.Lat)
		dLon := float64(input.Lon) - float64(target.Lon)
		return target, 1, dLat*dLat + dLon*dLon
	}

	nearestLat := float64(source.Lat) + r*vLat
	nearestLon := float64(source.Lon) + r*vLon

	dLat := nearestLat - float64(input.Lat)
	dLon := nearestLon - float64(input.Lon)

	nearest = Coordinate{
		Lat: int32(nearestLat),
		Lon: int32(nearestLon),
	}
	distSq = dLat*dLat + dLon*dLon

	return nearest, r, distSq
}
