package game

import "math"

type Point struct {
	X, Y float64
}

// SpawnPositions lays out n players in a w×h world, keeping margin from the edges.
func SpawnPositions(n int, w, h, margin float64) []Point {
	if n <= 0 {
		return nil
	}

	cx, cy := w/2, h/2
	left := Point{margin, cy}
	right := Point{w - margin, cy}
	top := Point{cx, margin}
	bottom := Point{cx, h - margin}

	switch n {
	case 1:
		return []Point{{cx, cy}}
	case 2:
		return []Point{left, right}
	case 3:
		return []Point{left, right, top}
	case 4:
		return []Point{left, right, top, bottom}
	}

	rx, ry := w/2-margin, h/2-margin
	step := 2 * math.Pi / float64(n)
	points := make([]Point, n)
	for i := range points {
		angle := step * float64(i)
		points[i] = Point{cx + rx*math.Cos(angle), cy + ry*math.Sin(angle)}
	}
	return points
}
