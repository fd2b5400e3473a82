package game

import "math"

// Vec2 is a position or velocity in arena cells.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Len returns the magnitude of v.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Wrap maps p into [0,w) x [0,h) on the torus.
func Wrap(p Vec2, w, h float64) Vec2 {
	p.X = math.Mod(p.X, w)
	if p.X < 0 {
		p.X += w
	}
	p.Y = math.Mod(p.Y, h)
	if p.Y < 0 {
		p.Y += h
	}
	return p
}

// shortestDelta returns the signed difference a-b along one wrapped axis,
// choosing the direction that crosses the shorter way around.
func shortestDelta(a, b, wrap float64) float64 {
	d := a - b
	switch {
	case d > wrap/2:
		return d - wrap
	case d < -wrap/2:
		return d + wrap
	default:
		return d
	}
}

// torusDist2 returns the squared distance between a and b on the torus.
func torusDist2(a, b Vec2, w, h float64) float64 {
	dx := shortestDelta(a.X, b.X, w)
	dy := shortestDelta(a.Y, b.Y, h)
	return dx*dx + dy*dy
}
