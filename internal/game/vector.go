package game

import "math"

// fixScale is the rounding grid applied to every stored quantity. Rounding after each
// operation keeps two peers bit-identical. Products feeding an add or subtract are
// wrapped in an explicit float64 conversion so the compiler never fuses them.
const fixScale = 1e9

// Vec3 is a 3D vector with fixed-precision arithmetic so that local and remote
// simulations agree.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// fix rounds to the fixScale grid. NaN passes through so Validate can catch it.
func fix(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return float64(math.Round(float64(n*fixScale))) / fixScale
}

func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: fix(x), Y: fix(y), Z: fix(z)}
}

func (v Vec3) Plus(o Vec3) Vec3 {
	return Vec3{X: fix(v.X + o.X), Y: fix(v.Y + o.Y), Z: fix(v.Z + o.Z)}
}

func (v Vec3) Minus(o Vec3) Vec3 {
	return Vec3{X: fix(v.X - o.X), Y: fix(v.Y - o.Y), Z: fix(v.Z - o.Z)}
}

func (v Vec3) Times(s float64) Vec3 {
	return Vec3{X: fix(v.X * s), Y: fix(v.Y * s), Z: fix(v.Z * s)}
}

func (v Vec3) Dot(o Vec3) float64 {
	return fix(float64(v.X*o.X) + float64(v.Y*o.Y) + float64(v.Z*o.Z))
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: fix(float64(v.Y*o.Z) - float64(v.Z*o.Y)),
		Y: fix(float64(v.Z*o.X) - float64(v.X*o.Z)),
		Z: fix(float64(v.X*o.Y) - float64(v.Y*o.X)),
	}
}

func (v Vec3) Magnitude() float64 {
	return fix(math.Sqrt(float64(v.X*v.X) + float64(v.Y*v.Y) + float64(v.Z*v.Z)))
}

func (v Vec3) MagnitudeSquared() float64 {
	return fix(float64(v.X*v.X) + float64(v.Y*v.Y) + float64(v.Z*v.Z))
}

func (v Vec3) Normalize() Vec3 {
	m := v.Magnitude()
	if m == 0 {
		return Vec3{}
	}
	return v.Times(1.0 / m)
}

// Rotate turns the planar part of v by angle radians about z.
func (v Vec3) Rotate(angle float64) Vec3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Vec3{
		X: fix(float64(v.X*c) - float64(v.Y*s)),
		Y: fix(float64(v.X*s) + float64(v.Y*c)),
		Z: v.Z,
	}
}

func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether every component is a real number.
func (v Vec3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
