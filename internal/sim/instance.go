package sim

// Instance is the per-ball record handed to renderers.
type Instance struct {
	Position [3]float32
	Scale    float32 // diameter
	Color    [4]float32
}

// AppendInstances appends one instance per particle to dst.
func (ps *ParticleSet) AppendInstances(dst []Instance) []Instance {
	scale := float32(2 * ps.Radius)
	for i := range ps.Particles {
		p := &ps.Particles[i]
		c := p.Color.Clamped()
		dst = append(dst, Instance{
			Position: [3]float32{float32(p.Pos.X), float32(p.Pos.Y), 0},
			Scale:    scale,
			Color:    [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(p.Alpha)},
		})
	}
	return dst
}
