package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Camera projects a periodic box onto a canvas orthographically. The box
// is rotated about its centre and scaled so its diagonal fits.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{RotX: 0.35, RotY: 0.6, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p r3.Vec) r3.Vec {
	p = r3.NewRotation(c.RotX, r3.Vec{X: 1}).Rotate(p)
	return r3.NewRotation(c.RotY, r3.Vec{Y: 1}).Rotate(p)
}

// Project maps p inside a box of the given cell to canvas pixels.
func (c *Camera) Project(p, cell r3.Vec, width, height int) (int, int, bool) {
	centre := r3.Scale(0.5, cell)
	diag := r3.Norm(cell)
	if diag == 0 {
		return 0, 0, false
	}
	scale := 0.9 * c.Zoom * math.Min(float64(width), float64(height)) / diag

	q := c.rotate(r3.Sub(p, centre))
	x := int(math.Round(q.X*scale)) + width/2
	y := int(math.Round(-q.Y*scale)) + height/2
	return x, y, x >= 0 && x < width && y >= 0 && y < height
}

var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// DrawCrystal draws the cell outline and one dot per atom.
func DrawCrystal(cv *Canvas, cam *Camera, positions []r3.Vec, cell r3.Vec) {
	w, h := cv.Dots()
	cv.Clear()

	var corners [8][2]int
	for i := range corners {
		p := r3.Vec{
			X: float64(i&1) * cell.X,
			Y: float64(i>>1&1) * cell.Y,
			Z: float64(i>>2&1) * cell.Z,
		}
		corners[i][0], corners[i][1], _ = cam.Project(p, cell, w, h)
	}
	for _, e := range boxEdges {
		a, b := corners[e[0]], corners[e[1]]
		cv.DrawLine(a[0], a[1], b[0], b[1])
	}

	for _, p := range positions {
		if x, y, ok := cam.Project(p, cell, w, h); ok {
			cv.Set(x, y)
		}
	}
}
