// Package trajectory reads and writes multi-frame extended XYZ files.
// Each frame carries the cell, periodic flags, potential energy, step
// and simulation time, so the files open directly in ASE or OVITO.
package trajectory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/atoms"
	"github.com/san-kum/cumd/internal/units"
)

const properties = "species:S:1:pos:R:3:momenta:R:3"

type Writer struct {
	w      *bufio.Writer
	closer io.Closer
	frames int
}

// Create truncates path and returns a writer on it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{w: bufio.NewWriter(f), closer: f}, nil
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Frames() int { return w.frames }

// Write appends one frame. step and t (internal time units) are stored
// in the comment line; t is written in fs.
func (w *Writer) Write(a *atoms.Atoms, step int, t float64) error {
	epot, err := a.PotentialEnergy()
	if err != nil {
		return fmt.Errorf("trajectory: frame %d: %w", w.frames, err)
	}

	c := a.Cell
	fmt.Fprintf(w.w, "%d\n", a.Len())
	fmt.Fprintf(w.w, "Lattice=\"%s 0 0 0 %s 0 0 0 %s\" Properties=%s energy=%s pbc=\"%s %s %s\" step=%d time=%s\n",
		ff(c.X), ff(c.Y), ff(c.Z), properties, ff(epot),
		tf(a.PBC[0]), tf(a.PBC[1]), tf(a.PBC[2]), step, ff(t/units.Fs))

	masses := a.Masses()
	vel := a.Velocities()
	for i, p := range a.Positions() {
		m := r3.Scale(masses[i], vel[i])
		fmt.Fprintf(w.w, "%-2s %16.10f %16.10f %16.10f %16.10f %16.10f %16.10f\n",
			a.Symbol, p.X, p.Y, p.Z, m.X, m.Y, m.Z)
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("trajectory: frame %d: %w", w.frames, err)
	}
	w.frames++
	return nil
}

func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func tf(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
