package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/cumd/internal/units"
)

var ErrMalformed = errors.New("trajectory: malformed frame")

// Frame is one snapshot. Velocities are recovered from the stored
// momenta using standard atomic masses; Time is in fs.
type Frame struct {
	Step       int
	Time       float64
	Energy     float64
	Cell       r3.Vec
	PBC        [3]bool
	Symbols    []string
	Positions  []r3.Vec
	Velocities []r3.Vec
}

func (f *Frame) Len() int { return len(f.Positions) }

type Reader struct {
	sc    *bufio.Scanner
	frame int
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Reader{sc: sc}
}

// Next returns the next frame or io.EOF after the last one.
func (r *Reader) Next() (*Frame, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	header := strings.TrimSpace(r.sc.Text())
	n, err := strconv.Atoi(header)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w %d: bad atom count %q", ErrMalformed, r.frame, header)
	}

	if !r.sc.Scan() {
		return nil, fmt.Errorf("%w %d: missing comment line", ErrMalformed, r.frame)
	}
	f := &Frame{
		Symbols:    make([]string, 0, n),
		Positions:  make([]r3.Vec, 0, n),
		Velocities: make([]r3.Vec, 0, n),
	}
	if err := f.parseComment(r.sc.Text()); err != nil {
		return nil, fmt.Errorf("%w %d: %v", ErrMalformed, r.frame, err)
	}

	for i := 0; i < n; i++ {
		if !r.sc.Scan() {
			return nil, fmt.Errorf("%w %d: expected %d atoms, got %d", ErrMalformed, r.frame, n, i)
		}
		if err := f.parseAtom(r.sc.Text()); err != nil {
			return nil, fmt.Errorf("%w %d atom %d: %v", ErrMalformed, r.frame, i, err)
		}
	}

	r.frame++
	return f, nil
}

// ReadAll loads every frame in path.
func ReadAll(path string) ([]*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := NewReader(file)
	var frames []*Frame
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

func (f *Frame) parseComment(line string) error {
	for key, val := range parseKeyValues(line) {
		var err error
		switch key {
		case "lattice":
			var v []float64
			v, err = parseFloats(strings.Fields(val))
			if err == nil && len(v) != 9 {
				err = fmt.Errorf("lattice needs 9 values, got %d", len(v))
			}
			if err == nil {
				f.Cell = r3.Vec{X: v[0], Y: v[4], Z: v[8]}
			}
		case "pbc":
			for i, flag := range strings.Fields(val) {
				if i < 3 {
					f.PBC[i] = flag == "T" || flag == "True" || flag == "true"
				}
			}
		case "energy":
			f.Energy, err = strconv.ParseFloat(val, 64)
		case "step":
			f.Step, err = strconv.Atoi(val)
		case "time":
			f.Time, err = strconv.ParseFloat(val, 64)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (f *Frame) parseAtom(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return fmt.Errorf("expected at least 4 columns, got %d", len(fields))
	}
	v, err := parseFloats(fields[1:])
	if err != nil {
		return err
	}
	f.Symbols = append(f.Symbols, fields[0])
	f.Positions = append(f.Positions, r3.Vec{X: v[0], Y: v[1], Z: v[2]})

	var vel r3.Vec
	if len(v) >= 6 {
		m, err := units.Mass(fields[0])
		if err != nil {
			return err
		}
		vel = r3.Scale(1/m, r3.Vec{X: v[3], Y: v[4], Z: v[5]})
	}
	f.Velocities = append(f.Velocities, vel)
	return nil
}

// parseKeyValues splits `key=value key="quoted value"` pairs. Keys are
// lower-cased.
func parseKeyValues(line string) map[string]string {
	out := make(map[string]string)
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		start := i
		for i < len(line) && line[i] != '=' && line[i] != ' ' {
			i++
		}
		key := strings.ToLower(line[start:i])
		if i >= len(line) || line[i] != '=' {
			if key != "" {
				out[key] = ""
			}
			continue
		}
		i++

		var val string
		if i < len(line) && line[i] == '"' {
			end := strings.IndexByte(line[i+1:], '"')
			if end < 0 {
				val = line[i+1:]
				i = len(line)
			} else {
				val = line[i+1 : i+1+end]
				i += end + 2
			}
		} else {
			start = i
			for i < len(line) && line[i] != ' ' {
				i++
			}
			val = line[start:i]
		}
		out[key] = val
	}
	return out
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
