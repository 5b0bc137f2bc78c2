// Package ply writes and reads the ASCII PLY mesh files that carry
// reconstructed point clouds between processes. Only the six-property
// colored-vertex layout produced by this pipeline is supported.
package ply

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/monitoring"
	"github.com/skein-labs/rotoscan/internal/pointcloud"
)

// header property lines, in the order Write emits them and Read expects
// them.
var properties = []string{
	"property float x",
	"property float y",
	"property float z",
	"property uchar red",
	"property uchar green",
	"property uchar blue",
}

// FormatError reports a malformed mesh file. Line is 1-based; 0 means the
// problem is not tied to a single line (e.g. a vertex-count mismatch).
type FormatError struct {
	Path string
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	where := e.Path
	if where == "" {
		where = "mesh"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", where, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", where, e.Msg)
}

// Write emits the colored points as an ASCII PLY mesh: a header declaring
// the vertex count and six per-vertex properties, then one line per point.
func Write(w io.Writer, points []pointcloud.ColoredPoint) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintf(bw, "element vertex %d\n", len(points))
	for _, p := range properties {
		fmt.Fprintln(bw, p)
	}
	fmt.Fprintln(bw, "end_header")

	for _, p := range points {
		fmt.Fprintf(bw, "%s %s %s %d %d %d\n",
			formatCoord(p.Pos.X), formatCoord(p.Pos.Y), formatCoord(p.Pos.Z),
			p.R, p.G, p.B)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write mesh: %w", err)
	}
	return nil
}

// formatCoord renders a coordinate with enough precision to round-trip
// exactly through Read.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Read parses a mesh produced by Write. It fails with *FormatError when the
// header is malformed or the declared vertex count does not match the data
// lines present.
func Read(r io.Reader) ([]pointcloud.ColoredPoint, error) {
	return read(r, "")
}

func read(r io.Reader, path string) ([]pointcloud.ColoredPoint, error) {
	scan := bufio.NewScanner(r)
	line := 0
	nextLine := func() (string, bool) {
		if !scan.Scan() {
			return "", false
		}
		line++
		return strings.TrimSpace(scan.Text()), true
	}
	fail := func(msg string, args ...interface{}) error {
		return &FormatError{Path: path, Line: line, Msg: fmt.Sprintf(msg, args...)}
	}

	magic, ok := nextLine()
	if !ok || magic != "ply" {
		return nil, fail("missing ply magic")
	}
	format, ok := nextLine()
	if !ok || format != "format ascii 1.0" {
		return nil, fail("unsupported format %q", format)
	}

	element, ok := nextLine()
	if !ok || !strings.HasPrefix(element, "element vertex ") {
		return nil, fail("missing element vertex declaration")
	}
	count, err := strconv.Atoi(strings.TrimPrefix(element, "element vertex "))
	if err != nil || count < 0 {
		return nil, fail("invalid vertex count in %q", element)
	}

	for _, want := range properties {
		got, ok := nextLine()
		if !ok || got != want {
			return nil, fail("expected %q, got %q", want, got)
		}
	}
	if end, ok := nextLine(); !ok || end != "end_header" {
		return nil, fail("missing end_header")
	}

	points := make([]pointcloud.ColoredPoint, 0, count)
	for {
		text, ok := nextLine()
		if !ok {
			break
		}
		if text == "" {
			continue
		}
		p, err := parseVertex(text)
		if err != nil {
			return nil, fail("bad vertex: %v", err)
		}
		points = append(points, p)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read mesh: %w", err)
	}

	if len(points) != count {
		line = 0
		return nil, fail("header declares %d vertices but file contains %d", count, len(points))
	}
	return points, nil
}

func parseVertex(text string) (pointcloud.ColoredPoint, error) {
	fields := strings.Fields(text)
	if len(fields) != 6 {
		return pointcloud.ColoredPoint{}, fmt.Errorf("expected 6 values, got %d", len(fields))
	}

	var coords [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return pointcloud.ColoredPoint{}, fmt.Errorf("coordinate %q: %w", fields[i], err)
		}
		coords[i] = v
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(fields[3+i], 10, 8)
		if err != nil {
			return pointcloud.ColoredPoint{}, fmt.Errorf("color channel %q: %w", fields[3+i], err)
		}
		channels[i] = uint8(v)
	}

	return pointcloud.ColoredPoint{
		Pos: r3.Vec{X: coords[0], Y: coords[1], Z: coords[2]},
		R:   channels[0], G: channels[1], B: channels[2],
	}, nil
}

// WriteFile writes the mesh to path, creating the parent directory if
// needed.
func WriteFile(fs fsutil.FileSystem, path string, points []pointcloud.ColoredPoint) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mesh directory for %s: %w", path, err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create mesh %s: %w", path, err)
	}
	if err := Write(f, points); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mesh %s: %w", path, err)
	}
	monitoring.Logf("ply: wrote %d points to %s", len(points), path)
	return nil
}

// ReadFile reads a mesh from path.
func ReadFile(fs fsutil.FileSystem, path string) ([]pointcloud.ColoredPoint, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mesh %s: %w", path, err)
	}
	defer f.Close()
	return read(f, path)
}
