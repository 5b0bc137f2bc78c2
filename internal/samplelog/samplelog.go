// Package samplelog reads and writes the append-only CSV sample log that
// links acquisition to reconstruction. One row per retained range reading,
// tagged with the stage rotation at capture time; a session's log is
// immutable once the scan closes it.
package samplelog

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/monitoring"
)

// Header is the required first row of every sample log.
var Header = []string{"Quality", "Angle (degrees)", "Distance (mm)", "Rotation"}

// Record is one range reading. Quality is the sensor-reported confidence and
// is carried through untouched; Angle is the in-sweep bearing in [0,180);
// Distance is in sensor units; Rotation is the stage position in degrees at
// capture time.
type Record struct {
	Quality  int
	Angle    float64
	Distance float64
	Rotation float64
}

// Writer appends records to a CSV sample log. It is not safe for concurrent
// use; the scan loop is single-threaded by design.
type Writer struct {
	w   *csv.Writer
	c   io.Closer
	n   int
	err error
}

// NewWriter writes the header row and returns a Writer over wc. The caller
// owns closing via Close, which also flushes.
func NewWriter(wc io.WriteCloser) (*Writer, error) {
	w := csv.NewWriter(wc)
	if err := w.Write(Header); err != nil {
		wc.Close()
		return nil, fmt.Errorf("write sample log header: %w", err)
	}
	return &Writer{w: w, c: wc}, nil
}

// Append writes one record.
func (w *Writer) Append(rec Record) error {
	if w.err != nil {
		return w.err
	}
	row := []string{
		strconv.Itoa(rec.Quality),
		formatNumber(rec.Angle),
		formatNumber(rec.Distance),
		formatNumber(rec.Rotation),
	}
	if err := w.w.Write(row); err != nil {
		w.err = fmt.Errorf("append sample: %w", err)
		return w.err
	}
	w.n++
	return nil
}

// Flush pushes buffered rows to the underlying file. The controller flushes
// once per rotation step so a crash loses at most one step.
func (w *Writer) Flush() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil && w.err == nil {
		w.err = fmt.Errorf("flush sample log: %w", err)
	}
	return w.err
}

// Count returns the number of records appended so far.
func (w *Writer) Count() int { return w.n }

// Close flushes and closes the log. After Close the session is immutable.
func (w *Writer) Close() error {
	flushErr := w.Flush()
	if err := w.c.Close(); err != nil {
		return fmt.Errorf("close sample log: %w", err)
	}
	return flushErr
}

// formatNumber renders integral values without a decimal point, matching the
// historical log format (angles are usually whole degrees).
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Read loads a sample log from fs. Rows that fail numeric parsing are
// skipped with a logged warning; the count of skipped rows is returned so
// callers can surface data quality.
func Read(fs fsutil.FileSystem, path string) (records []Record, skipped int, err error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open sample log %s: %w", path, err)
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom parses sample log rows from r. The header row is required and
// discarded.
func ReadFrom(r io.Reader) (records []Record, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // malformed rows are handled per-row, not fatally

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("read sample log: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("sample log is empty: missing header row")
	}

	for i, row := range rows[1:] {
		rec, perr := parseRow(row)
		if perr != nil {
			skipped++
			monitoring.Logf("samplelog: skipping row %d: %v", i+2, perr)
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) < 4 {
		return Record{}, fmt.Errorf("expected 4 columns, got %d", len(row))
	}

	quality, err := strconv.Atoi(strings.TrimSpace(row[0]))
	if err != nil {
		return Record{}, fmt.Errorf("quality %q: %w", row[0], err)
	}
	angle, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("angle %q: %w", row[1], err)
	}
	distance, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("distance %q: %w", row[2], err)
	}
	rotation, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return Record{}, fmt.Errorf("rotation %q: %w", row[3], err)
	}

	return Record{Quality: quality, Angle: angle, Distance: distance, Rotation: rotation}, nil
}

// CSVDirName and PLYDirName are the sibling directories the pipeline writes
// into: sample logs under CSV, derived meshes under PLY.
const (
	CSVDirName = "CSV"
	PLYDirName = "PLY"
)

// LogPath returns the sample log path for a session under root.
func LogPath(root, sessionID string) string {
	return filepath.Join(root, CSVDirName, fmt.Sprintf("scanData_%s.csv", sessionID))
}

// MeshPath derives the mesh output path for a sample log: the PLY directory
// sits beside the log's CSV directory, and suffix (e.g. "_CW") disambiguates
// the reconstruction variant.
func MeshPath(logPath, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(logPath), filepath.Ext(logPath))
	plyDir := filepath.Join(filepath.Dir(filepath.Dir(logPath)), PLYDirName)
	return filepath.Join(plyDir, base+suffix+".ply")
}

// Create opens a new sample log for writing, creating the CSV directory if
// needed.
func Create(fs fsutil.FileSystem, root, sessionID string) (*Writer, string, error) {
	dir := filepath.Join(root, CSVDirName)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("create sample log directory %s: %w", dir, err)
	}
	path := LogPath(root, sessionID)
	f, err := fs.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create sample log %s: %w", path, err)
	}
	w, err := NewWriter(f)
	if err != nil {
		return nil, "", err
	}
	return w, path, nil
}
