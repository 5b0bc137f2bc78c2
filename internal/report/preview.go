package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/monitoring"
	"github.com/skein-labs/rotoscan/internal/pointcloud"
)

// WritePreview renders a top-down (X/Z plane) scatter of the cloud to a PNG
// at path. It gives a quick sanity check of a reconstruction without
// launching a viewer.
func WritePreview(fs fsutil.FileSystem, path, sessionID string, points []pointcloud.ColoredPoint) error {
	if len(points) == 0 {
		return pointcloud.ErrEmptyInput
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Top-down preview — %s", sessionID)
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Z (mm)"

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: pt.Pos.X, Y: pt.Pos.Z}
	}

	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return fmt.Errorf("build preview scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(0.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(scatter)

	wt, err := p.WriterTo(8*vg.Inch, 8*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render preview: %w", err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create preview %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write preview %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close preview %s: %w", path, err)
	}
	monitoring.Logf("report: wrote %d-point preview to %s", len(points), path)
	return nil
}
