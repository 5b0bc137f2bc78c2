// Command reconstruct turns a scan session's CSV sample log into a colored
// ASCII PLY point cloud, with optional voxel downsampling, gamma adjustment
// and per-session report artifacts.
package main

import (
	"errors"
	"flag"
	"log"
	"path/filepath"
	"strings"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/ply"
	"github.com/skein-labs/rotoscan/internal/pointcloud"
	"github.com/skein-labs/rotoscan/internal/report"
	"github.com/skein-labs/rotoscan/internal/samplelog"
	"github.com/skein-labs/rotoscan/internal/scandb"
	"github.com/skein-labs/rotoscan/internal/voxel"
)

var (
	csvPath       = flag.String("csv", "", "sample log to reconstruct (required)")
	chiralityFlag = flag.String("chirality", "cw", "stage rotation direction: cw or ccw")
	voxelSize     = flag.Float64("voxel", 0.03, "voxel edge length for the downsampled variant (0 to skip)")
	gamma         = flag.Float64("gamma", 1.0, "color gamma exponent applied to the downsampled variant")
	sentinel      = flag.Float64("sentinel", 65535, "out-of-range sentinel distance to drop")
	dbFile        = flag.String("db", "scans.db", "scan registry database path (empty to disable)")
	writeReport   = flag.Bool("report", false, "also write a distance chart and top-down preview beside the mesh")
)

func main() {
	flag.Parse()
	if *csvPath == "" {
		log.Fatal("missing required -csv flag")
	}

	chirality, err := pointcloud.ParseChirality(*chiralityFlag)
	if err != nil {
		log.Fatal(err)
	}

	fs := fsutil.OS{}
	records, skipped, err := samplelog.Read(fs, *csvPath)
	if err != nil {
		log.Fatal(err)
	}
	if skipped > 0 {
		log.Printf("skipped %d malformed rows in %s", skipped, *csvPath)
	}

	points, err := pointcloud.Build(records, *sentinel, chirality)
	if err != nil {
		if errors.Is(err, pointcloud.ErrEmptyInput) {
			log.Fatalf("%s contains no in-range samples", *csvPath)
		}
		log.Fatal(err)
	}

	meshPath := samplelog.MeshPath(*csvPath, chirality.Suffix())
	if err := ply.WriteFile(fs, meshPath, points); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d points to %s", len(points), meshPath)

	sessionID := sessionFromLog(*csvPath)

	var registry *scandb.DB
	if *dbFile != "" {
		registry, err = scandb.Open(*dbFile)
		if err != nil {
			log.Fatal(err)
		}
		defer registry.Close()
		if err := registry.RecordMesh(sessionID, chirality.String(), len(points), meshPath); err != nil {
			log.Printf("registry: %v", err)
		}
	}

	if *voxelSize > 0 {
		down, err := voxel.Downsample(points, *voxelSize)
		if err != nil {
			log.Fatal(err)
		}
		down = voxel.AdjustGamma(down, *gamma)
		voxelPath := samplelog.MeshPath(*csvPath, chirality.Suffix()+"_voxel")
		if err := ply.WriteFile(fs, voxelPath, down); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %d voxelized points to %s", len(down), voxelPath)
		if registry != nil {
			if err := registry.RecordMesh(sessionID, chirality.String()+"_voxel", len(down), voxelPath); err != nil {
				log.Printf("registry: %v", err)
			}
		}
	}

	if *writeReport {
		base := strings.TrimSuffix(meshPath, filepath.Ext(meshPath))
		if err := report.WriteDistanceChart(fs, base+"_report.html", sessionID, records, *sentinel); err != nil {
			log.Fatal(err)
		}
		if err := report.WritePreview(fs, base+"_preview.png", sessionID, points); err != nil {
			log.Fatal(err)
		}
	}
}

// sessionFromLog recovers the session ID from a scanData_<id>.csv filename,
// falling back to the bare basename for logs named some other way.
func sessionFromLog(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(base, "scanData_")
}
