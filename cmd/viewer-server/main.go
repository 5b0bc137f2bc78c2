// Command viewer-server serves a reconstructed point cloud and its render
// options over HTTP, so an external renderer can fetch geometry and defaults
// instead of reading PLY files directly.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/ply"
	"github.com/skein-labs/rotoscan/internal/pointcloud"
	"github.com/skein-labs/rotoscan/internal/scandb"
	"github.com/skein-labs/rotoscan/internal/viz"
	"github.com/skein-labs/rotoscan/internal/voxel"
)

var (
	meshFile       = flag.String("mesh", "", "PLY mesh to serve (required)")
	listen         = flag.String("listen", ":8082", "HTTP listen address")
	voxelSize      = flag.Float64("voxel", 0, "voxel edge length to downsample the served cloud (0 to serve as-is)")
	gamma          = flag.Float64("gamma", 1.0, "color gamma exponent applied after downsampling")
	pointSize      = flag.Float64("point-size", 2.25, "render point size advertised to viewers")
	backgroundFlag = flag.String("background", "dark", "viewer background: dark or light")
	lighting       = flag.Bool("lighting", true, "advertise lighting on")
	dbFile         = flag.String("db", "", "scan registry database to expose under /sessions (empty to disable)")
)

// cloudPoint is the wire form of one vertex.
type cloudPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
}

func main() {
	flag.Parse()
	if *meshFile == "" {
		log.Fatal("missing required -mesh flag")
	}

	background, err := viz.ParseBackground(*backgroundFlag)
	if err != nil {
		log.Fatal(err)
	}
	options := viz.RenderOptions{
		Background:   background,
		PointSize:    *pointSize,
		Lighting:     *lighting,
		ShowBackFace: true,
	}

	points, err := ply.ReadFile(fsutil.OS{}, *meshFile)
	if err != nil {
		log.Fatal(err)
	}
	loaded := len(points)
	if *voxelSize > 0 {
		points, err = voxel.Downsample(points, *voxelSize)
		if err != nil {
			log.Fatal(err)
		}
		points = voxel.AdjustGamma(points, *gamma)
	}
	log.Printf("serving %d points from %s (%d loaded)", len(points), *meshFile, loaded)

	var registry *scandb.DB
	if *dbFile != "" {
		registry, err = scandb.Open(*dbFile)
		if err != nil {
			log.Fatal(err)
		}
		defer registry.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status": "ok", "service": "viewer-server", "timestamp": "%s"}`,
			time.Now().UTC().Format(time.RFC3339))
	})

	mux.HandleFunc("/options", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, options)
	})

	mux.HandleFunc("/cloud", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, toWire(points))
	})

	if registry != nil {
		mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
			sessions, err := registry.ListSessions(50)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			writeJSON(w, sessions)
		})
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")

		registryStatus := "disabled"
		if registry != nil {
			registryStatus = fmt.Sprintf("enabled (%s)", *dbFile)
		}

		fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head><title>Point Cloud Viewer Server</title></head>
<body>
	<h1>Point Cloud Viewer Server</h1>
	<p>Serving %d points from %s</p>
	<p>Session registry: %s</p>
	<ul>
		<li><a href="/health">Health check</a></li>
		<li><a href="/options">Render options</a></li>
		<li><a href="/cloud">Point cloud (JSON)</a></li>
	</ul>
</body>
</html>`, len(points), *meshFile, registryStatus)
	})

	server := &http.Server{
		Addr:    *listen,
		Handler: mux,
	}

	go func() {
		log.Printf("starting HTTP server on %s", *listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
}

func toWire(points []pointcloud.ColoredPoint) []cloudPoint {
	out := make([]cloudPoint, len(points))
	for i, p := range points {
		out[i] = cloudPoint{X: p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z, R: p.R, G: p.G, B: p.B}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}
