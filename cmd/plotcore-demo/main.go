// Command plotcore-demo wires the plotcore packages together end to end:
// a rolling point store feeding derived views, a region controller with a
// dragged range/rect hierarchy, and a bbolt snapshot round trip.
package main

import (
	"flag"
	"log"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/plotcore"
	"github.com/gogpu/plotcore/bridge"
	"github.com/gogpu/plotcore/persist"
	"github.com/gogpu/plotcore/region"
	"github.com/gogpu/plotcore/render"
	"github.com/gogpu/plotcore/store"
	"github.com/gogpu/plotcore/view"
)

// linearTransform is a minimal stand-in for the scale layer a real plot
// injects: data maps linearly to a pixel surface with Y flipped.
type linearTransform struct {
	scaleX, scaleY float64
	heightPx       float64
}

func (t linearTransform) ToPixel(x, y float64) (float64, float64) {
	return x * t.scaleX, t.heightPx - y*t.scaleY
}

func (t linearTransform) ToData(px, py float64) (float64, float64) {
	return px / t.scaleX, (t.heightPx - py) / t.scaleY
}

func main() {
	var (
		points      = flag.Int("points", 5000, "points to generate")
		snapshot    = flag.String("snapshot", "plotcore-demo.db", "snapshot database path")
		relay       = flag.String("connect", "", "websocket record relay to join (optional)")
		metricsAddr = flag.String("metrics", "", "address to serve prometheus metrics on (optional)")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Printf("metrics on http://%s/metrics", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	plotcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Rolling store capped at 4096 points, fed with a decaying sine.
	ps, err := store.NewRolling(store.RollingConfig{MaxPoints: 4096})
	if err != nil {
		log.Fatalf("rolling store: %v", err)
	}
	xs := make([]float32, *points)
	ys := make([]float32, *points)
	for i := range xs {
		x := float64(i) / 50
		xs[i] = float32(x)
		ys[i] = float32(50 + 40*math.Sin(x)*math.Exp(-x/40))
	}
	defer bridge.ObserveStore(ps)()
	if err := ps.Append(store.Chunk{X: xs, Y: ys}); err != nil {
		log.Fatalf("append: %v", err)
	}
	ps.ExpireIfNeeded()

	// Controller over a 1000x500 pixel surface, 10px per data unit in X.
	t := linearTransform{scaleX: 10, scaleY: 5, heightPx: 500}
	ctrl := region.NewController(t)

	band := ctrl.CreateRange(10, 30)
	box := ctrl.CreateRect(plotcore.NewBounds(12, 18, 20, 80))
	log.Printf("created range %s and child rect %s (parent=%v)",
		band.ID(), box.ID(), box.Parent() != nil)

	// Views: everything, the band's points, and a y histogram.
	all := view.FromStore(ps)
	defer all.Destroy()
	defer bridge.ObserveView(all)()
	inBand := all.FilterByROI(ctrl, band.ID())
	defer inBand.Destroy()
	hist, err := all.Histogram("y", 20)
	if err != nil {
		log.Fatalf("histogram: %v", err)
	}
	defer hist.Destroy()

	log.Printf("store holds %d points, %d in the band, histogram over %d bins",
		all.Data().Len(), inBand.Data().Len(), hist.Data().Len())

	// Drag the band 5 data units right; the rect follows and both commit.
	px, py := t.ToPixel(20, 50)
	ctrl.PointerDown(px, py)
	px2, _ := t.ToPixel(25, 50)
	ctrl.PointerMove(px2, py)
	ctrl.PointerUp()
	log.Printf("after drag: range=%+v v%d rect=%+v v%d, band view has %d points",
		band.Bounds(), band.Version(), box.Bounds(), box.Version(), inBand.Data().Len())

	// Pack the band's points into GPU upload buffers.
	bufs := render.Buffers(*inBand.Data())
	log.Printf("packed %d bytes of positions across %d vertex buffers",
		len(bufs[render.BufferPosition]), len(render.PointLayout()))

	// Optionally join a record relay and watch for remote edits briefly.
	if *relay != "" {
		br, err := bridge.Dial(*relay, ctrl)
		if err != nil {
			log.Fatalf("connect relay: %v", err)
		}
		defer br.Close()
		for i := 0; i < 120; i++ {
			if n := br.Drain(); n > 0 {
				log.Printf("applied %d remote records", n)
			}
			time.Sleep(16 * time.Millisecond)
		}
	}

	// Snapshot round trip through bbolt.
	db, err := persist.Open(*snapshot)
	if err != nil {
		log.Fatalf("open snapshot store: %v", err)
	}
	defer db.Close()
	if err := db.SaveSnapshot(ctrl.SerializeAll()); err != nil {
		log.Fatalf("save snapshot: %v", err)
	}
	recs, err := db.LoadSnapshot()
	if err != nil {
		log.Fatalf("load snapshot: %v", err)
	}
	reloaded := region.NewController(t)
	reloaded.DeserializeAll(recs)
	log.Printf("reloaded %d regions from %s", len(reloaded.Regions()), *snapshot)
}
