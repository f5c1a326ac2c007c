// Command ccdemo scrolls a page of tiled layers through a fixed texture
// budget and prints what the texture manager keeps resident each frame.
package main

import (
	"flag"
	"image"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/layer"
	"github.com/gogpu/compositor/resource"
	"github.com/gogpu/compositor/texture"
	"github.com/tanema/gween/ease"
)

func main() {
	var (
		width   = flag.Int("width", 800, "viewport width")
		height  = flag.Int("height", 600, "viewport height")
		budget  = flag.Int("budget", 8, "texture budget in MiB")
		layers  = flag.Int("layers", 12, "number of page sections")
		frames  = flag.Int("frames", 60, "frames to run")
		scroll  = flag.Int("scroll", 40, "pixels scrolled per frame")
		tile    = flag.Int("tile", 256, "tile size")
		verbose = flag.Bool("v", false, "log manager decisions")
	)
	flag.Parse()

	if *verbose {
		compositor.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	m := texture.NewManager(texture.Config{MaxMemoryLimitBytes: *budget << 20})
	rp := resource.NewMemoryProvider(0)
	tree := layer.NewTree(m, layer.Config{
		Viewport:      image.Rect(0, 0, *width, *height),
		TileSize:      *tile,
		RecordMetrics: *verbose,
	})

	buildPage(tree, *width, *height, *layers)

	for i := range *frames {
		y := i * *scroll
		tree.SetViewport(image.Rect(0, y, *width, y+*height))
		tree.Advance(1.0 / 60)
		stats, err := tree.Frame(rp)
		if err != nil {
			log.Printf("frame %d: %v", i, err)
		}
		log.Printf("%v; %v", stats, stats.Manager)
	}

	tree.Close(rp)
	log.Printf("%v", rp.Stats())
}

// buildPage stacks sections vertically inside a clipping root. Every third
// section slides in from the right; every fourth is hidden.
func buildPage(tree *layer.Tree, w, h, n int) {
	root := tree.NewLayer(nil, image.Pt(w, h*n))
	root.SetMasksToBounds(true)
	root.SetOpaque(true)

	for i := range n {
		section := tree.NewLayer(root, image.Pt(w, h))
		y := float64(i * h)
		section.SetTransform(compositor.Translate(0, y))
		switch {
		case i%4 == 3:
			section.SetHidden(true)
		case i%3 == 2:
			section.AnimateTranslation(compositor.Pt(float64(w), 0), compositor.Pt(0, 0), 1.5, ease.OutCubic)
		}
	}
}
