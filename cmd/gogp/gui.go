package main

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/AllenDang/imgui-go"
	"github.com/they4kman/experimentation/machine-learning/genetic-programming/genprog"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	g "github.com/AllenDang/giu"
)

type colorThreshold struct {
	threshold float64
	color     color.RGBA
}

var headerFont *g.FontInfo

// Colors of island champions by score, 1 / (1 + error sum)
var scoreColorThresholds = []colorThreshold{
	{0.0, color.RGBA{R: 255, A: 255}},
	{0.1, color.RGBA{R: 255, G: 128, A: 255}},
	{0.5, color.RGBA{R: 255, G: 255, A: 255}},
	{0.99, color.RGBA{G: 179, A: 255}},
	{1.0, color.RGBA{G: 255, A: 255}},
}

var numPrinter = message.NewPrinter(language.English)

func initFont() {
	headerFont = g.AddFontFromBytes("gomono.ttf", gomono.TTF, 20)
	g.SetDefaultFontFromBytes(gomono.TTF, 12)
}

func score(e *genprog.FitnessEvaluation) float64 {
	errorSum, _ := e.ErrorSum().Float64()
	if math.IsInf(errorSum, 0) {
		return 0
	}
	return 1 / (1 + errorSum)
}

// scoreColor interpolates between the colors of the thresholds around s
func scoreColor(s float64) color.Color {
	i := sort.Search(len(scoreColorThresholds), func(i int) bool {
		return scoreColorThresholds[i].threshold >= s
	})
	if i >= len(scoreColorThresholds) {
		return scoreColorThresholds[len(scoreColorThresholds)-1].color
	}
	if i == 0 {
		return scoreColorThresholds[0].color
	}

	from, to := scoreColorThresholds[i-1], scoreColorThresholds[i]
	distance := (s - from.threshold) / (to.threshold - from.threshold)
	interpolate := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*distance)
	}
	return color.RGBA{
		R: interpolate(from.color.R, to.color.R),
		G: interpolate(from.color.G, to.color.G),
		B: interpolate(from.color.B, to.color.B),
		A: 255,
	}
}

func renderIsland(island *genprog.Island) g.Widget {
	best, simplified := island.Best()
	generation, offspring := island.Progress()
	if best == nil {
		return g.Label(fmt.Sprintf("Island %d: growing", island.Index()))
	}

	c := scoreColor(score(best))
	return g.Row(
		g.Label(numPrinter.Sprintf("Island %2d  gen %6d  offspring %10d", island.Index(), generation, offspring)),
		g.Style().SetColor(g.StyleColorText, c).To(
			g.Label(numPrinter.Sprintf("%14s", best.ErrorSum().Text('g', 6))),
		),
		g.Style().SetColor(g.StyleColorText, c).To(
			g.Label(simplified.Program().String()),
		),
	)
}

func guiMain(ctx context.Context, params *genprog.SimulationParams, problem *genprog.Problem) error {
	var mu sync.Mutex
	var sim *genprog.Simulation
	var cancel context.CancelFunc

	start := func() error {
		next, err := genprog.NewSimulation(params, problem)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if cancel != nil {
			cancel()
		}
		var simCtx context.Context
		simCtx, cancel = context.WithCancel(ctx)
		sim = next
		go func() {
			if champion, _ := next.Solve(simCtx); champion != nil && champion.Solved(params.SolvedThreshold) {
				fmt.Printf("SOLVED: %s\n", champion.Program())
			}
		}()
		return nil
	}
	current := func() *genprog.Simulation {
		mu.Lock()
		defer mu.Unlock()
		return sim
	}

	if err := start(); err != nil {
		return err
	}

	loop := func() {
		sim := current()
		islands := make([]g.Widget, 0, len(sim.Islands()))
		for _, island := range sim.Islands() {
			islands = append(islands, renderIsland(island))
		}

		g.SingleWindow().Layout(
			g.Style().SetFont(headerFont).To(
				g.Custom(func() {
					champion, simplified := sim.Champion()
					if champion == nil {
						g.Label("Growing initial populations").Build()
						return
					}
					equalityOp := "≈"
					if sim.Solved() {
						equalityOp = "="
					}
					g.Align(g.AlignLeft).To(
						g.Label(numPrinter.Sprintf("f(X) %s %s", equalityOp, simplified.Program())),
					).Build()
				}),
			),
			g.Column(islands...),
		)
	}

	go func() {
		guiTick := time.NewTicker(250 * time.Millisecond)
		defer guiTick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-guiTick.C:
				g.Update()
			}
		}
	}()

	initFont()

	wnd := g.NewMasterWindow("Genetic Programming", 1600, len(current().Islands())*20+100, 0)

	// Avoid "Too many vertices in ImDrawList using 16-bit indices" assertion
	g.Context.IO().SetBackendFlags(imgui.BackendFlagsRendererHasVtxOffset)

	wnd.RegisterKeyboardShortcuts(
		g.WindowShortcut{Key: g.KeyEnter, Modifier: 0, Callback: func() {
			// Restarts never repeat the previous run
			params.Seed = 0
			if err := start(); err != nil {
				fmt.Printf("restarting: %v\n", err)
			}
		}},
	)
	wnd.Run(loop)

	mu.Lock()
	cancel()
	mu.Unlock()
	return nil
}
