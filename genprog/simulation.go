package genprog

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numPrinter = message.NewPrinter(language.English)

type SimulationParams struct {
	// Depth of the programs of the initial populations
	Depth int

	// Number of programs on each island
	PopulationSize int

	// Number of competitors drawn in a tournament, in addition to the first
	TournamentSize int

	// Probability an offspring is bred by crossover of two parents rather than mutation of one
	CrossoverRate float64

	// Probability each instruction of a parent is mutated
	MutationRatePerNode float64

	// Probability a good program of an island is sent off to the others whenever an offspring is bred
	MigrationRate float64

	// Number of emigrants an island holds before it stops sending more
	MigrationQueueSize int

	// Number of islands evolving in parallel. Set to -1 to use one per CPU.
	NumIslands int

	// A program solves the problem when its error sum falls below this
	SolvedThreshold float64

	// Symbols programs are built from
	Language SymbolSet

	// Precision of the floating point numbers error sums are accumulated in
	FloatPrecision uint

	// Maximum number of evaluation steps per target, bounding loops. Set to 0 for no bound.
	MaxTicks int

	// Number of simplified champions each island remembers
	SimplificationCacheSize int

	// Seed of the random number generators of the islands. Set to 0 to seed from the clock.
	Seed int64

	Logger *zap.Logger
}

func DefaultSimulationParams() *SimulationParams {
	return &SimulationParams{
		Depth:          5,
		PopulationSize: 1000,
		TournamentSize: 2,

		CrossoverRate:       0.9,
		MutationRatePerNode: 0.05,

		MigrationRate:      0.1,
		MigrationQueueSize: 10,
		NumIslands:         -1,

		SolvedThreshold: 1e-5,
		Language:        DefaultLanguage,
		FloatPrecision:  128,
		MaxTicks:        100000,

		SimplificationCacheSize: 1024,
	}
}

// Validate reports the first parameter that makes a Simulation impossible to run
func (params *SimulationParams) Validate() error {
	switch {
	case params.Depth < 0:
		return fmt.Errorf("depth must not be negative, got %d", params.Depth)
	case params.PopulationSize <= 0:
		return fmt.Errorf("population size must be positive, got %d", params.PopulationSize)
	case params.TournamentSize <= 0:
		return fmt.Errorf("tournament size must be positive, got %d", params.TournamentSize)
	case params.MutationRatePerNode <= 0:
		return fmt.Errorf("mutation rate must be positive, got %v", params.MutationRatePerNode)
	case params.MigrationQueueSize < 0:
		return fmt.Errorf("migration queue size must not be negative, got %d", params.MigrationQueueSize)
	case params.NumIslands == 0 || params.NumIslands < -1:
		return fmt.Errorf("number of islands must be positive or -1, got %d", params.NumIslands)
	case params.SimplificationCacheSize <= 0:
		return fmt.Errorf("simplification cache size must be positive, got %d", params.SimplificationCacheSize)
	}
	return nil
}

// Simulation evolves programs solving a Problem on islands running in parallel, which exchange programs
// through their migration queues
type Simulation struct {
	params  SimulationParams
	problem *Problem
	log     *zap.Logger
	islands []*Island

	mu         sync.Mutex
	champion   *FitnessEvaluation
	simplified *FitnessEvaluation
}

func NewSimulation(params *SimulationParams, problem *Problem) (*Simulation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !growable(params.Language, problem.VarCount) {
		return nil, fmt.Errorf("language %v has no leaf symbol to grow programs with %d inputs", params.Language, problem.VarCount)
	}

	sim := &Simulation{
		params:  *params,
		problem: problem,
		log:     params.Logger,
	}
	if sim.log == nil {
		sim.log = zap.NewNop()
	}
	if sim.params.NumIslands == -1 {
		sim.params.NumIslands = runtime.GOMAXPROCS(0)
	}

	seed := sim.params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	seeds := rand.New(rand.NewSource(seed))

	sim.islands = make([]*Island, sim.params.NumIslands)
	for i := range sim.islands {
		island, err := newIsland(sim, i, rand.New(rand.NewSource(seeds.Int63())))
		if err != nil {
			return nil, err
		}
		sim.islands[i] = island
	}
	return sim, nil
}

func (sim *Simulation) Params() *SimulationParams {
	params := sim.params
	return &params
}

func (sim *Simulation) Problem() *Problem {
	return sim.problem
}

func (sim *Simulation) Islands() []*Island {
	return sim.islands
}

// Champion returns the best program found on any island so far, along with its simplified form
func (sim *Simulation) Champion() (champion, simplified *FitnessEvaluation) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	return sim.champion, sim.simplified
}

func (sim *Simulation) offerChampion(champion, simplified *FitnessEvaluation) {
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.champion == nil || champion.BetterThan(sim.champion) {
		sim.champion, sim.simplified = champion, simplified
	}
}

// Solved reports whether any island found a program solving the problem
func (sim *Simulation) Solved() bool {
	champion, _ := sim.Champion()
	return champion != nil && champion.Solved(sim.params.SolvedThreshold)
}

// Solve evolves all islands until one of them solves the problem or ctx is done, returning the champion
func (sim *Simulation) Solve(ctx context.Context) (*FitnessEvaluation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	for _, island := range sim.islands {
		island := island
		eg.Go(func() error {
			if island.Evolve(ctx) {
				cancel()
			}
			return nil
		})
	}
	err := eg.Wait()

	champion, _ := sim.Champion()
	return champion, err
}

// Run solves the problem, printing status to the console periodically
func (sim *Simulation) Run(ctx context.Context) error {
	fmt.Printf("Solving for %s targets with %d islands of %s programs\n\n",
		numPrinter.Sprint(len(sim.problem.Targets)), len(sim.islands), numPrinter.Sprint(sim.params.PopulationSize))

	startedAt := time.Now()
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				sim.printStatus()
			}
		}
	}()

	champion, err := sim.Solve(ctx)
	close(done)
	if err != nil {
		return err
	}

	elapsed := time.Since(startedAt)
	if champion != nil && champion.Solved(sim.params.SolvedThreshold) {
		fmt.Print("SOLVED\n\n")
	} else {
		fmt.Print("Not solved\n\n")
	}
	sim.printStatus()
	fmt.Printf("Elapsed time: %s\n", elapsed)
	return nil
}

func (sim *Simulation) printStatus() {
	champion, simplified := sim.Champion()
	if champion == nil {
		return
	}

	var generations, offspring uint64
	for _, island := range sim.islands {
		generation, bred := island.Progress()
		generations += generation
		offspring += bred
	}
	fmt.Print(numPrinter.Sprintf("Generations: %d, offspring: %d\n", generations, offspring))
	fmt.Printf("Best program: %s\n", champion.Program())
	fmt.Printf("Simplified:   %s\n", simplified.Program())
	fmt.Printf("Error sum:    %s\n\n", champion.ErrorSum().Text('g', 10))
}

// growable reports whether programs can be grown from language
func growable(language SymbolSet, varCount int) bool {
	for _, s := range language.Symbols() {
		if s.IsLeaf() && (s != InputArgument || varCount > 0) {
			return true
		}
	}
	return false
}
