package genprog

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// Island is one population of a Simulation, evolved by a single goroutine
type Island struct {
	index int
	sim   *Simulation
	rng   *rand.Rand
	log   *zap.Logger

	population []*FitnessEvaluation

	// Emigrants waiting to be taken in by another island
	emigrants chan *FitnessEvaluation

	// Simplified forms of champions, keyed by code
	simplified *lru.Cache

	mu             sync.Mutex
	best           *FitnessEvaluation
	bestSimplified *FitnessEvaluation
	generation     uint64
	offspring      uint64
}

func newIsland(sim *Simulation, index int, rng *rand.Rand) (*Island, error) {
	cache, err := lru.New(sim.params.SimplificationCacheSize)
	if err != nil {
		return nil, err
	}
	return &Island{
		index:      index,
		sim:        sim,
		rng:        rng,
		log:        sim.log.With(zap.Int("island", index)),
		emigrants:  make(chan *FitnessEvaluation, sim.params.MigrationQueueSize),
		simplified: cache,
	}, nil
}

func (island *Island) Index() int {
	return island.index
}

// Best returns the best program of the island so far, along with its simplified form
func (island *Island) Best() (best, simplified *FitnessEvaluation) {
	island.mu.Lock()
	defer island.mu.Unlock()
	return island.best, island.bestSimplified
}

// Progress returns the current generation and the number of offspring bred so far
func (island *Island) Progress() (generation, offspring uint64) {
	island.mu.Lock()
	defer island.mu.Unlock()
	return island.generation, island.offspring
}

func (island *Island) solved() bool {
	best, _ := island.Best()
	return best != nil && best.Solved(island.sim.params.SolvedThreshold)
}

func (island *Island) evaluate(program *Program) *FitnessEvaluation {
	params := island.sim.params
	return Evaluate(program, island.sim.problem, params.FloatPrecision, params.MaxTicks)
}

// Evolve grows the initial population and breeds offspring until the problem is solved or ctx is done.
// It reports whether this island solved the problem.
func (island *Island) Evolve(ctx context.Context) bool {
	params := island.sim.params
	island.log.Info("creating initial population")
	for len(island.population) < params.PopulationSize && !island.solved() && ctx.Err() == nil {
		program := Grow(island.rng, params.Depth, island.sim.problem.VarCount, params.Language)
		e := island.evaluate(program)
		island.population = append(island.population, e)
		island.onFitness(e)
	}

	island.log.Info("commencing evolution")
	for !island.solved() && ctx.Err() == nil && len(island.population) > 0 {
		for i := 0; i < params.PopulationSize && !island.solved() && ctx.Err() == nil; i++ {
			island.breed()
		}

		island.mu.Lock()
		island.generation++
		island.mu.Unlock()
	}

	solved := island.solved()
	island.log.Info("finishing evolution", zap.Bool("solved", solved))
	return solved
}

// breed replaces a program of the population with an immigrant or a new offspring
func (island *Island) breed() {
	params := island.sim.params
	replaced := -1

	offspring := island.immigrant()
	if offspring == nil {
		var program *Program
		if island.rng.Float64() < params.CrossoverRate {
			parent := island.population[island.tournament()]
			donor := island.population[island.tournament()]
			program = parent.program.Crossover(island.rng, donor.program)
		} else {
			parent := island.population[island.tournament()]
			program = parent.program.Mutate(island.rng, params.MutationRatePerNode)
		}
		offspring = island.evaluate(program)

		if island.rng.Float64() < params.MigrationRate {
			// A good program moves out, making room for the offspring
			emigrant := island.tournament()
			select {
			case island.emigrants <- island.population[emigrant]:
				island.log.Debug("emigrating", zap.Stringer("program", island.population[emigrant].program))
				replaced = emigrant
			default:
			}
		}
	}

	if replaced < 0 {
		replaced = island.negativeTournament(offspring)
	}
	island.population[replaced] = offspring
	island.onFitness(offspring)

	island.mu.Lock()
	island.offspring++
	island.mu.Unlock()
}

// immigrant takes a program from the queue of a random other island, if it has any
func (island *Island) immigrant() *FitnessEvaluation {
	islands := island.sim.islands
	other := islands[island.rng.Intn(len(islands))]
	if other == island {
		return nil
	}
	select {
	case e := <-other.emigrants:
		island.log.Debug("immigrating", zap.Int("from", other.index))
		return e
	default:
		return nil
	}
}

// tournament returns the index of the best of a few random programs of the population
func (island *Island) tournament() int {
	population := island.population
	index := island.rng.Intn(len(population))
	for i := 0; i < island.sim.params.TournamentSize; i++ {
		competitor := island.rng.Intn(len(population))
		if population[competitor].BetterThan(population[index]) {
			index = competitor
		}
	}
	return index
}

// negativeTournament returns the index of the worst of a few random programs of the population. While all
// competitors are better than offspring, it keeps drawing more of them.
func (island *Island) negativeTournament(offspring *FitnessEvaluation) int {
	population := island.population
	size := island.sim.params.TournamentSize
	index := island.rng.Intn(len(population))
	betterThanOffspring := true
	for i := 0; i < size || (betterThanOffspring && i < size*size); i++ {
		competitor := island.rng.Intn(len(population))
		if population[competitor].WorseThan(population[index]) {
			index = competitor
		}
		if population[competitor].WorseThan(offspring) {
			betterThanOffspring = false
		}
	}
	return index
}

func (island *Island) onFitness(e *FitnessEvaluation) {
	best, _ := island.Best()
	if best != nil && !e.BetterThan(best) {
		return
	}

	simplified := island.simplify(e)
	island.mu.Lock()
	island.best, island.bestSimplified = e, simplified
	island.mu.Unlock()
	island.sim.offerChampion(e, simplified)

	island.log.Info("new best",
		zap.Stringer("program", simplified.program),
		zap.String("errorSum", e.errorSum.Text('g', 10)),
		zap.Int("length", e.program.Len()))
	if e.Solved(island.sim.params.SolvedThreshold) {
		island.log.Info("problem solved", zap.Stringer("program", simplified.program))
	}
}

// simplify returns the evaluation of the simplified form of e's program, or e itself if simplification
// changed the results
func (island *Island) simplify(e *FitnessEvaluation) *FitnessEvaluation {
	key := codeKey(e.program)
	if cached, ok := island.simplified.Get(key); ok {
		return cached.(*FitnessEvaluation)
	}

	simplified := island.evaluate(e.program.Simplify())
	if !e.EqualResults(simplified) {
		island.log.Warn("simplification rendered another program",
			zap.Stringer("program", e.program),
			zap.Stringer("simplified", simplified.program),
			zap.String("errorSum", e.errorSum.Text('g', 10)),
			zap.String("simplifiedErrorSum", simplified.errorSum.Text('g', 10)))
		simplified = e
	}
	island.simplified.Add(key, simplified)
	return simplified
}

// codeKey identifies a program by its code and the values of its literals
func codeKey(p *Program) string {
	var buf strings.Builder
	buf.WriteString(strconv.Itoa(p.varCount))
	for _, instruction := range p.code {
		buf.WriteByte(',')
		switch symbol, qualifier := Decode(p.varCount, instruction); symbol {
		case IntegerLiteral, DoubleLiteral:
			buf.WriteString(symbol.String())
			buf.WriteString(strconv.FormatFloat(p.constants.Value(symbol, qualifier), 'g', -1, 64))
		default:
			buf.WriteString(strconv.Itoa(instruction))
		}
	}
	return buf.String()
}
