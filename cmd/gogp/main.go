package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/shopspring/decimal"
	"github.com/they4kman/experimentation/machine-learning/genetic-programming/genprog"
	"go.uber.org/zap"
)

// SymbolSetValue is a flag.Value for a comma separated list of symbols
type SymbolSetValue struct {
	set *genprog.SymbolSet
}

func (v SymbolSetValue) String() string {
	if v.set != nil {
		return v.set.String()
	} else {
		return ""
	}
}

func (v SymbolSetValue) Set(s string) error {
	set, err := genprog.ParseSymbolSet(s)
	if err != nil {
		return err
	}

	*v.set = set
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gogp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	params := genprog.DefaultSimulationParams()

	problemPath := ""
	formula := ""
	gridFrom, gridTo, gridStep := -5.0, 5.0, 1.0
	varCount := 1
	simplifyExpr := ""
	evalExpr := ""
	trace := false
	useGui := false
	verbose := false

	flag.StringVar(&problemPath, "problem", "", "File holding the problem to solve")
	flag.StringVar(&formula, "formula", "", "Synthesize the problem from a formula over X0, X1, ... instead of reading it from a file")
	flag.IntVar(&varCount, "vars", varCount, "Number of inputs of a synthesized problem")
	flag.Float64Var(&gridFrom, "from", gridFrom, "Smallest input value of a synthesized problem")
	flag.Float64Var(&gridTo, "to", gridTo, "Largest input value of a synthesized problem")
	flag.Float64Var(&gridStep, "step", gridStep, "Distance between input values of a synthesized problem")

	flag.StringVar(&simplifyExpr, "simplify", "", "Print the simplified form of a program and exit")
	flag.StringVar(&evalExpr, "eval", "", "Evaluate a program on every target of the problem and exit")
	flag.BoolVar(&trace, "trace", false, "With -eval, print every node as it completes evaluation")
	flag.BoolVar(&useGui, "gui", false, "Use the GUI")
	flag.BoolVar(&verbose, "verbose", false, "Log the progress of every island, and every rewrite with -simplify")

	flag.IntVar(&params.Depth, "depth", params.Depth, "Depth of the programs of the initial populations")
	flag.IntVar(&params.PopulationSize, "population-size", params.PopulationSize, "Number of programs on each island")
	flag.IntVar(&params.TournamentSize, "tournament-size", params.TournamentSize, "Number of competitors in a tournament")
	flag.Float64Var(&params.CrossoverRate, "crossover-rate", params.CrossoverRate, "Rate at which offspring are bred by crossover rather than mutation")
	flag.Float64Var(&params.MutationRatePerNode, "mutation-rate", params.MutationRatePerNode, "Rate at which each instruction of a mutated program changes")
	flag.Float64Var(&params.MigrationRate, "migration-rate", params.MigrationRate, "Rate at which programs migrate to other islands")
	flag.IntVar(&params.MigrationQueueSize, "migration-queue-size", params.MigrationQueueSize, "Number of emigrants an island holds")
	flag.IntVar(&params.NumIslands, "islands", params.NumIslands, "Number of islands evolving in parallel. Set to -1 to use one per CPU.")
	flag.Float64Var(&params.SolvedThreshold, "solved-threshold", params.SolvedThreshold, "Error sum below which the problem is solved")
	flag.UintVar(&params.FloatPrecision, "precision", params.FloatPrecision, "Precision error sums are accumulated in")
	flag.IntVar(&params.MaxTicks, "max-ticks", params.MaxTicks, "Maximum number of evaluation steps per target. Set to 0 for no bound.")
	flag.IntVar(&params.SimplificationCacheSize, "simplification-cache-size", params.SimplificationCacheSize, "Number of simplified champions each island remembers")
	flag.Int64Var(&params.Seed, "seed", 0, "Seed of the random number generators. A seed from the clock is used if 0.")
	flag.Var(SymbolSetValue{&params.Language}, "language", "Comma separated list of the symbols programs are built from")

	flag.Parse()

	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
		defer logger.Sync()
	}
	params.Logger = logger

	if simplifyExpr != "" {
		program, err := genprog.Parse(simplifyExpr, 0)
		if err != nil {
			return err
		}
		fmt.Println(program.SimplifyLogged(logger))
		return nil
	}

	if problemPath == "" && flag.NArg() > 0 {
		problemPath = flag.Arg(0)
	}
	problem, err := loadProblem(problemPath, formula, varCount, gridFrom, gridTo, gridStep)
	if err != nil {
		return err
	}

	if evalExpr != "" {
		program, err := genprog.Parse(evalExpr, problem.VarCount)
		if err != nil {
			return err
		}
		printResults(program, problem, params.MaxTicks, trace)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if useGui {
		return guiMain(ctx, params, problem)
	}

	sim, err := genprog.NewSimulation(params, problem)
	if err != nil {
		return err
	}
	if err := sim.Run(ctx); err != nil {
		return err
	}

	if champion, _ := sim.Champion(); champion != nil {
		printResults(champion.Program(), problem, params.MaxTicks, false)
	}
	return nil
}

func loadProblem(path, formula string, varCount int, from, to, step float64) (*genprog.Problem, error) {
	switch {
	case formula != "":
		if step <= 0 {
			return nil, fmt.Errorf("step must be positive, got %v", step)
		}
		return genprog.SynthesizeProblem(formula, varCount, genprog.GridInputs(varCount, from, to, step))
	case path != "":
		return genprog.ReadProblem(path)
	}
	return nil, fmt.Errorf("either a problem file or -formula is required")
}

func printResults(program *genprog.Program, problem *genprog.Problem, maxTicks int, trace bool) {
	fmt.Println(program)
	for _, target := range problem.Targets {
		var result decimal.Decimal
		completed := true
		switch {
		case trace:
			result = program.Trace(target.Inputs, func(node *genprog.CallTree) {
				fmt.Printf("  %s = %v\n", node.Format(program.Constants()), node.Result())
			})
		case maxTicks > 0:
			result, completed = program.EvaluateBudget(target.Inputs, maxTicks)
		default:
			result = program.Evaluate(target.Inputs)
		}
		if !completed {
			fmt.Printf("%v did not complete within %d ticks, or went out of range\n", target.Inputs, maxTicks)
			continue
		}

		expected := "?"
		if target.Expected != nil {
			expected = fmt.Sprint(*target.Expected)
		}
		fmt.Printf("%v = %v expected result = %s\n", target.Inputs, result, expected)
	}
}
