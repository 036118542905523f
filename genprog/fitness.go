package genprog

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Results closer than this are considered equal
const resultTolerance = 1e-5

// FitnessEvaluation holds the results of a Program on every target of a Problem, and the sum of its
// absolute errors on the targets with a known expected result
type FitnessEvaluation struct {
	program *Program
	problem *Problem

	results  []decimal.Decimal
	errorSum *big.Float
}

// Evaluate runs program on every target of problem. The error sum is kept at the given precision.
// Runs that do not complete within maxTicks ticks (if positive), or go out of range, count as an infinite error.
func Evaluate(program *Program, problem *Problem, precision uint, maxTicks int) *FitnessEvaluation {
	e := &FitnessEvaluation{
		program:  program,
		problem:  problem,
		results:  make([]decimal.Decimal, len(problem.Targets)),
		errorSum: new(big.Float).SetPrec(precision),
	}

	// Reused for every term to avoid temporary allocations
	term := new(big.Float).SetPrec(precision)
	for i, target := range problem.Targets {
		result, ok := e.run(target.Inputs, maxTicks)
		e.results[i] = result
		if target.Expected == nil {
			continue
		}

		expected := *target.Expected
		switch {
		case !ok || math.IsNaN(expected) || math.IsInf(expected, 0):
			e.errorSum.SetInf(false)
		case !e.errorSum.IsInf():
			difference := result.Sub(decimal.NewFromFloat(expected)).Abs()
			if _, parsed := term.SetString(difference.String()); !parsed {
				panic(fmt.Errorf("malformed decimal %v", difference))
			}
			e.errorSum.Add(e.errorSum, term)
		}
	}
	return e
}

func (e *FitnessEvaluation) run(inputs []float64, maxTicks int) (decimal.Decimal, bool) {
	if maxTicks > 0 {
		return e.program.EvaluateBudget(inputs, maxTicks)
	}
	state := NewRuntimeState(decimals(inputs))
	result := e.program.Decode().Run(state, e.program.constants)
	return result, !state.Overflowed()
}

func (e *FitnessEvaluation) Program() *Program {
	return e.program
}

func (e *FitnessEvaluation) Problem() *Problem {
	return e.problem
}

// Results are the results of the program on each target, in order
func (e *FitnessEvaluation) Results() []decimal.Decimal {
	return e.results
}

func (e *FitnessEvaluation) ErrorSum() *big.Float {
	return e.errorSum
}

// Solved reports whether the error sum is below threshold
func (e *FitnessEvaluation) Solved(threshold float64) bool {
	return e.errorSum.Cmp(big.NewFloat(threshold)) < 0
}

// compare orders evaluations by error sum, then by code length
func (e *FitnessEvaluation) compare(other *FitnessEvaluation) int {
	if c := e.errorSum.Cmp(other.errorSum); c != 0 {
		return c
	}
	switch {
	case e.program.Len() < other.program.Len():
		return -1
	case e.program.Len() > other.program.Len():
		return 1
	}
	return 0
}

func (e *FitnessEvaluation) BetterThan(other *FitnessEvaluation) bool {
	return e.compare(other) < 0
}

func (e *FitnessEvaluation) WorseThan(other *FitnessEvaluation) bool {
	return e.compare(other) > 0
}

// EqualResults reports whether both evaluations have the same error sum and results, within a tolerance
func (e *FitnessEvaluation) EqualResults(other *FitnessEvaluation) bool {
	if e.errorSum.IsInf() || other.errorSum.IsInf() {
		if e.errorSum.Cmp(other.errorSum) != 0 {
			return false
		}
	} else {
		difference := new(big.Float).Sub(e.errorSum, other.errorSum)
		if difference.Abs(difference).Cmp(big.NewFloat(resultTolerance)) > 0 {
			return false
		}
	}

	if len(e.results) != len(other.results) {
		return false
	}
	tolerance := decimal.NewFromFloat(resultTolerance).Mul(decimal.NewFromInt(int64(len(e.results))))
	for i, result := range e.results {
		if result.Sub(other.results[i]).Abs().GreaterThan(tolerance) {
			return false
		}
	}
	return true
}
