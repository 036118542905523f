package genprog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/PaesslerAG/gval"
)

// Target is one training case: inputs and, when known, the expected result
type Target struct {
	Inputs   []float64
	Expected *float64
}

// Problem is the training data a Program is evolved against
type Problem struct {
	VarCount int
	Targets  []Target
}

// ReadProblem loads a problem from a file; see ParseProblem for the format
func ReadProblem(path string) (*Problem, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading problem: %w", err)
	}
	problem, err := ParseProblem(string(text))
	if err != nil {
		return nil, fmt.Errorf("parsing problem %s: %w", path, err)
	}
	return problem, nil
}

// ParseProblem parses the text form of a problem. The first line holds the number of inputs; every further
// non-empty line holds that many input values followed by the expected result, or "?" if it is unknown.
func ParseProblem(text string) (*Problem, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	if !scanner.Scan() {
		return nil, fmt.Errorf("missing number of inputs")
	}
	header := strings.Fields(scanner.Text())
	if len(header) == 0 {
		return nil, fmt.Errorf("missing number of inputs")
	}
	varCount, err := strconv.Atoi(header[0])
	if err != nil || varCount < 0 {
		return nil, fmt.Errorf("malformed number of inputs %q", header[0])
	}

	problem := &Problem{VarCount: varCount}
	for line := 2; scanner.Scan(); line++ {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != varCount+1 {
			return nil, fmt.Errorf("line %d: expected %d values, found %d", line, varCount+1, len(fields))
		}

		target := Target{Inputs: make([]float64, varCount)}
		for i, field := range fields[:varCount] {
			if target.Inputs[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		if expected := fields[varCount]; expected != "?" {
			v, err := strconv.ParseFloat(expected, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			target.Expected = &v
		}
		problem.Targets = append(problem.Targets, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading problem: %w", err)
	}
	return problem, nil
}

// String prints the problem in the form understood by ParseProblem
func (p *Problem) String() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d\n", p.VarCount)
	for _, target := range p.Targets {
		for _, input := range target.Inputs {
			buf.WriteString(strconv.FormatFloat(input, 'g', -1, 64))
			buf.WriteByte(' ')
		}
		if target.Expected == nil {
			buf.WriteString("?")
		} else {
			buf.WriteString(strconv.FormatFloat(*target.Expected, 'g', -1, 64))
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// FormulaLanguage evaluates the formulas SynthesizeProblem computes expected results with.
// Inputs are named X0, X1 and so on.
var FormulaLanguage = gval.NewLanguage(
	gval.Arithmetic(),
	gval.PrefixOperator("+", func(c context.Context, parameter interface{}) (interface{}, error) {
		p, isFloat := parameter.(float64)
		if !isFloat {
			return nil, fmt.Errorf("expected float, got: %v", parameter)
		}

		return +p, nil
	}),
)

// SynthesizeProblem builds a problem whose expected results are those of formula over each of the inputs
func SynthesizeProblem(formula string, varCount int, inputs [][]float64) (*Problem, error) {
	evaluable, err := FormulaLanguage.NewEvaluable(formula)
	if err != nil {
		return nil, fmt.Errorf("parsing formula %q: %w", formula, err)
	}

	problem := &Problem{VarCount: varCount}
	for _, row := range inputs {
		if len(row) != varCount {
			return nil, fmt.Errorf("expected %d inputs, got %d", varCount, len(row))
		}
		parameters := make(map[string]interface{}, varCount)
		for i, v := range row {
			parameters[fmt.Sprintf("X%d", i)] = v
		}
		expected, err := evaluable.EvalFloat64(context.Background(), parameters)
		if err != nil {
			return nil, fmt.Errorf("evaluating formula %q on %v: %w", formula, row, err)
		}
		problem.Targets = append(problem.Targets, Target{Inputs: row, Expected: &expected})
	}
	return problem, nil
}

// GridInputs returns every combination of inputs taking the values from, from+step, ... up to to
func GridInputs(varCount int, from, to, step float64) [][]float64 {
	var values []float64
	for v := from; v <= to; v += step {
		values = append(values, v)
	}

	grid := [][]float64{{}}
	for i := 0; i < varCount; i++ {
		var extended [][]float64
		for _, prefix := range grid {
			for _, v := range values {
				extended = append(extended, append(append([]float64(nil), prefix...), v))
			}
		}
		grid = extended
	}
	return grid
}
