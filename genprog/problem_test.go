package genprog

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
)

func expected(v float64) *float64 {
	return &v
}

var _ = Describe("Problem", func() {
	const text = "2\n1 2 3\n\n4 5 ?\n"

	It("parses targets", func() {
		problem, err := ParseProblem(text)
		Expect(err).ToNot(HaveOccurred())
		Expect(problem.VarCount).To(Equal(2))
		Expect(problem.Targets).To(HaveLen(2))
		Expect(problem.Targets[0]).To(MatchFields(IgnoreExtras, Fields{
			"Inputs":   Equal([]float64{1, 2}),
			"Expected": PointTo(Equal(3.0)),
		}))
		Expect(problem.Targets[1]).To(MatchFields(IgnoreExtras, Fields{
			"Inputs":   Equal([]float64{4, 5}),
			"Expected": BeNil(),
		}))
		Expect(problem.String()).To(Equal("2\n1 2 3\n4 5 ?\n"))
	})

	It("rejects malformed problems", func() {
		for _, malformed := range []string{"", "x\n", "2\n1 2\n", "1\n1 a\n", "1\nb 2\n"} {
			_, err := ParseProblem(malformed)
			Expect(err).To(HaveOccurred(), "%q", malformed)
		}
	})

	It("reads problems from files", func() {
		dir, err := os.MkdirTemp("", "genprog")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)

		path := filepath.Join(dir, "problem.txt")
		Expect(os.WriteFile(path, []byte(text), 0o644)).To(Succeed())
		problem, err := ReadProblem(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(problem.Targets).To(HaveLen(2))

		_, err = ReadProblem(filepath.Join(dir, "missing.txt"))
		Expect(err).To(HaveOccurred())
	})

	It("synthesizes expected results from a formula", func() {
		problem, err := SynthesizeProblem("X0 * 2 + X1", 2, [][]float64{{1, 1}, {2, -3}})
		Expect(err).ToNot(HaveOccurred())
		Expect(*problem.Targets[0].Expected).To(Equal(3.0))
		Expect(*problem.Targets[1].Expected).To(Equal(1.0))

		_, err = SynthesizeProblem("X0 *", 1, [][]float64{{1}})
		Expect(err).To(HaveOccurred())
		_, err = SynthesizeProblem("X0", 1, [][]float64{{1, 2}})
		Expect(err).To(HaveOccurred())
	})

	It("spans grids of inputs", func() {
		Expect(GridInputs(2, 0, 1, 1)).To(Equal([][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}))
		Expect(GridInputs(1, -1, 1, 0.5)).To(HaveLen(5))
		Expect(GridInputs(0, 0, 1, 1)).To(Equal([][]float64{{}}))
	})

	It("agrees with the formula language on random arithmetic", func() {
		rng := rand.New(rand.NewSource(5))
		language := NewSymbolSet(Add, Sub, Mul, InputArgument, IntegerLiteral)
		inputs := GridInputs(2, -2, 2, 1)
		for i := 0; i < 100; i++ {
			program := Grow(rng, 1+rng.Intn(4), 2, language)
			problem, err := SynthesizeProblem(program.String(), 2, inputs)
			Expect(err).ToNot(HaveOccurred(), program.String())

			for _, target := range problem.Targets {
				result, ok := program.EvaluateBudget(target.Inputs, 1000)
				if !ok {
					continue
				}
				expected := *target.Expected
				Expect(result.InexactFloat64()).To(BeNumerically("~", expected, 1e-9*math.Max(1, math.Abs(expected))),
					"%s on %v", program, target.Inputs)
			}
		}
	})
})

var _ = Describe("FitnessEvaluation", func() {
	var problem *Problem

	BeforeEach(func() {
		problem = &Problem{VarCount: 1, Targets: []Target{
			{Inputs: []float64{1}, Expected: expected(2)},
			{Inputs: []float64{-2}, Expected: expected(-4)},
			{Inputs: []float64{3}},
		}}
	})

	It("sums absolute errors of targets with known results", func() {
		e := Evaluate(mustParse("X0", 1), problem, 128, 0)
		Expect(e.Results()).To(HaveLen(3))
		Expect(e.Results()[0]).To(equalValue(1))
		Expect(e.Results()[1]).To(equalValue(-2))
		Expect(e.Results()[2]).To(equalValue(3))
		errorSum, _ := e.ErrorSum().Float64()
		Expect(errorSum).To(Equal(3.0))
		Expect(e.ErrorSum().Prec()).To(Equal(uint(128)))
		Expect(e.Solved(1e-5)).To(BeFalse())

		e = Evaluate(mustParse("(2 * X0)", 1), problem, 128, 0)
		Expect(e.ErrorSum().Sign()).To(BeZero())
		Expect(e.Solved(1e-5)).To(BeTrue())
	})

	It("makes errors of runaway programs infinite", func() {
		e := Evaluate(mustParse("(WHILE 1 DO X0)", 1), problem, 128, 10)
		Expect(e.ErrorSum().IsInf()).To(BeTrue())
		Expect(e.Solved(1e-5)).To(BeFalse())
	})

	It("makes errors of programs going out of range infinite", func() {
		program := mustParse("((Y0:=(X0 * 1000000000))=>(((Y0 * Y0) * Y0) * Y0))", 1)
		Expect(Evaluate(program, problem, 128, 0).ErrorSum().IsInf()).To(BeTrue())
		Expect(Evaluate(program, problem, 128, 100).ErrorSum().IsInf()).To(BeTrue())
	})

	It("sums errors exactly", func() {
		problem := &Problem{VarCount: 0, Targets: []Target{{Expected: expected(0.3)}, {Expected: expected(0.3)}}}
		e := Evaluate(mustParse("(0.1 + 0.2)", 0), problem, 128, 0)
		Expect(e.ErrorSum().Sign()).To(BeZero())
		Expect(e.Results()[0]).To(equalValue("0.3"))
	})

	It("prefers smaller errors, then shorter programs", func() {
		exact := Evaluate(mustParse("(2 * X0)", 1), problem, 128, 0)
		longer := Evaluate(mustParse("(X0 + X0)", 1), problem, 128, 0)
		padded := Evaluate(mustParse("((X0 + X0) + 0)", 1), problem, 128, 0)
		wrong := Evaluate(mustParse("X0", 1), problem, 128, 0)

		Expect(exact.BetterThan(wrong)).To(BeTrue())
		Expect(wrong.WorseThan(padded)).To(BeTrue())
		Expect(exact.BetterThan(longer)).To(BeFalse())
		Expect(longer.BetterThan(padded)).To(BeTrue())
		Expect(padded.WorseThan(longer)).To(BeTrue())
	})

	It("compares results within a tolerance", func() {
		e := Evaluate(mustParse("(2 * X0)", 1), problem, 128, 0)
		Expect(e.EqualResults(Evaluate(mustParse("(X0 + X0)", 1), problem, 128, 0))).To(BeTrue())
		Expect(e.EqualResults(Evaluate(mustParse("(2.000000001 * X0)", 1), problem, 128, 0))).To(BeTrue())
		Expect(e.EqualResults(Evaluate(mustParse("(2.1 * X0)", 1), problem, 128, 0))).To(BeFalse())
	})
})
