package genprog

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

// expectEquivalent checks simplified gives the same results as program on every input program completes on
// without going out of range. Folded constants are kept as doubles, so results are compared approximately.
func expectEquivalent(program, simplified *Program, inputs [][]float64) {
	for _, row := range inputs {
		expected, ok := program.EvaluateBudget(row, 10000)
		if !ok {
			continue
		}
		actual, completed := simplified.EvaluateBudget(row, 10000)
		ExpectWithOffset(1, completed).To(BeTrue(), "%s => %s on %v", program, simplified, row)
		e := expected.InexactFloat64()
		ExpectWithOffset(1, actual.InexactFloat64()).To(BeNumerically("~", e, 1e-6*math.Max(1, math.Abs(e))),
			"%s => %s on %v", program, simplified, row)
	}
}

var _ = Describe("Simplify", func() {
	DescribeTable("rewrites",
		func(text string, expected string) {
			program := mustParse(text, 2)
			simplified := program.Simplify()
			Expect(simplified.String()).To(Equal(expected))
			expectEquivalent(program, simplified, GridInputs(2, -2, 2, 0.5))
		},
		Entry("already simplest",
			"(X0 / (4 * ((9.66 - X0) / (26 - (4.2 * X0)))))",
			"(X0 / (4 * ((9.66 - X0) / (26 - (4.2 * X0)))))"),
		Entry("nested arithmetic",
			"(((X0 + ((2 * X0) - X0)) / 0.9) - (X0 / (((0.9 / 5.3) + 5.3) / ((0.7 / 3) * 3))))",
			"(((2 * X0) / 0.9) - (X0 / 7.81401617250674))"),

		Entry("constant expression", "(1 + 2)", "3"),
		Entry("whole double", "(2.0 + X0)", "(2 + X0)"),
		Entry("grouped constants", "(1 + (2 + X0))", "(3 + X0)"),
		Entry("multiplication by one", "(X0 * 1)", "X0"),
		Entry("division by one", "(X0 / 1)", "X0"),
		Entry("multiplication by zero", "(0 * X0)", "0"),
		Entry("subtraction of itself", "(X0 - X0)", "0"),
		Entry("addition to itself", "(X0 + X0)", "(2 * X0)"),
		Entry("subtraction of constant", "(X0 - 3)", "(-3 + X0)"),
		Entry("negated relation", "(NOT (X0 < 1))", "(X0 >= 1)"),
		Entry("comparison with itself", "(X0 = X0)", "1"),
		Entry("identical branches", "(IF X1 THEN X0 ELSE X0)", "X0"),
		Entry("constant guard", "(IF 1 THEN X0 ELSE X1)", "X0"),
		Entry("false loop", "(WHILE 0 DO X0)", "Noop"),
		Entry("discarded pure operand", "(X1=>X0)", "X0"),
		Entry("unassigned read", "((Y0:=X0)=>Y1)", "0"),
		Entry("propagated assignment", "((Y0:=(X0 + 1))=>(Y0 * 2))", "(2 * (1 + X0))"),
		Entry("short circuited side effect", "(0 AND (Y0:=X0))", "0"),
		Entry("exact decimal sum", "((0.1 + 0.2) = 0.3)", "1"),
		Entry("exact decimal difference", "((0.3 - 0.1) = 0.2)", "1"),
		Entry("exact decimal product", "((1.1 * 1.1) = 1.21)", "1"),
	)

	It("keeps side effects of absorbed operands", func() {
		program := mustParse("((0 * (Y0:=X0))=>Y0)", 1)
		simplified := program.Simplify()
		Expect(simplified.Evaluate([]float64{3})).To(equalValue(3))
		expectEquivalent(program, simplified, GridInputs(1, -2, 2, 1))
	})

	It("keeps loops that assign", func() {
		program := mustParse("((Y0:=3)=>((Y1:=0)=>((WHILE Y0 DO ((Y1:=(Y1 + 2))=>(Y0:=(Y0 - 1))))=>Y1)))", 0)
		simplified := program.Simplify()
		Expect(simplified.Evaluate(nil)).To(equalValue(6))
		Expect(simplified.Decode().HasWhileLoop()).To(BeTrue())
	})

	It("does not replace reads after a computed assignment", func() {
		program := mustParse("((Y0:=1)=>((X[X0]:=5)=>Y0))", 1)
		simplified := program.Simplify()
		expectEquivalent(program, simplified, [][]float64{{0}, {1}, {2}})
		Expect(simplified.Evaluate([]float64{0})).To(equalValue(5))
		Expect(simplified.Evaluate([]float64{1})).To(equalValue(1))
	})

	It("keeps exact decimal results of unfolded expressions", func() {
		program := mustParse("((X0 + 0.2) = 0.3)", 1)
		simplified := program.Simplify()
		Expect(program.Evaluate([]float64{0.1})).To(equalValue(1))
		Expect(simplified.Evaluate([]float64{0.1})).To(equalValue(1))
	})

	It("takes single steps until there is nothing left to simplify", func() {
		program := mustParse("((X0 + 0) * (1 + 2))", 1)
		steps := 0
		for next := program.SimplifyStep(); next != nil; next = next.SimplifyStep() {
			program = next
			steps++
			Expect(steps).To(BeNumerically("<", 100))
		}
		Expect(steps).To(BeNumerically(">", 1))
		Expect(program.String()).To(Equal("(3 * X0)"))
	})

	It("simplifies trees in place of programs", func() {
		program := mustParse("(X0 * (1 + 2))", 1)
		constants := program.Constants().Copy()
		simplified := program.Decode().Simplify(constants)
		Expect(simplified).ToNot(BeNil())
		Expect(simplified.Format(constants)).To(Equal("(3 * X0)"))
		Expect(simplified.Simplify(constants)).To(BeNil())
	})

	It("leaves the original program alone", func() {
		program := mustParse("((X0 + 0) * (1 + 2))", 1)
		code := append([]int(nil), program.Code()...)
		program.Simplify()
		Expect(program.Code()).To(Equal(code))
		Expect(program.String()).To(Equal("((X0 + 0) * (1 + 2))"))
	})

	It("purges unused constants", func() {
		simplified := mustParse("((X0 * 1) + 2.5)", 1).Simplify()
		Expect(simplified.Constants().Integers.Values()).To(BeEmpty())
		Expect(simplified.Constants().Doubles.Values()).To(Equal([]float64{2.5}))
	})

	DescribeTable("preserves the results of random programs",
		func(language SymbolSet, seed int64) {
			rng := rand.New(rand.NewSource(seed))
			inputs := GridInputs(2, -2, 2, 0.5)
			for i := 0; i < 200; i++ {
				program := Grow(rng, 1+rng.Intn(4), 2, language)
				simplified := program.Simplify()
				expectEquivalent(program, simplified, inputs)
				Expect(simplified.SimplifyStep()).To(BeNil(), "%s => %s", program, simplified)
			}
		},
		Entry("arithmetic", DefaultLanguage, int64(1)),
		Entry("logic", DefaultLanguage.With(LogicalNot, Lt, Gt, Eq, LogicalAnd, LogicalOr, LogicalXor, If, Ifelse), int64(2)),
		Entry("working variables", DefaultLanguage.With(WorkingVariable, AssignWorkingVariable, Chain, If), int64(3)),
		Entry("every symbol", AllSymbols, int64(4)),
		Entry("every symbol, another seed", AllSymbols, int64(5)),
	)
})
