package genprog

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
)

var _ = Describe("Parse", func() {
	DescribeTable("prints what it parsed",
		func(text string) {
			Expect(mustParse(text, 0).String()).To(Equal(text))
		},
		Entry("sum", "(X0 + 1)"),
		Entry("nested", "((X0 * 2.5) - (X1 / 3))"),
		Entry("whole double", "(X0 * 1.0)"),
		Entry("negative literal", "(X0 <> -1)"),
		Entry("relations", "((X0 <= 0.5) AND (X1 >= X0))"),
		Entry("logic", "((X0 AND X1) OR (X0 XOR (NOT X1)))"),
		Entry("if", "(IF (X0 < 1) THEN X1)"),
		Entry("ifelse", "(IF (X0 < 1) THEN X1 ELSE Noop)"),
		Entry("while", "(WHILE (Y0 > 0) DO (Y0:=(Y0 - 1)))"),
		Entry("mov", "(X[(X0 + 1)]:=2)"),
		Entry("chain", "((Y0:=X0)=>Y0)"),
	)

	DescribeTable("operator precedence",
		func(text string, expected string) {
			Expect(mustParse(text, 0).String()).To(Equal(expected))
		},
		Entry("product before sum", "1 + 2 * X0", "(1 + (2 * X0))"),
		Entry("left associative", "1 - 2 - 3", "((1 - 2) - 3)"),
		Entry("relations before logic", "X0 < 1 AND X1 > 2 OR X2", "(((X0 < 1) AND (X1 > 2)) OR X2)"),
		Entry("chain last", "Y0 := X0 => Y0 + 1", "(Y0:=(X0=>(Y0 + 1)))"),
		Entry("keywords in any case", "if x0 then 1 else 2", "(IF X0 THEN 1 ELSE 2)"),
	)

	It("counts inputs and working variables", func() {
		program := mustParse("(X3 + Y2)", 1)
		Expect(program.VarCount()).To(Equal(4))
		Expect(program.WorkingVariableCount()).To(Equal(3))
		Expect(mustParse("X0", 2).VarCount()).To(Equal(2))
	})

	It("extends the default language with the symbols used", func() {
		language := mustParse("(IF X0 THEN (Y0:=1))", 1).Language()
		Expect(language.Has(If)).To(BeTrue())
		Expect(language.Has(AssignWorkingVariable)).To(BeTrue())
		Expect(language.Has(Add)).To(BeTrue())
		Expect(language.Has(While)).To(BeFalse())
	})

	DescribeTable("reports malformed programs",
		func(text string, pos int) {
			_, err := Parse(text, 0)
			Expect(err).To(PointTo(MatchFields(IgnoreExtras, Fields{
				"Pos": Equal(pos),
			})))
		},
		Entry("unexpected end", "(X0 +", 5),
		Entry("unclosed parenthesis", "(X0 + 1", 7),
		Entry("trailing input", "X0 )", 3),
		Entry("unknown character", "X0 # 1", 3),
		Entry("unknown word", "(X0 + Z1)", 6),
		Entry("missing THEN", "(IF X0 ELSE 1)", 7),
	)

	It("round trips random programs", func() {
		rng := rand.New(rand.NewSource(11))
		language := AllSymbols.Without(DoubleLiteral)
		inputs := [][]float64{{-1, 0}, {0.5, 2}, {3, -4}}
		for i := 0; i < 200; i++ {
			program := Grow(rng, 4, 2, language)
			parsed := mustParse(program.String(), 2)
			Expect(parsed.String()).To(Equal(program.String()))

			for _, row := range inputs {
				expected, completed := program.EvaluateBudget(row, 100)
				actual, parsedCompleted := parsed.EvaluateBudget(row, 100)
				Expect(parsedCompleted).To(Equal(completed))
				Expect(actual).To(equalValue(expected))
			}
		}
	})
})

var _ = Describe("formatDouble", func() {
	DescribeTable("prints doubles with a decimal point",
		func(v float64, expected string) {
			Expect(formatDouble(v)).To(Equal(expected))
		},
		Entry("fraction", 2.5, "2.5"),
		Entry("whole", 3.0, "3.0"),
		Entry("negative", -0.25, "-0.25"),
		Entry("rounded", 0.1+0.2, "0.3"),
		Entry("infinite", math.Inf(1), "+Inf"),
	)
})
