package genprog

import (
	"math/rand"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

// symbolsOf lists the symbols of every instruction of the program
func symbolsOf(p *Program) SymbolSet {
	var set SymbolSet
	for _, instruction := range p.Code() {
		symbol, _ := Decode(p.VarCount(), instruction)
		set = set.With(symbol)
	}
	return set
}

var _ = Describe("Program", func() {
	var rng *rand.Rand

	BeforeEach(func() {
		rng = rand.New(rand.NewSource(7))
	})

	Describe("Grow", func() {
		It("grows full trees of the requested depth", func() {
			for i := 0; i < 50; i++ {
				program := Grow(rng, 3, 2, DefaultLanguage)
				end, depth := program.Skip(0)
				Expect(end).To(Equal(program.Len()))
				Expect(depth).To(Equal(3))
				Expect(program.Len()).To(Equal(15))
				Expect(program.Traverse(0)).To(Equal(program.Len()))
			}
		})

		It("only uses symbols of the language", func() {
			language := NewSymbolSet(Add, LogicalNot, IntegerLiteral, WorkingVariable, AssignWorkingVariable)
			for i := 0; i < 50; i++ {
				program := Grow(rng, 4, 0, language)
				Expect(symbolsOf(program) &^ language).To(BeZero())
				Expect(program.Language()).To(Equal(language))
			}
		})

		It("does not read inputs of programs without any", func() {
			for i := 0; i < 50; i++ {
				program := Grow(rng, 3, 0, DefaultLanguage)
				Expect(symbolsOf(program).Has(InputArgument)).To(BeFalse())
			}
		})

		It("registers the constants it uses", func() {
			program := Grow(rng, 4, 1, NewSymbolSet(Mul, IntegerLiteral, DoubleLiteral))
			for _, instruction := range program.Code() {
				switch symbol, qualifier := Decode(1, instruction); symbol {
				case IntegerLiteral:
					Expect(qualifier).To(BeNumerically("<", program.Constants().Integers.Len()))
				case DoubleLiteral:
					Expect(qualifier).To(BeNumerically("<", program.Constants().Doubles.Len()))
				}
			}
		})

		It("cannot grow without a leaf", func() {
			Expect(func() { Grow(rng, 2, 1, NewSymbolSet(Add)) }).To(Panic())
			Expect(func() { Grow(rng, 2, 0, NewSymbolSet(Add, InputArgument)) }).To(Panic())
		})
	})

	Describe("Traverse", func() {
		It("rejects code that is not a single tree", func() {
			pool := NewConstantPool()
			pool.Integers.Include(1)
			one := Encode(0, IntegerLiteral, 0)

			Expect(func() { FromCode(0, []int{int(Add), one}, pool, 0) }).To(Panic())
			Expect(func() { FromCode(0, []int{int(Add), one, one, one}, pool, 0) }).To(Panic())
			Expect(FromCode(0, []int{int(Add), one, one}, pool, 0).Evaluate(nil)).To(equalValue(2))
		})
	})

	Describe("Crossover", func() {
		It("combines subtrees of both parents", func() {
			for i := 0; i < 100; i++ {
				parent := Grow(rng, 4, 1, DefaultLanguage)
				donor := Grow(rng, 4, 2, DefaultLanguage)
				parentCode := append([]int(nil), parent.Code()...)

				child := parent.Crossover(rng, donor)
				Expect(child.Traverse(0)).To(Equal(child.Len()))
				Expect(child.VarCount()).To(Equal(2))
				Expect(child.Language()).To(Equal(parent.Language()))
				Expect(parent.Code()).To(Equal(parentCode))

				// Every literal value comes from one of the parents
				for _, instruction := range child.Code() {
					switch symbol, qualifier := Decode(child.VarCount(), instruction); symbol {
					case IntegerLiteral:
						v := child.Constants().Integers.At(qualifier)
						Expect(parent.Constants().Integers.Contains(v) || donor.Constants().Integers.Contains(v)).To(BeTrue())
					case DoubleLiteral:
						v := child.Constants().Doubles.At(qualifier)
						Expect(parent.Constants().Doubles.Contains(v) || donor.Constants().Doubles.Contains(v)).To(BeTrue())
					}
				}
				child.Evaluate([]float64{1, 2})
			}
		})

		It("keeps the parent when crossing with itself at the root", func() {
			program := mustParse("X0", 1)
			child := program.Crossover(rng, program)
			Expect(child.String()).To(Equal("X0"))
		})
	})

	Describe("Mutate", func() {
		It("returns a well formed copy", func() {
			language := DefaultLanguage.With(If, Ifelse, Lt, WorkingVariable, AssignWorkingVariable)
			for i := 0; i < 100; i++ {
				program := Grow(rng, 3, 1, language)
				code := append([]int(nil), program.Code()...)
				text := program.String()

				mutated := program.Mutate(rng, 0.1)
				Expect(mutated.Traverse(0)).To(Equal(mutated.Len()))
				Expect(symbolsOf(mutated) &^ language).To(BeZero())
				Expect(program.Code()).To(Equal(code))
				Expect(program.String()).To(Equal(text))
			}
		})

		It("changes something", func() {
			changed := 0
			for i := 0; i < 100; i++ {
				program := Grow(rng, 3, 1, DefaultLanguage)
				if program.Mutate(rng, 0.1).String() != program.String() {
					changed++
				}
			}
			Expect(changed).To(BeNumerically(">", 80))
		})

		It("requires a positive rate", func() {
			program := mustParse("X0", 1)
			Expect(func() { program.Mutate(rng, 0) }).To(Panic())
		})

		It("drops children at random positions when replacing a symbol", func() {
			kept := map[string]int{}
			for i := 0; i < 200; i++ {
				program := mustParse("(IF X0 THEN 1 ELSE 2)", 1)
				program.language = NewSymbolSet(LogicalNot)
				Expect(program.replaceSymbol(rng, 0, Ifelse)).To(BeTrue())
				Expect(program.Traverse(0)).To(Equal(program.Len()))
				kept[program.String()]++
			}
			Expect(kept).To(HaveLen(3))
			Expect(kept).To(HaveKey("(NOT X0)"))
			Expect(kept).To(HaveKey("(NOT 1)"))
			Expect(kept).To(HaveKey("(NOT 2)"))
		})

		It("regrows subtrees from a fresh genome", func() {
			language := NewSymbolSet(Add, Mul, InputArgument, IntegerLiteral)
			for i := 0; i < 50; i++ {
				program := mustParse("(X0 + 7)", 1)
				program.language = language
				program.regrow(rng, 2)
				Expect(program.Traverse(0)).To(Equal(program.Len()))
				Expect(program.Code()[:2]).To(Equal(mustParse("(X0 + 7)", 1).Code()[:2]))
				Expect(symbolsOf(program) &^ language).To(BeZero())
				_, depth := program.Skip(2)
				Expect(depth).To(BeNumerically("<=", RegrowDepth))
			}
		})
	})

	DescribeTable("keeps offspring well formed",
		func(language SymbolSet) {
			for i := 0; i < 100; i++ {
				program := Grow(rng, 1+rng.Intn(4), 2, language)
				donor := Grow(rng, 1+rng.Intn(4), 2, language)
				text := program.String()

				for _, offspring := range []*Program{program.Mutate(rng, 0.2), program.Crossover(rng, donor)} {
					Expect(offspring.Traverse(0)).To(Equal(offspring.Len()))
					Expect(symbolsOf(offspring) &^ language).To(BeZero(), "%s", offspring)
					offspring.EvaluateBudget([]float64{1, -2}, 1000)
				}
				Expect(program.String()).To(Equal(text))
			}
		},
		Entry("conditionals", DefaultLanguage.With(Ifelse, If, Lt, Eq)),
		Entry("loops", DefaultLanguage.With(While, Gt, WorkingVariable, AssignWorkingVariable, Chain)),
		Entry("computed assignment", DefaultLanguage.With(Mov, Ifelse, WorkingVariable)),
		Entry("every symbol", AllSymbols),
	)

	It("purges unused constants", func() {
		program := mustParse("(1 + 2.5)", 0)
		program.Constants().Integers.Include(7)
		program.Constants().Doubles.Include(0.5)

		program.purgeUnusedConstants()
		Expect(program.Constants().Integers.Values()).To(Equal([]int{1}))
		Expect(program.Constants().Doubles.Values()).To(Equal([]float64{2.5}))
		Expect(program.String()).To(Equal("(1 + 2.5)"))
	})

	It("compacts working variables", func() {
		program := mustParse("((Y3:=X0) + (Y1 * Y3))", 1)
		Expect(program.WorkingVariableCount()).To(Equal(4))

		program.compactWorkingVariables()
		Expect(program.WorkingVariableCount()).To(Equal(2))
		Expect(program.String()).To(Equal("((Y0:=X0) + (Y1 * Y0))"))
	})

	It("does not compact working variables addressed by value", func() {
		program := mustParse("((Y3:=X0) + (X[1]:=Y3))", 1)
		program.compactWorkingVariables()
		Expect(program.String()).To(Equal("((Y3:=X0) + (X[1]:=Y3))"))
	})

	It("copies deeply", func() {
		program := mustParse("(X0 + 1.5)", 1)
		copied := program.Copy()
		copied.Constants().Doubles.set(0, 2.5)
		copied.Code()[0] = int(Sub)
		Expect(program.String()).To(Equal("(X0 + 1.5)"))
		Expect(copied.String()).To(Equal("(X0 - 2.5)"))
	})
})
