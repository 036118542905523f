package genprog

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Sign", func() {
	DescribeTable("possible signs",
		func(text string, expected Sign) {
			program := mustParse(text, 1)
			Expect(program.Decode().Sign(program.Constants())).To(Equal(expected))
		},
		Entry("positive constant", "3", SignPositive),
		Entry("negative constant", "-2", SignNegative),
		Entry("zero", "0", SignZero),
		Entry("noop", "Noop", SignZero),
		Entry("input", "X0", SignAny),
		Entry("boolean", "(3 < X0)", SignPositive|SignZero),
		Entry("product of positives", "(2 * 3)", SignPositive),
		Entry("product of mixed signs", "(-2 * 3)", SignNegative),
		Entry("product with zero", "(X0 * 0)", SignZero),
		Entry("sum of mixed signs", "(2 + -3)", SignAny),
		Entry("subtraction of negative", "(2 - -3)", SignPositive),
		Entry("subtraction of positive from negative", "(-2 - 3)", SignNegative),
		Entry("division by almost zero", "(5 / 0.0001)", SignPositive),
		Entry("division by negative", "(5 / -2)", SignNegative),
		Entry("division by unknown", "(5 / X0)", SignPositive|SignNegative),
		Entry("if", "(IF X0 THEN 3)", SignPositive|SignZero),
		Entry("if of negated guard", "(IF (NOT X0) THEN X0)", SignZero),
		Entry("ifelse", "(IF X0 THEN 3 ELSE -1)", SignPositive|SignNegative),
		Entry("assignment", "(Y0:=-4)", SignNegative),
		Entry("loop", "(WHILE X0 DO 2)", SignPositive|SignZero),
		Entry("chain", "(X0=>2)", SignPositive),
	)

	It("summarises its flags", func() {
		Expect(SignAny.String()).To(Equal("{+,-,0}"))
		Expect((SignPositive | SignZero).String()).To(Equal("{+,0}"))
		Expect(Sign(0).String()).To(Equal("{}"))
	})

	DescribeTable("derived predicates",
		func(text string, positive, negative, zero, neverZero bool) {
			program := mustParse(text, 1)
			tree := program.Decode()
			Expect(tree.IsPositive(program.Constants())).To(Equal(positive))
			Expect(tree.IsNegative(program.Constants())).To(Equal(negative))
			Expect(tree.IsZero(program.Constants())).To(Equal(zero))
			Expect(tree.NeverZero(program.Constants())).To(Equal(neverZero))
		},
		Entry("positive", "(2 * 3)", true, false, false, true),
		Entry("negative", "-1.5", false, true, false, true),
		Entry("zero", "(X0 * 0)", false, false, true, false),
		Entry("unknown", "X0", false, false, false, false),
	)

	DescribeTable("IsIntegral",
		func(text string, expected bool) {
			program := mustParse(text, 1)
			Expect(program.Decode().IsIntegral(program.Constants())).To(Equal(expected))
		},
		Entry("integer", "3", true),
		Entry("whole double", "3.0", true),
		Entry("double", "3.5", false),
		Entry("sum of integers", "(3 + 4)", true),
		Entry("input", "(3 * X0)", false),
		Entry("quotient", "(3 / 4)", false),
		Entry("boolean", "(X0 < 1)", true),
		Entry("branches", "(IF X0 THEN 1 ELSE 2)", true),
	)
})
