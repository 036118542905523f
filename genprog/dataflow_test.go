package genprog

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

// dataflowPass runs a single pass over the program, returning its result or "" if nothing changed
func dataflowPass(pass func(s *simplifier, t *CallTree) *CallTree) func(text string, expected string) {
	return func(text string, expected string) {
		program := mustParse(text, 2)
		s := newSimplifier(program.Constants().Copy(), nil)
		result := pass(s, program.Decode())
		if expected == "" {
			Expect(result).To(BeNil())
			return
		}
		Expect(result).ToNot(BeNil())
		Expect(result.Format(s.constants)).To(Equal(expected))
	}
}

var _ = Describe("Dataflow", func() {
	DescribeTable("purging reads of unassigned variables",
		dataflowPass((*simplifier).purgeUnassignedVariables),
		Entry("never assigned", "(Y0 + 1)", "(0 + 1)"),
		Entry("assigned before", "((Y0:=X0)=>Y0)", ""),
		Entry("assigned zero", "((Y0:=0)=>Y0)", "(0=>Y0)"),
		Entry("assigned later", "(Y0=>(Y0:=X0))", "(0=>(Y0:=X0))"),
		Entry("assigned in one branch", "((IF X1 THEN (Y0:=X0))=>Y0)", ""),
		Entry("assigned in a loop", "(WHILE (Y0 < 3) DO (Y0:=(Y0 + 1)))", ""),
		Entry("assigned by address", "((X[X0]:=1)=>Y5)", ""),
	)

	DescribeTable("purging unused assignments",
		dataflowPass((*simplifier).purgeUnusedAssignments),
		Entry("never read", "((Y0:=X0)=>X0)", "(X0=>X0)"),
		Entry("overwritten", "((Y0:=X0)=>((Y0:=1)=>Y0))", "(X0=>((Y0:=1)=>Y0))"),
		Entry("read", "((Y0:=X0)=>Y0)", ""),
		Entry("read in a later iteration", "((Y0:=1)=>(WHILE (X0 < Y0) DO (Y0:=(Y0 + 1))))", ""),
		Entry("read in one branch", "((Y0:=X0)=>(IF X1 THEN Y0))", ""),
		Entry("nested in a live assignment", "((Y1:=(Y0:=X0))=>Y1)", "((Y1:=X0)=>Y1)"),
	)

	DescribeTable("purging redundant reads",
		dataflowPass((*simplifier).purgeRedundantUsages),
		Entry("known value", "((Y0:=X0)=>(Y0 + Y0))", "((Y0:=X0)=>(X0 + Y0))"),
		Entry("value of a variable", "((Y0:=Y1)=>Y0)", ""),
		Entry("assigned by address", "((Y0:=X0)=>((X[2]:=1)=>Y0))", ""),
		Entry("assigned in a loop", "((Y0:=X0)=>(WHILE Y0 DO (Y0:=0)))", ""),
		Entry("assigned in one branch", "((IF X1 THEN (Y0:=X0))=>Y0)", ""),
		Entry("assigned in both branches", "((IF X1 THEN (Y0:=X0) ELSE (Y0:=X0))=>Y0)", "((IF X1 THEN (Y0:=X0) ELSE (Y0:=X0))=>X0)"),
	)
})
