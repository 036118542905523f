package genprog

import "math/rand"

// Number of random subtrees drawn when picking a crossover point; the shortest one is used
const crossoverSamples = 3

// Crossover replaces a random subtree of p with a random subtree of donor.
// The child owns a merged copy of both constant pools.
func (p *Program) Crossover(rng *rand.Rand, donor *Program) *Program {
	start, end := p.pickSubtree(rng)
	donorStart, donorEnd := donor.pickSubtree(rng)

	constants, integerMapping, doubleMapping := p.constants.Merge(donor.constants)
	varCount := max(p.varCount, donor.varCount)

	code := make([]int, 0, len(p.code)-(end-start)+(donorEnd-donorStart))
	code = append(code, recode(p.code[:start], p.varCount, varCount, nil, nil)...)
	code = append(code, recode(donor.code[donorStart:donorEnd], donor.varCount, varCount, integerMapping, doubleMapping)...)
	code = append(code, recode(p.code[end:], p.varCount, varCount, nil, nil)...)

	child := &Program{
		varCount:             varCount,
		workingVariableCount: max(p.workingVariableCount, donor.workingVariableCount),
		constants:            constants,
		code:                 code,
		language:             p.language,
	}
	if rng.Float64() <= 0.5 {
		child.purgeUnusedConstants()
	}
	if rng.Float64() <= 0.5 {
		child.compactWorkingVariables()
	}
	child.Traverse(0)
	return child
}

// pickSubtree returns the bounds of a relatively short random subtree
func (p *Program) pickSubtree(rng *rand.Rand) (start, end int) {
	for i := 0; i < crossoverSamples; i++ {
		pc := rng.Intn(len(p.code))
		subtreeEnd, _ := p.Skip(pc)
		if i == 0 || subtreeEnd-pc < end-start {
			start, end = pc, subtreeEnd
		}
	}
	return start, end
}
