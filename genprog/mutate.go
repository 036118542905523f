package genprog

import (
	"fmt"
	"math/rand"
	"slices"
)

// Depth of the genomes grown to draw replacement subtrees from during mutation
const RegrowDepth = 5

// Mutate returns a mutated copy of p. Every instruction is considered for mutation with probability pmut;
// sweeps over the code are repeated until at least one mutation happened.
func (p *Program) Mutate(rng *rand.Rand, pmut float64) *Program {
	if pmut <= 0 {
		panic(fmt.Errorf("mutation rate must be positive, got %v", pmut))
	}

	m := p.Copy()
	for mutated := false; !mutated; {
		for pc := 0; pc < len(m.code); pc++ {
			if rng.Float64() < pmut && m.mutateAt(rng, pmut, pc) {
				mutated = true
			}
		}
	}
	m.Traverse(0)
	return m
}

// mutateAt applies the first mutation of the node at pc whose draw succeeds, reporting whether the program changed
func (p *Program) mutateAt(rng *rand.Rand, pmut float64, pc int) bool {
	symbol, qualifier := Decode(p.varCount, p.code[pc])
	arity := symbol.SyntacticArity()

	if rng.Float64() < pmut {
		p.regrow(rng, pc)
		return true
	}

	if symbol == IntegerLiteral && rng.Float64() < pmut && p.constants.MutateInteger(rng, qualifier) {
		return true
	}
	if symbol == DoubleLiteral && rng.Float64() < pmut && p.constants.MutateDouble(rng, qualifier) {
		return true
	}

	if arity > 0 && rng.Float64() < pmut {
		children, end, _ := p.children(pc)
		p.splice(pc, end, children[rng.Intn(len(children))])
		return true
	}

	if arity > 1 && rng.Float64() < pmut {
		children, end, _ := p.children(pc)
		rng.Shuffle(len(children), func(i, j int) {
			children[i], children[j] = children[j], children[i]
		})
		reshuffled := slices.Concat(children...)
		if !slices.Equal(reshuffled, p.code[pc+1:end]) {
			p.splice(pc+1, end, reshuffled)
			return true
		}
	}

	if rng.Float64() < pmut {
		return p.replaceSymbol(rng, pc, symbol)
	}
	return false
}

// regrow crosses p over with a freshly grown genome: the subtree at pc is replaced by a short subtree of the
// fresh genome, which shares p's constants and working variables
func (p *Program) regrow(rng *rand.Rand, pc int) {
	fresh := &Program{
		varCount:             p.varCount,
		workingVariableCount: p.workingVariableCount,
		constants:            p.constants,
		language:             p.language,
	}
	fresh.code = fresh.grow(rng, RegrowDepth, nil)
	start, end := fresh.pickSubtree(rng)

	subtreeEnd, _ := p.Skip(pc)
	p.splice(pc, subtreeEnd, fresh.code[start:end])
	p.workingVariableCount = fresh.workingVariableCount
}

// replaceSymbol replaces the symbol at pc by another one of the language. Children are dropped, or grown
// no deeper than the existing ones, at random positions to fit the arity of the new symbol.
func (p *Program) replaceSymbol(rng *rand.Rand, pc int, current Symbol) bool {
	var candidates []Symbol
	for _, s := range p.language.Symbols() {
		if s != current && (s != InputArgument || p.varCount > 0) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return false
	}

	replacement := candidates[rng.Intn(len(candidates))]
	children, end, depth := p.children(pc)
	for len(children) < replacement.SyntacticArity() {
		children = slices.Insert(children, rng.Intn(len(children)+1), p.grow(rng, depth, nil))
	}
	for len(children) > replacement.SyntacticArity() {
		i := rng.Intn(len(children))
		children = slices.Delete(children, i, i+1)
	}

	instruction := Encode(p.varCount, replacement, p.pickQualifier(rng, replacement))
	p.splice(pc, end, append([]int{instruction}, slices.Concat(children...)...))
	return true
}

// children returns copies of the code of each child of the node at pc, the end of the node and the maximum
// depth of its children
func (p *Program) children(pc int) (children [][]int, end int, depth int) {
	symbol, _ := Decode(p.varCount, p.code[pc])
	end = pc + 1
	for i := 0; i < symbol.SyntacticArity(); i++ {
		childEnd, childDepth := p.Skip(end)
		children = append(children, slices.Clone(p.code[end:childEnd]))
		depth = max(depth, childDepth)
		end = childEnd
	}
	return children, end, depth
}

// splice replaces code[start:end] with replacement
func (p *Program) splice(start, end int, replacement []int) {
	p.code = slices.Concat(p.code[:start], replacement, p.code[end:])
}
