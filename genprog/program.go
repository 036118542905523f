package genprog

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
)

// Program is a genome: a prefix encoded expression tree over a pool of constants.
// Programs are immutable once built; every operation producing a new genome returns a new Program.
type Program struct {
	varCount             int
	workingVariableCount int
	constants            *ConstantPool
	code                 []int

	// Symbols the program may grow or mutate into
	language SymbolSet
}

// FromCode wraps code in a Program, taking ownership of code and constants.
// It panics if code is not exactly one well formed tree.
func FromCode(varCount int, code []int, constants *ConstantPool, workingVariableCount int) *Program {
	p := &Program{
		varCount:             varCount,
		workingVariableCount: workingVariableCount,
		constants:            constants,
		code:                 code,
		language:             DefaultLanguage,
	}
	p.Traverse(0)
	return p
}

// Grow creates a random program of the given depth, using only symbols of language
func Grow(rng *rand.Rand, depth int, varCount int, language SymbolSet) *Program {
	p := &Program{
		varCount:  varCount,
		constants: NewConstantPool(),
		language:  language,
	}
	p.code = p.grow(rng, depth, nil)
	p.Traverse(0)
	return p
}

// grow appends a random subtree of the given depth to code. Literals and working variables it introduces are
// registered in p.
func (p *Program) grow(rng *rand.Rand, depth int, code []int) []int {
	symbol := p.pickSymbol(rng, depth > 0)
	code = append(code, Encode(p.varCount, symbol, p.pickQualifier(rng, symbol)))
	for i := 0; i < symbol.SyntacticArity(); i++ {
		code = p.grow(rng, depth-1, code)
	}
	return code
}

// pickSymbol returns a random symbol of the language, a non-leaf one if branch is set and the language has any
func (p *Program) pickSymbol(rng *rand.Rand, branch bool) Symbol {
	var leaves, branches []Symbol
	for _, s := range p.language.Symbols() {
		if s == InputArgument && p.varCount == 0 {
			continue
		}
		if s.IsLeaf() {
			leaves = append(leaves, s)
		} else {
			branches = append(branches, s)
		}
	}

	candidates := leaves
	if branch && len(branches) > 0 {
		candidates = branches
	}
	if len(candidates) == 0 {
		panic(fmt.Errorf("no symbol to pick from language %v with %d inputs", p.language, p.varCount))
	}
	return candidates[rng.Intn(len(candidates))]
}

func (p *Program) pickQualifier(rng *rand.Rand, symbol Symbol) int {
	switch symbol {
	case InputArgument:
		return rng.Intn(p.varCount)
	case IntegerLiteral:
		return p.constants.PickInteger(rng)
	case DoubleLiteral:
		return p.constants.PickDouble(rng)
	case WorkingVariable, AssignWorkingVariable:
		slot := rng.Intn(p.workingVariableCount + 1)
		if slot == p.workingVariableCount {
			p.workingVariableCount++
		}
		return slot
	}
	return 0
}

// Skip returns the position following the subtree at pc, along with the depth of that subtree
func (p *Program) Skip(pc int) (end int, depth int) {
	if pc >= len(p.code) {
		panic(fmt.Errorf("code ended prematurely at %d: %v", pc, p.code))
	}
	symbol, _ := Decode(p.varCount, p.code[pc])
	end = pc + 1
	for i := 0; i < symbol.SyntacticArity(); i++ {
		var childDepth int
		end, childDepth = p.Skip(end)
		if childDepth+1 > depth {
			depth = childDepth + 1
		}
	}
	return end, depth
}

// Traverse returns the position following the subtree at pc. At pc 0 it also checks that the tree spans all code.
func (p *Program) Traverse(pc int) int {
	end, _ := p.Skip(pc)
	if pc == 0 && end != len(p.code) {
		prefix := formatCode(p.varCount, p.code[:end], p.constants)
		panic(fmt.Errorf("program %s ends at %d, but its code has length %d: %v", prefix, end, len(p.code), p.code))
	}
	return end
}

// formatCode prints the tree encoded by code without checking it
func formatCode(varCount int, code []int, constants *ConstantPool) string {
	tree, _ := DecodeCallTree(varCount, code, 0)
	return tree.Format(constants)
}

// Decode builds a fresh CallTree of the program
func (p *Program) Decode() *CallTree {
	tree, _ := DecodeCallTree(p.varCount, p.code, 0)
	return tree
}

// Evaluate runs the program on the inputs. Values out of range are clamped.
func (p *Program) Evaluate(inputs []float64) decimal.Decimal {
	return p.Decode().Run(NewRuntimeState(decimals(inputs)), p.constants)
}

// EvaluateBudget runs the program on the inputs for at most maxTicks ticks, reporting whether it completed
// without any value going out of range
func (p *Program) EvaluateBudget(inputs []float64, maxTicks int) (decimal.Decimal, bool) {
	state := NewRuntimeState(decimals(inputs))
	result, completed := p.Decode().RunBudget(state, p.constants, maxTicks)
	return result, completed && !state.Overflowed()
}

// Trace runs the program, handing every node to tracer as it completes
func (p *Program) Trace(inputs []float64, tracer Tracer) decimal.Decimal {
	state := NewRuntimeState(decimals(inputs))
	state.Tracer = tracer
	return p.Decode().Run(state, p.constants)
}

func (p *Program) String() string {
	return p.Decode().Format(p.constants)
}

func (p *Program) Code() []int {
	return p.code
}

func (p *Program) Len() int {
	return len(p.code)
}

func (p *Program) VarCount() int {
	return p.varCount
}

func (p *Program) WorkingVariableCount() int {
	return p.workingVariableCount
}

func (p *Program) Constants() *ConstantPool {
	return p.constants
}

func (p *Program) Language() SymbolSet {
	return p.language
}

// Copy deep copies the program, including its constants
func (p *Program) Copy() *Program {
	return &Program{
		varCount:             p.varCount,
		workingVariableCount: p.workingVariableCount,
		constants:            p.constants.Copy(),
		code:                 append([]int(nil), p.code...),
		language:             p.language,
	}
}

// purgeUnusedConstants rebuilds the constant pool with only the literals referenced by the code, in order of use
func (p *Program) purgeUnusedConstants() {
	pool := &ConstantPool{
		Integers: NewConstantTable[int](),
		Doubles:  NewConstantTable[float64](),
		Normal:   p.constants.Normal,
	}
	for pc, instruction := range p.code {
		switch symbol, qualifier := Decode(p.varCount, instruction); symbol {
		case IntegerLiteral:
			p.code[pc] = Encode(p.varCount, symbol, pool.Integers.Include(p.constants.Integers.At(qualifier)))
		case DoubleLiteral:
			p.code[pc] = Encode(p.varCount, symbol, pool.Doubles.Include(p.constants.Doubles.At(qualifier)))
		}
	}
	p.constants = pool
}

// compactWorkingVariables renumbers working variables densely, in order of first appearance.
// Programs with a Mov address slots by value and are left as they are.
func (p *Program) compactWorkingVariables() {
	for _, instruction := range p.code {
		if symbol, _ := Decode(p.varCount, instruction); symbol == Mov {
			return
		}
	}

	slots := make(map[int]int)
	for pc, instruction := range p.code {
		symbol, qualifier := Decode(p.varCount, instruction)
		if symbol != WorkingVariable && symbol != AssignWorkingVariable {
			continue
		}
		slot, ok := slots[qualifier]
		if !ok {
			slot = len(slots)
			slots[qualifier] = slot
		}
		p.code[pc] = Encode(p.varCount, symbol, slot)
	}
	p.workingVariableCount = len(slots)
}

// recode re-encodes code from one input count to another, remapping literal qualifiers
func recode(code []int, fromVarCount, toVarCount int, integerMapping, doubleMapping []int) []int {
	recoded := make([]int, len(code))
	for pc, instruction := range code {
		symbol, qualifier := Decode(fromVarCount, instruction)
		switch {
		case symbol == IntegerLiteral && integerMapping != nil:
			qualifier = integerMapping[qualifier]
		case symbol == DoubleLiteral && doubleMapping != nil:
			qualifier = doubleMapping[qualifier]
		}
		recoded[pc] = Encode(toVarCount, symbol, qualifier)
	}
	return recoded
}
