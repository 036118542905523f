package genprog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CallTree is the decoded form of a Program (or one of its subtrees), evaluated one step at a time.
//
// The first DependencyArity children of a node are its pre-evaluated args, always evaluated before the
// node itself; the remaining children are conditional and evaluated zero or more times, depending on the symbol.
type CallTree struct {
	symbol    Symbol
	qualifier int

	args  []*CallTree
	conds []*CallTree

	// Evaluation state
	evaluated bool
	result    decimal.Decimal
	argIndex  int
	condIndex int

	// Memoized sign analysis; zero when not yet computed
	sign Sign
}

// DecodeCallTree decodes the subtree starting at pc, returning it with the position following it
func DecodeCallTree(varCount int, code []int, pc int) (*CallTree, int) {
	if pc >= len(code) {
		panic(fmt.Errorf("code ended prematurely at %d", pc))
	}
	symbol, qualifier := Decode(varCount, code[pc])
	pc++

	children := make([]*CallTree, symbol.SyntacticArity())
	for i := range children {
		children[i], pc = DecodeCallTree(varCount, code, pc)
	}
	return newCallTree(symbol, qualifier, children...), pc
}

func newCallTree(symbol Symbol, qualifier int, children ...*CallTree) *CallTree {
	if len(children) != symbol.SyntacticArity() {
		panic(fmt.Errorf("%v takes %d operands, got %d", symbol, symbol.SyntacticArity(), len(children)))
	}
	dependencies := symbol.DependencyArity()
	t := &CallTree{symbol: symbol, qualifier: qualifier}
	if dependencies > 0 {
		t.args = children[:dependencies:dependencies]
	}
	if len(children) > dependencies {
		t.conds = append([]*CallTree(nil), children[dependencies:]...)
	}
	return t
}

func newLeaf(symbol Symbol, qualifier int) *CallTree {
	return newCallTree(symbol, qualifier)
}

func (t *CallTree) Symbol() Symbol {
	return t.symbol
}

func (t *CallTree) Qualifier() int {
	return t.qualifier
}

func (t *CallTree) Result() decimal.Decimal {
	return t.result
}

func (t *CallTree) Evaluated() bool {
	return t.evaluated
}

func (t *CallTree) NumChildren() int {
	return len(t.args) + len(t.conds)
}

// Child returns the i'th syntactic child
func (t *CallTree) Child(i int) *CallTree {
	if i < len(t.args) {
		return t.args[i]
	}
	return t.conds[i-len(t.args)]
}

func (t *CallTree) Children() []*CallTree {
	children := make([]*CallTree, 0, t.NumChildren())
	children = append(children, t.args...)
	return append(children, t.conds...)
}

func (t *CallTree) lhs() *CallTree {
	return t.Child(0)
}

func (t *CallTree) rhs() *CallTree {
	return t.Child(1)
}

func (t *CallTree) operand() *CallTree {
	return t.Child(0)
}

func (t *CallTree) IsConstant() bool {
	return t.symbol.IsConstant()
}

func (t *CallTree) IsBoolean() bool {
	return t.symbol.IsBoolean()
}

// Tick advances evaluation and reports whether this node is fully evaluated.
// Once evaluated, further ticks return the memoized result.
func (t *CallTree) Tick(state *RuntimeState, constants *ConstantPool) bool {
	if t.evaluated {
		return true
	}
	t.evaluated = t.tick(state, constants)
	if t.evaluated && state != nil && state.Tracer != nil {
		state.Tracer(t)
	}
	return t.evaluated
}

// Run ticks the tree until it is evaluated and returns its result
func (t *CallTree) Run(state *RuntimeState, constants *ConstantPool) decimal.Decimal {
	for !t.Tick(state, constants) {
	}
	return t.result
}

// RunBudget is Run bounded to maxTicks ticks of the root, reporting whether evaluation completed
func (t *CallTree) RunBudget(state *RuntimeState, constants *ConstantPool, maxTicks int) (decimal.Decimal, bool) {
	for i := 0; i < maxTicks; i++ {
		if t.Tick(state, constants) {
			return t.result, true
		}
	}
	return t.result, false
}

func (t *CallTree) tick(state *RuntimeState, constants *ConstantPool) bool {
	for ; t.argIndex < len(t.args); t.argIndex++ {
		if !t.args[t.argIndex].Tick(state, constants) {
			return false
		}
	}

	switch t.symbol {
	case InputArgument:
		t.result = state.Input(t.qualifier)
	case IntegerLiteral, DoubleLiteral:
		t.result = constants.Value(t.symbol, t.qualifier)
	case WorkingVariable:
		t.result = state.Read(t.qualifier)
	case AssignWorkingVariable:
		t.result = t.args[0].result
		state.Write(t.qualifier, t.result)
	case Mov:
		t.result = t.args[1].result
		state.WriteAt(t.args[0].result, t.result)
	case Noop:
		t.result = zeroValue
	case LogicalNot:
		t.result = boolValue(!truth(t.args[0].result))
	case Add:
		t.result = state.normalize(t.args[0].result.Add(t.args[1].result))
	case Sub:
		t.result = state.normalize(t.args[0].result.Sub(t.args[1].result))
	case Mul:
		t.result = state.normalize(t.args[0].result.Mul(t.args[1].result))
	case Div:
		t.result = state.divide(t.args[0].result, t.args[1].result)
	case Lt:
		t.result = boolValue(t.args[0].result.LessThan(t.args[1].result))
	case Lteq:
		t.result = boolValue(t.args[0].result.LessThanOrEqual(t.args[1].result))
	case Gt:
		t.result = boolValue(t.args[0].result.GreaterThan(t.args[1].result))
	case Gteq:
		t.result = boolValue(t.args[0].result.GreaterThanOrEqual(t.args[1].result))
	case Eq:
		t.result = boolValue(t.args[0].result.Equal(t.args[1].result))
	case Neq:
		t.result = boolValue(!t.args[0].result.Equal(t.args[1].result))
	case LogicalXor:
		t.result = boolValue(truth(t.args[0].result) != truth(t.args[1].result))
	case Chain:
		t.result = t.args[1].result
	case LogicalAnd, LogicalOr:
		lhs := truth(t.args[0].result)
		if t.condIndex == 0 && lhs == (t.symbol == LogicalOr) {
			// Short circuit
			t.result = boolValue(lhs)
			t.condIndex = len(t.conds)
		}
		child, done := t.tickConditionalChild(state, constants)
		if !done {
			return false
		}
		if child != nil {
			t.result = boolValue(truth(child.result))
		}
	case If:
		if t.condIndex == 0 && !truth(t.args[0].result) {
			t.result = zeroValue
			t.condIndex = len(t.conds)
		}
		child, done := t.tickConditionalChild(state, constants)
		if !done {
			return false
		}
		if child != nil {
			t.result = child.result
		}
	case Ifelse:
		if t.condIndex == 0 && !truth(t.args[0].result) {
			t.condIndex++
		}
		child, done := t.tickConditionalChild(state, constants)
		if !done {
			return false
		}
		t.result = child.result
		t.condIndex = len(t.conds)
	case While:
		// One iteration per tick: the guard, then the body, after which both are reset for the next iteration
		if t.condIndex == 0 {
			guard, done := t.tickConditionalChild(state, constants)
			if !done {
				return false
			}
			if !truth(guard.result) {
				t.condIndex = len(t.conds)
			}
		}
		if t.condIndex == 1 {
			body, done := t.tickConditionalChild(state, constants)
			if !done {
				return false
			}
			t.result = body.result
			t.resetConditionalChildren()
		}
		return t.condIndex >= len(t.conds)
	default:
		panic(fmt.Errorf("invalid symbol %v found at runtime", t.symbol))
	}
	return true
}

// tickConditionalChild ticks the conditional child under the cursor, moving the cursor past it once it completes.
// A nil child is returned once the cursor is past the last conditional child.
func (t *CallTree) tickConditionalChild(state *RuntimeState, constants *ConstantPool) (*CallTree, bool) {
	if t.condIndex >= len(t.conds) {
		return nil, true
	}
	child := t.conds[t.condIndex]
	if !child.Tick(state, constants) {
		return child, false
	}
	t.condIndex++
	return child, true
}

func (t *CallTree) resetConditionalChildren() {
	for _, child := range t.conds {
		child.Reset()
	}
	t.condIndex = 0
}

// Reset clears the evaluation state of the whole tree
func (t *CallTree) Reset() {
	t.evaluated = false
	t.result = zeroValue
	t.argIndex = 0
	t.condIndex = 0
	t.sign = 0
	for _, child := range t.args {
		child.Reset()
	}
	for _, child := range t.conds {
		child.Reset()
	}
}

// Encode appends the instructions of the tree to code
func (t *CallTree) Encode(varCount int, code []int) []int {
	code = append(code, Encode(varCount, t.symbol, t.qualifier))
	for _, child := range t.args {
		code = child.Encode(varCount, code)
	}
	for _, child := range t.conds {
		code = child.Encode(varCount, code)
	}
	return code
}

// Equal compares two trees structurally: symbols, qualifiers and all children
func (t *CallTree) Equal(other *CallTree) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.symbol != other.symbol || t.qualifier != other.qualifier {
		return false
	}
	if len(t.args) != len(other.args) || len(t.conds) != len(other.conds) {
		return false
	}
	for i := range t.args {
		if !t.args[i].Equal(other.args[i]) {
			return false
		}
	}
	for i := range t.conds {
		if !t.conds[i].Equal(other.conds[i]) {
			return false
		}
	}
	return true
}

// Clone deep copies the structure of the tree, without its evaluation state
func (t *CallTree) Clone() *CallTree {
	children := t.Children()
	for i, child := range children {
		children[i] = child.Clone()
	}
	return newCallTree(t.symbol, t.qualifier, children...)
}

// Len is the number of instructions the tree encodes to
func (t *CallTree) Len() int {
	n := 1
	for _, child := range t.args {
		n += child.Len()
	}
	for _, child := range t.conds {
		n += child.Len()
	}
	return n
}

// withChild returns a shallow copy of t with its i'th syntactic child replaced
func (t *CallTree) withChild(i int, child *CallTree) *CallTree {
	children := t.Children()
	children[i] = child
	return newCallTree(t.symbol, t.qualifier, children...)
}

func (t *CallTree) withArg(i int, child *CallTree) *CallTree {
	return t.withChild(i, child)
}

func (t *CallTree) withCond(i int, child *CallTree) *CallTree {
	return t.withChild(len(t.args)+i, child)
}
