package genprog

import (
	"fmt"
	"strings"
)

// Symbol is the opcode of a single instruction
type Symbol int

const (
	Noop Symbol = iota
	LogicalNot
	Add
	Sub
	Mul
	Div
	Lt
	Lteq
	Gt
	Gteq
	Eq
	Neq
	LogicalAnd
	LogicalOr
	LogicalXor
	Chain
	If
	While
	Mov
	Ifelse

	// Qualified symbols. Everything from InputArgument on carries a qualifier in its instruction.
	InputArgument
	IntegerLiteral
	DoubleLiteral
	WorkingVariable
	AssignWorkingVariable

	numSymbols
)

var symbolNames = [numSymbols]string{
	Noop:                  "Noop",
	LogicalNot:            "Not",
	Add:                   "Add",
	Sub:                   "Sub",
	Mul:                   "Mul",
	Div:                   "Div",
	Lt:                    "Lt",
	Lteq:                  "Lteq",
	Gt:                    "Gt",
	Gteq:                  "Gteq",
	Eq:                    "Eq",
	Neq:                   "Neq",
	LogicalAnd:            "And",
	LogicalOr:             "Or",
	LogicalXor:            "Xor",
	Chain:                 "Chain",
	If:                    "If",
	While:                 "While",
	Mov:                   "Mov",
	Ifelse:                "Ifelse",
	InputArgument:         "InputArgument",
	IntegerLiteral:        "IntegerLiteral",
	DoubleLiteral:         "DoubleLiteral",
	WorkingVariable:       "WorkingVariable",
	AssignWorkingVariable: "AssignWorkingVariable",
}

var symbolsByName map[string]Symbol

func init() {
	symbolsByName = make(map[string]Symbol, numSymbols)
	for s, name := range symbolNames {
		symbolsByName[strings.ToLower(name)] = Symbol(s)
	}
}

func (s Symbol) String() string {
	if s < 0 || s >= numSymbols {
		return fmt.Sprintf("Symbol(%d)", int(s))
	}
	return symbolNames[s]
}

// ParseSymbol looks a symbol up by its (case-insensitive) name
func ParseSymbol(name string) (Symbol, error) {
	if s, ok := symbolsByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s, nil
	}
	return Noop, fmt.Errorf("unknown symbol %q", name)
}

// IsQualified reports whether instructions of this symbol carry a qualifier
func (s Symbol) IsQualified() bool {
	return s >= InputArgument
}

// SyntacticArity is the total number of operands of a symbol
func (s Symbol) SyntacticArity() int {
	switch s {
	case InputArgument, IntegerLiteral, DoubleLiteral, WorkingVariable, Noop:
		return 0
	case AssignWorkingVariable, LogicalNot:
		return 1
	case Ifelse:
		return 3
	case Add, Sub, Mul, Div, Lt, Lteq, Gt, Gteq, Eq, Neq, LogicalAnd, LogicalOr, LogicalXor, Chain, If, While, Mov:
		return 2
	}
	panic(fmt.Errorf("invalid symbol %v", s))
}

// DependencyArity is the number of operands that are always evaluated before the symbol itself.
// The remaining operands are conditional children.
func (s Symbol) DependencyArity() int {
	switch s {
	case InputArgument, IntegerLiteral, DoubleLiteral, WorkingVariable, While, Noop:
		return 0
	case AssignWorkingVariable, LogicalNot, If, LogicalAnd, LogicalOr, Ifelse:
		return 1
	case Add, Sub, Mul, Div, Lt, Lteq, Gt, Gteq, Eq, Neq, LogicalXor, Chain, Mov:
		return 2
	}
	panic(fmt.Errorf("invalid symbol %v", s))
}

func (s Symbol) IsLeaf() bool {
	return s.SyntacticArity() == 0
}

func (s Symbol) IsConstant() bool {
	switch s {
	case IntegerLiteral, DoubleLiteral, Noop:
		return true
	}
	return false
}

func (s Symbol) IsCommutative() bool {
	switch s {
	case Add, LogicalAnd, Eq, Mul, Neq, LogicalOr, LogicalXor:
		return true
	}
	return false
}

func (s Symbol) IsAssociative() bool {
	switch s {
	case Add, LogicalAnd, LogicalOr, Mul:
		return true
	}
	return false
}

// IsBoolean reports whether the symbol always evaluates to exactly 0 or 1
func (s Symbol) IsBoolean() bool {
	switch s {
	case LogicalAnd, Eq, Gt, Gteq, Lt, Lteq, Neq, LogicalNot, LogicalOr, LogicalXor:
		return true
	}
	return false
}

func (s Symbol) IsRelational() bool {
	switch s {
	case Eq, Gt, Gteq, Lt, Lteq, Neq:
		return true
	}
	return false
}

func (s Symbol) IsArithmetic() bool {
	switch s {
	case Add, Sub, Mul, Div:
		return true
	}
	return false
}

// TakesBooleanPreEvaluatedArgs reports whether only the truth of the pre-evaluated args is observed
func (s Symbol) TakesBooleanPreEvaluatedArgs() bool {
	switch s {
	case LogicalAnd, If, Ifelse, LogicalOr, LogicalXor:
		return true
	}
	return false
}

// TakesBooleanConditionalChildren reports whether only the truth of the conditional children is observed.
// For While this holds for the guard only.
func (s Symbol) TakesBooleanConditionalChildren() bool {
	switch s {
	case LogicalAnd, LogicalOr, While:
		return true
	}
	return false
}

// SymbolSet is a set of symbols, used to restrict the language a Program may grow into
type SymbolSet uint32

func NewSymbolSet(symbols ...Symbol) SymbolSet {
	var set SymbolSet
	for _, s := range symbols {
		set = set.With(s)
	}
	return set
}

// AllSymbols contains every symbol
var AllSymbols = SymbolSet(1<<numSymbols - 1)

// DefaultLanguage is plain arithmetic over inputs and literals
var DefaultLanguage = NewSymbolSet(Add, Sub, Mul, Div, InputArgument, IntegerLiteral, DoubleLiteral)

// DefaultBanned is the complement of DefaultLanguage
var DefaultBanned = AllSymbols.Without(DefaultLanguage.Symbols()...)

func (set SymbolSet) Has(s Symbol) bool {
	return set&(1<<uint(s)) != 0
}

func (set SymbolSet) With(symbols ...Symbol) SymbolSet {
	for _, s := range symbols {
		set |= 1 << uint(s)
	}
	return set
}

func (set SymbolSet) Without(symbols ...Symbol) SymbolSet {
	for _, s := range symbols {
		set &^= 1 << uint(s)
	}
	return set
}

// Complement returns the symbols not in the set
func (set SymbolSet) Complement() SymbolSet {
	return AllSymbols &^ set
}

func (set SymbolSet) Symbols() []Symbol {
	var symbols []Symbol
	for s := Symbol(0); s < numSymbols; s++ {
		if set.Has(s) {
			symbols = append(symbols, s)
		}
	}
	return symbols
}

func (set SymbolSet) String() string {
	names := make([]string, 0, numSymbols)
	for _, s := range set.Symbols() {
		names = append(names, s.String())
	}
	return strings.Join(names, ",")
}

// ParseSymbolSet parses a comma separated list of symbol names
func ParseSymbolSet(list string) (SymbolSet, error) {
	var set SymbolSet
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		s, err := ParseSymbol(name)
		if err != nil {
			return 0, err
		}
		set = set.With(s)
	}
	return set, nil
}
