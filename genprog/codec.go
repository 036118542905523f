package genprog

// Qualified symbols other than InputArgument share one instruction range, interleaved by these offsets
const (
	workingVariableOffset = iota
	assignWorkingVariableOffset
	doubleLiteralOffset
	integerLiteralOffset

	qualifiedStride
)

// Encode packs a symbol and its qualifier into a single instruction.
// Qualifiers are not range checked; an out of range qualifier does not survive Decode.
func Encode(varCount int, symbol Symbol, qualifier int) int {
	switch symbol {
	case InputArgument:
		return int(InputArgument) + qualifier
	case WorkingVariable:
		return int(InputArgument) + varCount + qualifiedStride*qualifier + workingVariableOffset
	case AssignWorkingVariable:
		return int(InputArgument) + varCount + qualifiedStride*qualifier + assignWorkingVariableOffset
	case DoubleLiteral:
		return int(InputArgument) + varCount + qualifiedStride*qualifier + doubleLiteralOffset
	case IntegerLiteral:
		return int(InputArgument) + varCount + qualifiedStride*qualifier + integerLiteralOffset
	}
	return int(symbol)
}

// Decode unpacks an instruction into its symbol and qualifier
func Decode(varCount int, instruction int) (Symbol, int) {
	if instruction < int(InputArgument) {
		return Symbol(instruction), 0
	}

	instruction -= int(InputArgument)
	if instruction < varCount {
		return InputArgument, instruction
	}

	instruction -= varCount
	qualifier := instruction / qualifiedStride
	switch instruction % qualifiedStride {
	case workingVariableOffset:
		return WorkingVariable, qualifier
	case assignWorkingVariableOffset:
		return AssignWorkingVariable, qualifier
	case doubleLiteralOffset:
		return DoubleLiteral, qualifier
	default:
		return IntegerLiteral, qualifier
	}
}
