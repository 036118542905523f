package genprog

import "github.com/shopspring/decimal"

// Sign is a set of the signs a value may possibly have
type Sign uint8

const (
	SignPositive Sign = 1 << iota
	SignNegative
	SignZero

	SignAny = SignPositive | SignNegative | SignZero
)

func (s Sign) String() string {
	if s == 0 {
		return "{}"
	}
	str := "{"
	for _, flag := range []struct {
		sign Sign
		name string
	}{{SignPositive, "+"}, {SignNegative, "-"}, {SignZero, "0"}} {
		if s&flag.sign != 0 {
			if len(str) > 1 {
				str += ","
			}
			str += flag.name
		}
	}
	return str + "}"
}

func signOf(v decimal.Decimal) Sign {
	switch v.Sign() {
	case 1:
		return SignPositive
	case -1:
		return SignNegative
	}
	return SignZero
}

func (s Sign) negate() Sign {
	negated := s & SignZero
	if s&SignPositive != 0 {
		negated |= SignNegative
	}
	if s&SignNegative != 0 {
		negated |= SignPositive
	}
	return negated
}

// combineSigns unions op over every pair of possible signs of the operands
func combineSigns(lhs, rhs Sign, op func(l, r Sign) Sign) Sign {
	var result Sign
	for l := SignPositive; l <= SignZero; l <<= 1 {
		if lhs&l == 0 {
			continue
		}
		for r := SignPositive; r <= SignZero; r <<= 1 {
			if rhs&r != 0 {
				result |= op(l, r)
			}
		}
	}
	return result
}

func addSign(l, r Sign) Sign {
	switch {
	case l == SignZero:
		return r
	case r == SignZero:
		return l
	case l == r:
		return l
	}
	return SignAny
}

func mulSign(l, r Sign) Sign {
	switch {
	case l == SignZero || r == SignZero:
		return SignZero
	case l == r:
		return SignPositive
	}
	return SignNegative
}

// Sign returns the possible signs of the tree's value. Underflow to zero is not accounted for.
func (t *CallTree) Sign(constants *ConstantPool) Sign {
	if t.sign == 0 {
		t.sign = t.computeSign(constants)
	}
	return t.sign
}

func (t *CallTree) computeSign(constants *ConstantPool) Sign {
	if t.IsConstant() {
		return signOf(constants.Value(t.symbol, t.qualifier))
	}
	if t.IsBoolean() {
		return SignPositive | SignZero
	}

	switch t.symbol {
	case InputArgument, WorkingVariable:
		return SignAny
	case AssignWorkingVariable:
		return t.operand().Sign(constants)
	case Mov, Chain:
		return t.rhs().Sign(constants)
	case Ifelse:
		return t.conds[0].Sign(constants) | t.conds[1].Sign(constants)
	case If:
		guard, body := t.args[0], t.conds[0]
		if guard.symbol == LogicalNot && guard.operand().Equal(body) && body.LacksSideEffects() {
			// The body only runs when it is zero
			return SignZero
		}
		if body.symbol == LogicalNot && body.operand().Equal(guard) && guard.LacksSideEffects() {
			return SignZero
		}
		return SignZero | body.Sign(constants)
	case While:
		return SignZero | t.conds[1].Sign(constants)
	case Add:
		return combineSigns(t.lhs().Sign(constants), t.rhs().Sign(constants), addSign)
	case Sub:
		return combineSigns(t.lhs().Sign(constants), t.rhs().Sign(constants).negate(), addSign)
	case Mul:
		return combineSigns(t.lhs().Sign(constants), t.rhs().Sign(constants), mulSign)
	case Div:
		lhs, divisor := t.lhs().Sign(constants), t.rhs()
		if divisor.IsConstant() {
			if constants.Value(divisor.symbol, divisor.qualifier).Abs().LessThanOrEqual(divisionThreshold) {
				return lhs
			}
			return combineSigns(lhs, divisor.Sign(constants), mulSign)
		}
		// Any divisor that is not a constant may come close enough to zero to leave the dividend unchanged
		rhs := divisor.Sign(constants) &^ SignZero
		if rhs == 0 {
			return lhs
		}
		return lhs | combineSigns(lhs, rhs, mulSign)
	}
	return SignAny
}

func (t *CallTree) IsPositive(constants *ConstantPool) bool {
	return t.Sign(constants) == SignPositive
}

func (t *CallTree) IsNegative(constants *ConstantPool) bool {
	return t.Sign(constants) == SignNegative
}

func (t *CallTree) IsZero(constants *ConstantPool) bool {
	return t.Sign(constants) == SignZero
}

func (t *CallTree) NeverZero(constants *ConstantPool) bool {
	return t.Sign(constants)&SignZero == 0
}

// IsIntegral reports whether the tree can only evaluate to whole numbers
func (t *CallTree) IsIntegral(constants *ConstantPool) bool {
	if t.IsConstant() {
		return constants.Value(t.symbol, t.qualifier).IsInteger()
	}
	if t.IsBoolean() {
		return true
	}
	switch t.symbol {
	case Add, Sub, Mul:
		return t.lhs().IsIntegral(constants) && t.rhs().IsIntegral(constants)
	case AssignWorkingVariable:
		return t.operand().IsIntegral(constants)
	case Mov, Chain:
		return t.rhs().IsIntegral(constants)
	case If:
		return t.conds[0].IsIntegral(constants)
	case Ifelse:
		return t.conds[0].IsIntegral(constants) && t.conds[1].IsIntegral(constants)
	}
	return false
}
