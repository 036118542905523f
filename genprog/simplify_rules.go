package genprog

// simplifyConstant turns a double literal holding a whole number into an integer literal
func (s *simplifier) simplifyConstant(t *CallTree) *CallTree {
	if t.symbol != DoubleLiteral {
		return nil
	}
	v := s.value(t)
	if !fitsIntegerLiteral(v) {
		return nil
	}
	s.applied("DoubleLiteral => IntegerLiteral")
	return s.constant(v)
}

func (s *simplifier) replaceAssignmentToSelf(t *CallTree) *CallTree {
	if t.symbol != AssignWorkingVariable {
		return nil
	}
	operand := t.operand()
	if (operand.symbol == WorkingVariable || operand.symbol == AssignWorkingVariable) && operand.qualifier == t.qualifier {
		// (a:=a) => a, (a:=(a:=x)) => (a:=x)
		s.applied("assignment of variable to itself")
		return operand
	}
	return nil
}

// foldConstants evaluates a node whose children are all constants
func (s *simplifier) foldConstants(t *CallTree) *CallTree {
	switch t.symbol {
	case InputArgument, WorkingVariable, AssignWorkingVariable, Mov, While:
		return nil
	}
	if t.NumChildren() == 0 {
		return nil
	}
	for _, child := range t.Children() {
		if !child.IsConstant() {
			return nil
		}
	}

	folded := t.Clone()
	state := NewRuntimeState(nil)
	v := folded.Run(state, s.constants)
	if state.Overflowed() {
		return nil
	}
	s.applied("expression of constants => constant")
	return s.constant(v)
}

func (s *simplifier) simplifyPreEvaluatedArgs(t *CallTree) *CallTree {
	for i, arg := range t.args {
		simplified := s.simplify(arg)
		if t.symbol.TakesBooleanPreEvaluatedArgs() {
			if unwrapped := s.unwrapBoolean(orElse(simplified, arg)); unwrapped != nil {
				simplified = unwrapped
			}
		}
		if simplified != nil {
			return t.withArg(i, simplified)
		}
	}
	return nil
}

func (s *simplifier) simplifyConditionalChildren(t *CallTree) *CallTree {
	for i, cond := range t.conds {
		simplified := s.simplify(cond)
		// Only the guard of a While is used for its truth
		if t.symbol.TakesBooleanConditionalChildren() && (i == 0 || t.symbol != While) {
			if unwrapped := s.unwrapBoolean(orElse(simplified, cond)); unwrapped != nil {
				simplified = unwrapped
			}
		}
		if simplified != nil {
			return t.withCond(i, simplified)
		}
	}
	return nil
}

func orElse(t, otherwise *CallTree) *CallTree {
	if t != nil {
		return t
	}
	return otherwise
}

// unwrapBoolean rewrites a tree whose value is only observed through its truth
func (s *simplifier) unwrapBoolean(t *CallTree) *CallTree {
	switch t.symbol {
	case Eq, Neq:
		for _, pair := range [][2]*CallTree{{t.lhs(), t.rhs()}, {t.rhs(), t.lhs()}} {
			zero, exp := pair[0], pair[1]
			if !s.isConstantValue(zero, 0) {
				continue
			}
			if t.symbol == Neq {
				s.applied("0 <> exp => exp")
				return exp
			}
			s.applied("0 = exp => NOT exp")
			return negation(exp)
		}
	case If:
		if !t.LacksSideEffects() {
			return nil
		}
		guard, body := t.args[0], t.conds[0]
		if guard.symbol == LogicalNot && guard.operand().Equal(body) {
			s.applied("IF NOT exp THEN exp => 0")
			return s.boolean(false)
		}
		if body.symbol == LogicalNot && body.operand().Equal(guard) {
			s.applied("IF exp THEN NOT exp => 0")
			return s.boolean(false)
		}
		if guard.Equal(body) {
			s.applied("IF exp THEN exp => exp")
			return guard
		}
	case Ifelse:
		yes, no := t.conds[0], t.conds[1]
		if !yes.IsConstant() || !no.IsConstant() {
			return nil
		}
		switch yesTruth, noTruth := s.truth(yes), s.truth(no); {
		case yesTruth && !noTruth:
			s.applied("IF exp THEN true ELSE false => exp")
			return t.args[0]
		case !yesTruth && noTruth:
			s.applied("IF exp THEN false ELSE true => NOT exp")
			return negation(t.args[0])
		default:
			s.applied("IF exp THEN c ELSE c => exp=>c")
			return s.chain(t.args[0], s.boolean(yesTruth))
		}
	}
	return nil
}

// replaceEquivalentOperands rewrites operations whose operands are identical and free of side effects
func (s *simplifier) replaceEquivalentOperands(t *CallTree) *CallTree {
	if t.NumChildren() != 2 || !t.LacksSideEffects() {
		return nil
	}
	lhs, rhs := t.lhs(), t.rhs()
	switch t.symbol {
	case Eq, Gteq, Lteq:
		if lhs.Equal(rhs) {
			s.applied("exp = exp => true")
			return s.boolean(true)
		}
	case Gt, Lt, Neq:
		if lhs.Equal(rhs) {
			s.applied("exp < exp => false")
			return s.boolean(false)
		}
	case Div:
		// Only a whole number is guaranteed to be far enough from zero to be divided by
		if lhs.Equal(rhs) && rhs.NeverZero(s.constants) && rhs.IsIntegral(s.constants) {
			s.applied("exp / exp => 1")
			return s.integer(1)
		}
	case LogicalAnd, LogicalOr, LogicalXor:
		if lhs.Equal(rhs) {
			if t.symbol == LogicalXor {
				s.applied("exp XOR exp => false")
				return s.boolean(false)
			}
			s.applied("exp AND exp => exp <> 0")
			return s.limitToZeroOrOne(lhs)
		}
		if (lhs.symbol == LogicalNot && lhs.operand().Equal(rhs)) || (rhs.symbol == LogicalNot && rhs.operand().Equal(lhs)) {
			s.applied("exp op NOT exp => constant")
			return s.boolean(t.symbol != LogicalAnd)
		}
	case Add, Sub:
		return s.summariseTerms(t)
	}
	return nil
}

func (s *simplifier) summariseTerms(t *CallTree) *CallTree {
	lhs, rhs := t.lhs(), t.rhs()
	if lhs.Equal(rhs) {
		if t.symbol == Sub {
			s.applied("exp - exp => 0")
			return s.integer(0)
		}
		s.applied("exp + exp => 2 * exp")
		return newCallTree(Mul, 0, s.integer(2), lhs)
	}

	one := func() *CallTree { return s.integer(1) }
	if lhs.symbol == Mul {
		if rhs.Equal(lhs.rhs()) {
			s.applied("(n * exp) +- exp => (n +- 1) * exp")
			return newCallTree(Mul, 0, newCallTree(t.symbol, 0, lhs.lhs(), one()), rhs)
		}
		if rhs.Equal(lhs.lhs()) {
			s.applied("(exp * n) +- exp => (n +- 1) * exp")
			return newCallTree(Mul, 0, newCallTree(t.symbol, 0, lhs.rhs(), one()), rhs)
		}
	}
	if rhs.symbol == Mul {
		if lhs.Equal(rhs.rhs()) {
			s.applied("exp +- (n * exp) => (1 +- n) * exp")
			return newCallTree(Mul, 0, newCallTree(t.symbol, 0, one(), rhs.lhs()), lhs)
		}
		if lhs.Equal(rhs.lhs()) {
			s.applied("exp +- (exp * n) => (1 +- n) * exp")
			return newCallTree(Mul, 0, newCallTree(t.symbol, 0, one(), rhs.rhs()), lhs)
		}
	}

	if lhs.symbol == Mul && rhs.symbol == Mul {
		var common, lhsFactor, rhsFactor *CallTree
		switch {
		case lhs.lhs().Equal(rhs.lhs()):
			common, lhsFactor, rhsFactor = lhs.lhs(), lhs.rhs(), rhs.rhs()
		case lhs.lhs().Equal(rhs.rhs()):
			common, lhsFactor, rhsFactor = lhs.lhs(), lhs.rhs(), rhs.lhs()
		case lhs.rhs().Equal(rhs.lhs()):
			common, lhsFactor, rhsFactor = lhs.rhs(), lhs.lhs(), rhs.rhs()
		case lhs.rhs().Equal(rhs.rhs()):
			common, lhsFactor, rhsFactor = lhs.rhs(), lhs.lhs(), rhs.lhs()
		default:
			return nil
		}
		s.applied("(n * exp) +- (m * exp) => (n +- m) * exp")
		return newCallTree(Mul, 0, newCallTree(t.symbol, 0, lhsFactor, rhsFactor), common)
	}
	return nil
}

func (s *simplifier) replaceSymmetricTernary(t *CallTree) *CallTree {
	if t.symbol != Ifelse {
		return nil
	}
	guard, yes, no := t.args[0], t.conds[0], t.conds[1]
	if yes.Equal(no) {
		s.applied("IF exp1 THEN exp2 ELSE exp2 => exp1=>exp2")
		return s.chain(guard, yes)
	}
	if guard.Equal(yes) && s.isConstantValue(no, 0) && t.LacksSideEffects() {
		s.applied("IF exp THEN exp ELSE 0 => exp")
		return guard
	}
	if guard.Equal(no) && !s.isConstantValue(no, 0) && guard.LacksSideEffects() {
		// The else branch only runs when the guard, and therefore the branch, is zero
		s.applied("IF exp1 THEN exp2 ELSE exp1 => IF exp1 THEN exp2 ELSE 0")
		return t.withCond(1, s.integer(0))
	}
	return nil
}

func (s *simplifier) pruneChain(t *CallTree) *CallTree {
	if t.symbol == Chain && t.lhs().LacksSideEffects() {
		s.applied("exp1=>exp2 => exp2")
		return t.rhs()
	}
	return nil
}

var negatedRelations = map[Symbol]Symbol{
	Eq:   Neq,
	Neq:  Eq,
	Gt:   Lteq,
	Gteq: Lt,
	Lt:   Gteq,
	Lteq: Gt,
}

var mirroredRelations = map[Symbol]Symbol{
	Eq:   Eq,
	Neq:  Neq,
	Gt:   Lt,
	Gteq: Lteq,
	Lt:   Gt,
	Lteq: Gteq,
}

func (s *simplifier) simplifyNegation(t *CallTree) *CallTree {
	if t.symbol != LogicalNot {
		return nil
	}
	operand := t.operand()
	switch {
	case operand.symbol == LogicalNot:
		s.applied("NOT NOT exp => exp <> 0")
		return s.limitToZeroOrOne(operand.operand())
	case operand.symbol == LogicalXor && operand.lhs().IsBoolean() && operand.rhs().IsBoolean():
		s.applied("NOT (a XOR b) => a = b")
		return newCallTree(Eq, 0, operand.lhs(), operand.rhs())
	case operand.symbol.IsRelational():
		s.applied("NOT (a relop b) => a negated-relop b")
		return newCallTree(negatedRelations[operand.symbol], 0, operand.lhs(), operand.rhs())
	case (operand.symbol == LogicalAnd || operand.symbol == LogicalOr) && operand.lhs().symbol == LogicalNot && operand.rhs().symbol == LogicalNot:
		// De Morgan
		dual := LogicalAnd
		if operand.symbol == LogicalAnd {
			dual = LogicalOr
		}
		s.applied("NOT (NOT a AND NOT b) => a OR b")
		return newCallTree(dual, 0, operand.lhs().operand(), operand.rhs().operand())
	}
	return nil
}

func (s *simplifier) moveConstantToLhs(t *CallTree) *CallTree {
	if t.NumChildren() == 2 && t.rhs().IsConstant() && !t.lhs().IsConstant() && t.IsSemanticallyCommutative() {
		s.applied("exp op constant => constant op exp")
		return newCallTree(t.symbol, 0, t.rhs(), t.lhs())
	}
	return nil
}

func (s *simplifier) groupConstants(t *CallTree) *CallTree {
	if !t.symbol.IsAssociative() {
		return nil
	}
	lhs, rhs := t.lhs(), t.rhs()
	if lhs.IsConstant() && rhs.symbol == t.symbol && rhs.lhs().IsConstant() && !rhs.rhs().IsConstant() {
		// c1 op (c2 op exp) => (c1 op c2) op exp
		s.applied("grouping constants of associative chain")
		return newCallTree(t.symbol, 0, newCallTree(t.symbol, 0, lhs, rhs.lhs()), rhs.rhs())
	}
	if rhs.IsConstant() && lhs.symbol == t.symbol && lhs.rhs().IsConstant() && !lhs.lhs().IsConstant() {
		// (exp op c2) op c1 => (c1 op c2) op exp, which stops evaluating exp first for short circuiting operators
		exp := lhs.lhs()
		if len(t.conds) > 0 && !exp.LacksSideEffects() {
			return nil
		}
		s.applied("grouping constants of associative chain")
		return newCallTree(t.symbol, 0, newCallTree(t.symbol, 0, rhs, lhs.rhs()), exp)
	}
	return nil
}

func (s *simplifier) replaceTernaryWithNoopBranch(t *CallTree) *CallTree {
	if t.symbol != Ifelse {
		return nil
	}
	guard, yes, no := t.args[0], t.conds[0], t.conds[1]
	if no.symbol == Noop {
		s.applied("IF exp1 THEN exp2 ELSE Noop => IF exp1 THEN exp2")
		return newCallTree(If, 0, guard, yes)
	}
	if yes.symbol == Noop {
		s.applied("IF exp1 THEN Noop ELSE exp2 => IF NOT exp1 THEN exp2")
		return newCallTree(If, 0, negation(guard), no)
	}
	return nil
}

func (s *simplifier) simplifyArithmetic(t *CallTree) *CallTree {
	if !t.symbol.IsArithmetic() {
		return nil
	}
	if r := s.simplifyArithmeticOperands(t.symbol, t.lhs(), t.rhs()); r != nil {
		return r
	}
	if t.symbol.IsCommutative() {
		return s.simplifyArithmeticOperands(t.symbol, t.rhs(), t.lhs())
	}
	return nil
}

func (s *simplifier) simplifyArithmeticOperands(symbol Symbol, lhs, rhs *CallTree) *CallTree {
	if lhs.IsConstant() {
		v := s.value(lhs)
		switch {
		case symbol == Add && v.IsZero():
			s.applied("0 + exp => exp")
			return rhs
		case (symbol == Mul || symbol == Div) && v.IsZero():
			// Division of zero yields zero whatever the divisor
			s.applied("0 * exp => exp=>0")
			return s.chain(rhs, lhs)
		case symbol == Mul && v.Equal(oneValue):
			s.applied("1 * exp => exp")
			return rhs
		}
	}
	if rhs.IsConstant() && symbol == Div {
		v := s.value(rhs)
		if v.Equal(oneValue) || v.Abs().LessThanOrEqual(divisionThreshold) {
			s.applied("exp / 1 => exp")
			return lhs
		}
	}
	return nil
}

// simplifyRelational compares a boolean operand against one of known sign
func (s *simplifier) simplifyRelational(t *CallTree) *CallTree {
	if !t.symbol.IsRelational() {
		return nil
	}
	if t.symbol == Neq && t.lhs().IsBoolean() && t.rhs().IsBoolean() {
		s.applied("boolean <> boolean => boolean XOR boolean")
		return newCallTree(LogicalXor, 0, t.lhs(), t.rhs())
	}
	if r := s.compareWithBoolean(t.symbol, t.lhs(), t.rhs()); r != nil {
		return r
	}
	return s.compareWithBoolean(mirroredRelations[t.symbol], t.rhs(), t.lhs())
}

type relationOutcome int

const (
	outcomeFalse relationOutcome = iota
	outcomeTrue
	outcomeOperand
	outcomeNegatedOperand
)

// Outcomes of (c relop b) for a boolean b, by what is known about c
var (
	outcomesAboveOne = map[Symbol]relationOutcome{
		Eq: outcomeFalse, Neq: outcomeTrue, Lt: outcomeFalse, Lteq: outcomeFalse, Gt: outcomeTrue, Gteq: outcomeTrue,
	}
	outcomesBetweenZeroAndOne = map[Symbol]relationOutcome{
		Eq: outcomeFalse, Neq: outcomeTrue, Lt: outcomeOperand, Lteq: outcomeOperand, Gt: outcomeNegatedOperand, Gteq: outcomeNegatedOperand,
	}
	outcomesOne = map[Symbol]relationOutcome{
		Eq: outcomeOperand, Neq: outcomeNegatedOperand, Lt: outcomeFalse, Lteq: outcomeOperand, Gt: outcomeNegatedOperand, Gteq: outcomeTrue,
	}
	outcomesNegative = map[Symbol]relationOutcome{
		Eq: outcomeFalse, Neq: outcomeTrue, Lt: outcomeTrue, Lteq: outcomeTrue, Gt: outcomeFalse, Gteq: outcomeFalse,
	}
	outcomesZero = map[Symbol]relationOutcome{
		Eq: outcomeNegatedOperand, Neq: outcomeOperand, Lt: outcomeOperand, Lteq: outcomeTrue, Gt: outcomeFalse, Gteq: outcomeNegatedOperand,
	}
)

func (s *simplifier) compareWithBoolean(symbol Symbol, c, b *CallTree) *CallTree {
	if !b.IsBoolean() || !c.LacksSideEffects() {
		return nil
	}

	var outcomes map[Symbol]relationOutcome
	switch {
	case c.IsConstant() && s.value(c).GreaterThan(oneValue):
		outcomes = outcomesAboveOne
	case c.IsConstant() && s.value(c).Equal(oneValue):
		outcomes = outcomesOne
	case c.IsConstant() && s.value(c).IsPositive():
		outcomes = outcomesBetweenZeroAndOne
	case c.IsNegative(s.constants):
		outcomes = outcomesNegative
	case c.IsZero(s.constants):
		outcomes = outcomesZero
	default:
		return nil
	}

	s.applied("comparison of boolean with operand of known sign")
	switch outcomes[symbol] {
	case outcomeFalse:
		return s.chain(b, s.boolean(false))
	case outcomeTrue:
		return s.chain(b, s.boolean(true))
	case outcomeOperand:
		return b
	default:
		return negation(b)
	}
}

// simplifyLogicalWithConstant rewrites AND, OR and XOR with a constant operand
func (s *simplifier) simplifyLogicalWithConstant(t *CallTree) *CallTree {
	if t.symbol != LogicalAnd && t.symbol != LogicalOr && t.symbol != LogicalXor {
		return nil
	}
	lhs, rhs := t.lhs(), t.rhs()
	if lhs.IsConstant() {
		value := s.truth(lhs)
		switch {
		case t.symbol == LogicalXor && value:
			s.applied("true XOR exp => NOT exp")
			return negation(rhs)
		case t.symbol == LogicalXor:
			s.applied("false XOR exp => exp <> 0")
			return s.limitToZeroOrOne(rhs)
		case value == (t.symbol == LogicalOr):
			// The rhs is never evaluated
			s.applied("short circuited logical operation => constant")
			return s.boolean(value)
		default:
			s.applied("logical operation with neutral constant => exp <> 0")
			return s.limitToZeroOrOne(rhs)
		}
	}
	if rhs.IsConstant() {
		value := s.truth(rhs)
		switch {
		case t.symbol == LogicalXor && value:
			s.applied("exp XOR true => NOT exp")
			return negation(lhs)
		case t.symbol == LogicalXor:
			s.applied("exp XOR false => exp <> 0")
			return s.limitToZeroOrOne(lhs)
		case value == (t.symbol == LogicalOr):
			s.applied("logical operation with absorbing constant => exp=>constant")
			return s.chain(lhs, s.boolean(value))
		default:
			s.applied("logical operation with neutral constant => exp <> 0")
			return s.limitToZeroOrOne(lhs)
		}
	}
	return nil
}

// replaceSubtractionOfConstant normalizes exp - c into -c + exp
func (s *simplifier) replaceSubtractionOfConstant(t *CallTree) *CallTree {
	if t.symbol != Sub || !t.rhs().IsConstant() {
		return nil
	}
	if t.rhs().symbol == Noop {
		s.applied("exp - Noop => exp")
		return t.lhs()
	}
	s.applied("exp - c => -c + exp")
	return newCallTree(Add, 0, s.constant(s.value(t.rhs()).Neg()), t.lhs())
}

func (s *simplifier) simplifyConditionalEvaluation(t *CallTree) *CallTree {
	switch t.symbol {
	case If:
		guard := t.args[0]
		if !guard.IsConstant() {
			return nil
		}
		if s.truth(guard) {
			s.applied("IF true THEN exp => exp")
			return t.conds[0]
		}
		s.applied("IF false THEN exp => Noop")
		return newLeaf(Noop, 0)
	case While:
		guard := t.conds[0]
		if guard.IsConstant() && !s.truth(guard) {
			s.applied("WHILE false DO exp => Noop")
			return newLeaf(Noop, 0)
		}
	case Ifelse:
		guard := t.args[0]
		if guard.IsConstant() {
			s.applied("IF constant THEN exp1 ELSE exp2 => exp1 or exp2")
			if s.truth(guard) {
				return t.conds[0]
			}
			return t.conds[1]
		}
		if guard.symbol == LogicalNot {
			s.applied("IF NOT exp THEN exp1 ELSE exp2 => IF exp THEN exp2 ELSE exp1")
			return newCallTree(Ifelse, 0, guard.operand(), t.conds[1], t.conds[0])
		}
	}
	return nil
}
