package genprog

// HasAssignment reports whether any node of the tree writes a working variable
func (t *CallTree) HasAssignment() bool {
	if t.symbol == AssignWorkingVariable || t.symbol == Mov {
		return true
	}
	for _, child := range t.args {
		if child.HasAssignment() {
			return true
		}
	}
	for _, child := range t.conds {
		if child.HasAssignment() {
			return true
		}
	}
	return false
}

func (t *CallTree) HasWhileLoop() bool {
	if t.symbol == While {
		return true
	}
	for _, child := range t.args {
		if child.HasWhileLoop() {
			return true
		}
	}
	for _, child := range t.conds {
		if child.HasWhileLoop() {
			return true
		}
	}
	return false
}

// LacksSideEffects reports whether evaluating the tree can neither change the runtime state nor fail to terminate
func (t *CallTree) LacksSideEffects() bool {
	return t.IsConstant() || (!t.HasAssignment() && !t.HasWhileLoop())
}

// SideEffectsNeutral reports whether the value of the tree is independent of any prior side effect
func (t *CallTree) SideEffectsNeutral() bool {
	switch t.symbol {
	case InputArgument:
		return true
	case WorkingVariable:
		return false
	}
	if t.IsConstant() {
		return true
	}
	if !t.LacksSideEffects() {
		return false
	}
	for _, child := range t.args {
		if !child.SideEffectsNeutral() {
			return false
		}
	}
	for _, child := range t.conds {
		if !child.SideEffectsNeutral() {
			return false
		}
	}
	return true
}

// IsSemanticallyCommutative reports whether the operands of a commutative node can be swapped without changing
// the order of any side effect that could be observed
func (t *CallTree) IsSemanticallyCommutative() bool {
	if !t.symbol.IsCommutative() {
		return false
	}
	if t.LacksSideEffects() {
		return true
	}
	return len(t.conds) == 0 && (t.lhs().SideEffectsNeutral() || t.rhs().SideEffectsNeutral())
}
