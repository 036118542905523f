package genprog

// slotSet is a set of working variable slots. A set containing all slots stays full:
// removing from it is a no-op.
type slotSet struct {
	all   bool
	slots map[int]struct{}
}

func newSlotSet() *slotSet {
	return &slotSet{slots: make(map[int]struct{})}
}

func (s *slotSet) copy() *slotSet {
	c := &slotSet{all: s.all, slots: make(map[int]struct{}, len(s.slots))}
	for slot := range s.slots {
		c.slots[slot] = struct{}{}
	}
	return c
}

func (s *slotSet) add(slot int) {
	s.slots[slot] = struct{}{}
}

func (s *slotSet) remove(slot int) {
	if !s.all {
		delete(s.slots, slot)
	}
}

func (s *slotSet) has(slot int) bool {
	if s.all {
		return true
	}
	_, ok := s.slots[slot]
	return ok
}

func (s *slotSet) union(other *slotSet) {
	s.all = s.all || other.all
	for slot := range other.slots {
		s.slots[slot] = struct{}{}
	}
}

// collectAssigned adds every slot the tree may write to
func collectAssigned(t *CallTree, set *slotSet) {
	switch t.symbol {
	case AssignWorkingVariable:
		set.add(t.qualifier)
	case Mov:
		set.all = true
	}
	for _, child := range t.Children() {
		collectAssigned(child, set)
	}
}

// collectRead adds every slot the tree may read
func collectRead(t *CallTree, set *slotSet) {
	if t.symbol == WorkingVariable {
		set.add(t.qualifier)
	}
	for _, child := range t.Children() {
		collectRead(child, set)
	}
}

// purgeUnassignedVariables replaces reads of working variables that can only hold zero with the constant zero,
// and drops assignments of zero to them. The analysis tracks the slots that may be nonzero, in evaluation order.
func (s *simplifier) purgeUnassignedVariables(tree *CallTree) *CallTree {
	return s.purgeUnassigned(tree, newSlotSet())
}

func (s *simplifier) purgeUnassigned(t *CallTree, nonzero *slotSet) *CallTree {
	switch t.symbol {
	case WorkingVariable:
		if !nonzero.has(t.qualifier) {
			s.applied("read of unassigned variable => 0")
			return s.integer(0)
		}
		return nil

	case AssignWorkingVariable:
		if r := s.purgeUnassigned(t.operand(), nonzero); r != nil {
			return t.withArg(0, r)
		}
		if t.operand().Sign(s.constants) == SignZero {
			if !nonzero.has(t.qualifier) {
				s.applied("assignment of zero to unassigned variable => 0")
				return t.operand()
			}
			nonzero.remove(t.qualifier)
		} else {
			nonzero.add(t.qualifier)
		}
		return nil

	case While:
		scan := nonzero.copy()
		collectAssigned(t, scan)
		iteration := scan.copy()
		for i, cond := range t.conds {
			if r := s.purgeUnassigned(cond, iteration); r != nil {
				return t.withCond(i, r)
			}
		}
		nonzero.union(scan)
		nonzero.union(iteration)
		return nil

	case Ifelse:
		if r := s.purgeUnassigned(t.args[0], nonzero); r != nil {
			return t.withArg(0, r)
		}
		var branches []*slotSet
		for i, cond := range t.conds {
			branch := nonzero.copy()
			if r := s.purgeUnassigned(cond, branch); r != nil {
				return t.withCond(i, r)
			}
			branches = append(branches, branch)
		}
		*nonzero = *branches[0]
		nonzero.union(branches[1])
		return nil
	}

	for i, arg := range t.args {
		if r := s.purgeUnassigned(arg, nonzero); r != nil {
			return t.withArg(i, r)
		}
	}
	for i, cond := range t.conds {
		branch := nonzero.copy()
		if r := s.purgeUnassigned(cond, branch); r != nil {
			return t.withCond(i, r)
		}
		nonzero.union(branch)
	}
	if t.symbol == Mov {
		nonzero.all = true
	}
	return nil
}

// purgeUnusedAssignments drops assignments whose value is never read afterwards, keeping the assigned expression.
// The analysis tracks live slots backwards from the end of the program.
func (s *simplifier) purgeUnusedAssignments(tree *CallTree) *CallTree {
	return s.purgeUnused(tree, newSlotSet(), false)
}

func (s *simplifier) purgeUnused(t *CallTree, live *slotSet, inLoop bool) *CallTree {
	switch t.symbol {
	case WorkingVariable:
		live.add(t.qualifier)
		return nil

	case AssignWorkingVariable:
		if !live.has(t.qualifier) {
			s.applied("assignment to variable that is never read => exp")
			return t.operand()
		}
		// A later iteration of an enclosing loop may still read the previous value
		if !inLoop {
			live.remove(t.qualifier)
		}
		if r := s.purgeUnused(t.operand(), live, inLoop); r != nil {
			return t.withArg(0, r)
		}
		return nil

	case While:
		scan := live.copy()
		collectRead(t, scan)
		for i := len(t.conds) - 1; i >= 0; i-- {
			if r := s.purgeUnused(t.conds[i], scan, true); r != nil {
				return t.withCond(i, r)
			}
		}
		live.union(scan)
		return nil

	case Ifelse:
		var branches []*slotSet
		for i, cond := range t.conds {
			branch := live.copy()
			if r := s.purgeUnused(cond, branch, inLoop); r != nil {
				return t.withCond(i, r)
			}
			branches = append(branches, branch)
		}
		for _, branch := range branches {
			live.union(branch)
		}
		if r := s.purgeUnused(t.args[0], live, inLoop); r != nil {
			return t.withArg(0, r)
		}
		return nil
	}

	for i := len(t.conds) - 1; i >= 0; i-- {
		branch := live.copy()
		if r := s.purgeUnused(t.conds[i], branch, inLoop); r != nil {
			return t.withCond(i, r)
		}
		live.union(branch)
	}
	for i := len(t.args) - 1; i >= 0; i-- {
		if r := s.purgeUnused(t.args[i], live, inLoop); r != nil {
			return t.withArg(i, r)
		}
	}
	return nil
}

// facts maps working variable slots to expressions they are known to hold the value of.
// Every expression is side effects neutral.
type facts map[int]*CallTree

func (f facts) copy() facts {
	c := make(facts, len(f))
	for slot, exp := range f {
		c[slot] = exp
	}
	return c
}

// intersect keeps the facts that also hold in other
func (f facts) intersect(other facts) {
	for slot, exp := range f {
		if !exp.Equal(other[slot]) {
			delete(f, slot)
		}
	}
}

func (f facts) clear() {
	for slot := range f {
		delete(f, slot)
	}
}

// purgeRedundantUsages replaces reads of working variables known to hold the value of a side effects neutral
// expression with that expression. This can make the tree longer, but often leaves the assignment unused.
func (s *simplifier) purgeRedundantUsages(tree *CallTree) *CallTree {
	return s.purgeRedundant(tree, make(facts))
}

func (s *simplifier) purgeRedundant(t *CallTree, known facts) *CallTree {
	switch t.symbol {
	case WorkingVariable:
		if exp, ok := known[t.qualifier]; ok {
			s.applied("read of variable holding known expression => expression")
			return exp.Clone()
		}
		return nil

	case AssignWorkingVariable:
		if r := s.purgeRedundant(t.operand(), known); r != nil {
			return t.withArg(0, r)
		}
		if t.operand().SideEffectsNeutral() {
			known[t.qualifier] = t.operand()
		} else {
			delete(known, t.qualifier)
		}
		return nil

	case While:
		assigned := newSlotSet()
		collectAssigned(t, assigned)
		if assigned.all {
			known.clear()
		}
		for slot := range assigned.slots {
			delete(known, slot)
		}
		guarded := known.copy()
		if r := s.purgeRedundant(t.conds[0], guarded); r != nil {
			return t.withCond(0, r)
		}
		if r := s.purgeRedundant(t.conds[1], guarded.copy()); r != nil {
			return t.withCond(1, r)
		}
		known.clear()
		for slot, exp := range guarded {
			known[slot] = exp
		}
		return nil

	case Ifelse:
		if r := s.purgeRedundant(t.args[0], known); r != nil {
			return t.withArg(0, r)
		}
		var branches []facts
		for i, cond := range t.conds {
			branch := known.copy()
			if r := s.purgeRedundant(cond, branch); r != nil {
				return t.withCond(i, r)
			}
			branches = append(branches, branch)
		}
		known.clear()
		for slot, exp := range branches[0] {
			known[slot] = exp
		}
		known.intersect(branches[1])
		return nil
	}

	for i, arg := range t.args {
		if r := s.purgeRedundant(arg, known); r != nil {
			return t.withArg(i, r)
		}
	}
	for i, cond := range t.conds {
		branch := known.copy()
		if r := s.purgeRedundant(cond, branch); r != nil {
			return t.withCond(i, r)
		}
		known.intersect(branch)
	}
	if t.symbol == Mov {
		known.clear()
	}
	return nil
}
