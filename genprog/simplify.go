package genprog

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Upper bound on the number of rewrite steps Simplify takes before giving up on reaching a fixpoint
const maxSimplifySteps = 10000

// Largest magnitude of a whole number stored as an IntegerLiteral
const maxIntegerLiteral = math.MaxInt32

// simplifier rewrites CallTrees into shorter equivalents. New literals are included in constants.
type simplifier struct {
	constants *ConstantPool
	log       *zap.Logger
}

func newSimplifier(constants *ConstantPool, logger *zap.Logger) *simplifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &simplifier{constants: constants, log: logger}
}

func (s *simplifier) applied(rule string) {
	s.log.Debug("rewrite", zap.String("rule", rule))
}

// step applies one rewrite followed by one application of each dataflow pass.
// It returns nil if nothing changed.
func (s *simplifier) step(tree *CallTree) *CallTree {
	tree.Reset()
	changed := false
	for _, rewrite := range []func(*CallTree) *CallTree{
		s.simplify,
		s.purgeUnassignedVariables,
		s.purgeUnusedAssignments,
		s.purgeRedundantUsages,
	} {
		if rewritten := rewrite(tree); rewritten != nil {
			tree = rewritten
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return tree
}

// fixpoint steps until nothing changes
func (s *simplifier) fixpoint(tree *CallTree) *CallTree {
	for i := 0; i < maxSimplifySteps; i++ {
		next := s.step(tree)
		if next == nil {
			break
		}
		tree = next
	}
	return tree
}

// simplify applies the first applicable rewrite to the tree, returning nil if there is none
func (s *simplifier) simplify(t *CallTree) *CallTree {
	if r := s.simplifyConstant(t); r != nil {
		return r
	}
	if r := s.replaceAssignmentToSelf(t); r != nil {
		return r
	}

	anyConstant := false
	for _, child := range t.Children() {
		if child.IsConstant() {
			anyConstant = true
			break
		}
	}
	if anyConstant {
		if r := s.foldConstants(t); r != nil {
			return r
		}
	}

	for _, rewrite := range []func(*CallTree) *CallTree{
		s.simplifyPreEvaluatedArgs,
		s.simplifyConditionalChildren,
		s.replaceEquivalentOperands,
		s.replaceSymmetricTernary,
		s.pruneChain,
		s.simplifyNegation,
	} {
		if r := rewrite(t); r != nil {
			return r
		}
	}

	if !anyConstant {
		return nil
	}

	// Normalizations that enable further rewrites of their result
	for _, rewrite := range []func(*CallTree) *CallTree{
		s.moveConstantToLhs,
		s.groupConstants,
	} {
		if r := rewrite(t); r != nil {
			if further := s.simplify(r); further != nil {
				return further
			}
			return r
		}
	}

	for _, rewrite := range []func(*CallTree) *CallTree{
		s.replaceTernaryWithNoopBranch,
		s.simplifyArithmetic,
		s.simplifyRelational,
		s.simplifyLogicalWithConstant,
		s.replaceSubtractionOfConstant,
		s.simplifyConditionalEvaluation,
	} {
		if r := rewrite(t); r != nil {
			return r
		}
	}
	return nil
}

func (s *simplifier) value(t *CallTree) decimal.Decimal {
	return s.constants.Value(t.symbol, t.qualifier)
}

// isConstantValue reports whether t is a constant with exactly the value v
func (s *simplifier) isConstantValue(t *CallTree, v int64) bool {
	return t.IsConstant() && s.value(t).Equal(decimal.NewFromInt(v))
}

func (s *simplifier) truth(t *CallTree) bool {
	return truth(s.value(t))
}

func (s *simplifier) sign(t *CallTree) Sign {
	return t.Sign(s.constants)
}

// constant creates a literal of the value; whole numbers become IntegerLiterals
func (s *simplifier) constant(v decimal.Decimal) *CallTree {
	if fitsIntegerLiteral(v) {
		return newLeaf(IntegerLiteral, s.constants.Integers.Include(int(v.IntPart())))
	}
	return newLeaf(DoubleLiteral, s.constants.Doubles.Include(v.InexactFloat64()))
}

func (s *simplifier) integer(v int64) *CallTree {
	return s.constant(decimal.NewFromInt(v))
}

func fitsIntegerLiteral(v decimal.Decimal) bool {
	return v.IsInteger() && v.Abs().LessThanOrEqual(decimal.NewFromInt(maxIntegerLiteral))
}

func (s *simplifier) boolean(b bool) *CallTree {
	return s.constant(boolValue(b))
}

// chain evaluates lhs for its side effects only, before rhs
func (s *simplifier) chain(lhs, rhs *CallTree) *CallTree {
	if lhs.LacksSideEffects() {
		return rhs
	}
	return newCallTree(Chain, 0, lhs, rhs)
}

func negation(t *CallTree) *CallTree {
	return newCallTree(LogicalNot, 0, t)
}

// limitToZeroOrOne converts t into an expression evaluating to 1 where t is true and 0 otherwise
func (s *simplifier) limitToZeroOrOne(t *CallTree) *CallTree {
	if t.IsBoolean() {
		return t
	}
	if t.NeverZero(s.constants) {
		s.applied("exp that is never zero => exp=>1")
		return s.chain(t, s.boolean(true))
	}
	s.applied("exp => 0 <> exp")
	return newCallTree(Neq, 0, s.integer(0), t)
}

// Simplify rewrites the tree until no rewrite applies, returning nil if none did. New literals are included
// in constants.
func (t *CallTree) Simplify(constants *ConstantPool) *CallTree {
	s := newSimplifier(constants, nil)
	next := s.step(t)
	if next == nil {
		return nil
	}
	return s.fixpoint(next)
}

// Simplify rewrites the program into an equivalent one, until no rewrite applies
func (p *Program) Simplify() *Program {
	return p.SimplifyLogged(nil)
}

// SimplifyLogged is Simplify, logging every applied rewrite at debug level
func (p *Program) SimplifyLogged(logger *zap.Logger) *Program {
	constants := p.constants.Copy()
	s := newSimplifier(constants, logger)
	tree := s.fixpoint(p.Decode())
	return p.fromTree(tree, constants)
}

// SimplifyStep applies a single rewrite and dataflow pass round, returning nil if the program is already simplified
func (p *Program) SimplifyStep() *Program {
	constants := p.constants.Copy()
	s := newSimplifier(constants, nil)
	tree := s.step(p.Decode())
	if tree == nil {
		return nil
	}
	return p.fromTree(tree, constants)
}

func (p *Program) fromTree(tree *CallTree, constants *ConstantPool) *Program {
	simplified := FromCode(p.varCount, tree.Encode(p.varCount, nil), constants, p.workingVariableCount)
	simplified.language = p.language
	simplified.purgeUnusedConstants()
	return simplified
}
