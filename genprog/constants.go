package genprog

import (
	"math"
	"math/rand"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// Attempts made at finding a novel value when mutating a constant, before giving up
const maxMutationAttempts = 100

// Parameters of the gaussian factor constants are multiplied by when mutated
const (
	mutationMean   = 1.0
	mutationStdDev = 0.25
)

type Number interface {
	constraints.Integer | constraints.Float
}

// ConstantTable is an ordered list of distinct values. Indices of included values never change.
type ConstantTable[T Number] struct {
	values  []T
	indices map[T]int
}

func NewConstantTable[T Number](values ...T) *ConstantTable[T] {
	table := &ConstantTable[T]{indices: make(map[T]int, len(values))}
	for _, v := range values {
		table.Include(v)
	}
	return table
}

func (t *ConstantTable[T]) Len() int {
	return len(t.values)
}

func (t *ConstantTable[T]) At(i int) T {
	return t.values[i]
}

// Values returns a copy of the table's contents
func (t *ConstantTable[T]) Values() []T {
	values := make([]T, len(t.values))
	copy(values, t.values)
	return values
}

func (t *ConstantTable[T]) IndexOf(v T) (int, bool) {
	i, ok := t.indices[v]
	return i, ok
}

func (t *ConstantTable[T]) Contains(v T) bool {
	_, ok := t.indices[v]
	return ok
}

// Include returns the index of v, appending it first if it is not yet present
func (t *ConstantTable[T]) Include(v T) int {
	if i, ok := t.indices[v]; ok {
		return i
	}
	i := len(t.values)
	t.values = append(t.values, v)
	t.indices[v] = i
	return i
}

// set replaces the value at index i. The caller guarantees v is not already present.
func (t *ConstantTable[T]) set(i int, v T) {
	old := t.values[i]
	if j, ok := t.indices[old]; ok && j == i {
		delete(t.indices, old)
	}
	t.values[i] = v
	t.indices[v] = i
}

func (t *ConstantTable[T]) Copy() *ConstantTable[T] {
	copied := &ConstantTable[T]{
		values:  make([]T, len(t.values)),
		indices: make(map[T]int, len(t.indices)),
	}
	copy(copied.values, t.values)
	for v, i := range t.indices {
		copied.indices[v] = i
	}
	return copied
}

// Merge creates a table starting with exactly the values of t, followed by the values of rhs not present in t.
// The returned mapping translates each index of rhs into an index of the merged table.
func (t *ConstantTable[T]) Merge(rhs *ConstantTable[T]) (*ConstantTable[T], []int) {
	merged := t.Copy()
	mapping := make([]int, len(rhs.values))
	for i, v := range rhs.values {
		mapping[i] = merged.Include(v)
	}
	return merged, mapping
}

// ConstantPool holds the literals referenced by a Program's IntegerLiteral and DoubleLiteral instructions
type ConstantPool struct {
	Integers *ConstantTable[int]
	Doubles  *ConstantTable[float64]

	// Source of the gaussian factors used when mutating constants
	Normal NormalDistribution
}

func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		Integers: NewConstantTable[int](),
		Doubles:  NewConstantTable[float64](),
		Normal:   BoxMuller{},
	}
}

func (p *ConstantPool) Copy() *ConstantPool {
	return &ConstantPool{
		Integers: p.Integers.Copy(),
		Doubles:  p.Doubles.Copy(),
		Normal:   p.Normal,
	}
}

// Merge combines two pools; see ConstantTable.Merge
func (p *ConstantPool) Merge(rhs *ConstantPool) (merged *ConstantPool, integerMapping, doubleMapping []int) {
	merged = &ConstantPool{Normal: p.Normal}
	merged.Integers, integerMapping = p.Integers.Merge(rhs.Integers)
	merged.Doubles, doubleMapping = p.Doubles.Merge(rhs.Doubles)
	return merged, integerMapping, doubleMapping
}

// Value returns the value of a literal. Doubles out of the range of values are clamped.
func (p *ConstantPool) Value(symbol Symbol, qualifier int) decimal.Decimal {
	switch symbol {
	case IntegerLiteral:
		return decimal.NewFromInt(int64(p.Integers.At(qualifier)))
	case DoubleLiteral:
		v, _ := clampValue(decimal.NewFromFloat(p.Doubles.At(qualifier)))
		return v
	}
	return zeroValue
}

// PickInteger returns the index of a random integer constant, or of a freshly synthesized one
func (p *ConstantPool) PickInteger(rng *rand.Rand) int {
	ix := rng.Intn(p.Integers.Len() + 1)
	if ix == p.Integers.Len() {
		literal := randomInteger(rng)
		for p.Integers.Contains(literal) {
			literal = randomInteger(rng)
		}
		return p.Integers.Include(literal)
	}
	return ix
}

// PickDouble returns the index of a random double constant, or of a freshly synthesized one
func (p *ConstantPool) PickDouble(rng *rand.Rand) int {
	ix := rng.Intn(p.Doubles.Len() + 1)
	if ix == p.Doubles.Len() {
		literal := randomDouble(rng)
		for p.Doubles.Contains(literal) {
			literal = randomDouble(rng)
		}
		return p.Doubles.Include(literal)
	}
	return ix
}

// MutateInteger scales the integer at qualifier by a gaussian factor, rounding to the nearest integer.
// It reports false if no value not already in the pool was found.
func (p *ConstantPool) MutateInteger(rng *rand.Rand, qualifier int) bool {
	current := p.Integers.At(qualifier)
	if current == 0 {
		return false
	}
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		scaled := math.Round(float64(current) * p.Normal.Next(rng, mutationMean, mutationStdDev))
		if math.Abs(scaled) > math.MaxInt32 {
			continue
		}
		if literal := int(scaled); !p.Integers.Contains(literal) {
			p.Integers.set(qualifier, literal)
			return true
		}
	}
	return false
}

// MutateDouble scales the double at qualifier by a gaussian factor.
// It reports false if no value not already in the pool was found.
func (p *ConstantPool) MutateDouble(rng *rand.Rand, qualifier int) bool {
	current := p.Doubles.At(qualifier)
	if current == 0 {
		return false
	}
	for attempt := 0; attempt < maxMutationAttempts; attempt++ {
		literal := current * p.Normal.Next(rng, mutationMean, mutationStdDev)
		if math.IsInf(literal, 0) || math.IsNaN(literal) {
			continue
		}
		if !p.Doubles.Contains(literal) {
			p.Doubles.set(qualifier, literal)
			return true
		}
	}
	return false
}

// randomDigits builds a non-negative integer digit by digit; each further digit is appended with probability 0.1
func randomDigits(rng *rand.Rand) (value int, digits int) {
	for {
		value = value*10 + rng.Intn(10)
		digits++
		if rng.Intn(10) != 0 || digits >= 18 {
			return value, digits
		}
	}
}

func randomInteger(rng *rand.Rand) int {
	value, _ := randomDigits(rng)
	return value
}

func randomDouble(rng *rand.Rand) float64 {
	integerPart, _ := randomDigits(rng)
	decimalPart, precision := randomDigits(rng)
	return float64(integerPart) + float64(decimalPart)/math.Pow(10, float64(precision))
}
