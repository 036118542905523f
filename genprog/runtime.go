package genprog

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Working variable slots below this are kept in a slice; addresses computed by Mov beyond it go to a map
const denseVariableSlots = 1 << 12

// Range and precision of the values programs compute with: 96 bit coefficients and at most 28 decimal places
var maxValue = decimal.RequireFromString("79228162514264337593543950335")

const (
	valuePlaces = 28
	valueDigits = 29
)

var (
	zeroValue = decimal.Zero
	oneValue  = decimal.NewFromInt(1)
)

// Division by anything within this distance of zero leaves the dividend unchanged
var divisionThreshold = decimal.RequireFromString("0.001")

// Tracer is handed every node of a CallTree as it completes evaluation
type Tracer func(node *CallTree)

// RuntimeState is the environment a CallTree is evaluated in
type RuntimeState struct {
	Inputs []decimal.Decimal

	// Working variables. Slots never written read as 0.
	Variables []decimal.Decimal
	far       map[string]decimal.Decimal

	// Set once any operation produced a value out of range
	overflowed bool

	Tracer Tracer
}

func NewRuntimeState(inputs []decimal.Decimal) *RuntimeState {
	return &RuntimeState{Inputs: inputs}
}

// Overflowed reports whether an operation produced a value out of range. Such values were clamped.
func (s *RuntimeState) Overflowed() bool {
	return s != nil && s.overflowed
}

func (s *RuntimeState) Input(i int) decimal.Decimal {
	if i < 0 || i >= len(s.Inputs) {
		return zeroValue
	}
	return s.Inputs[i]
}

func (s *RuntimeState) Read(slot int) decimal.Decimal {
	switch {
	case slot < 0:
		return zeroValue
	case slot >= denseVariableSlots:
		return s.far[strconv.Itoa(slot)]
	case slot >= len(s.Variables):
		return zeroValue
	}
	return s.Variables[slot]
}

func (s *RuntimeState) Write(slot int, v decimal.Decimal) {
	if slot >= denseVariableSlots {
		s.writeFar(strconv.Itoa(slot), v)
		return
	}
	if slot >= len(s.Variables) {
		grown := make([]decimal.Decimal, slot+1)
		copy(grown, s.Variables)
		s.Variables = grown
	}
	s.Variables[slot] = v
}

// WriteAt stores v in the slot addressed by the truncated absolute value of address
func (s *RuntimeState) WriteAt(address, v decimal.Decimal) {
	address = address.Abs().Truncate(0)
	if address.LessThan(decimal.NewFromInt(denseVariableSlots)) {
		s.Write(int(address.IntPart()), v)
		return
	}
	s.writeFar(address.String(), v)
}

func (s *RuntimeState) writeFar(key string, v decimal.Decimal) {
	if s.far == nil {
		s.far = make(map[string]decimal.Decimal)
	}
	s.far[key] = v
}

// clampValue rounds v to the precision of values. Values out of range are clamped, reporting false.
func clampValue(v decimal.Decimal) (decimal.Decimal, bool) {
	if v.Exponent() < -valuePlaces {
		v = v.RoundBank(valuePlaces)
	}
	if excess := v.NumDigits() - valueDigits; excess > 0 {
		v = v.RoundBank(-v.Exponent() - int32(excess))
	}
	if v.Abs().GreaterThan(maxValue) {
		if v.Sign() < 0 {
			return maxValue.Neg(), false
		}
		return maxValue, false
	}
	return v, true
}

// normalize is clampValue, recording overflows
func (s *RuntimeState) normalize(v decimal.Decimal) decimal.Decimal {
	v, ok := clampValue(v)
	if !ok && s != nil {
		s.overflowed = true
	}
	return v
}

func truth(v decimal.Decimal) bool {
	return !v.IsZero()
}

func boolValue(b bool) decimal.Decimal {
	if b {
		return oneValue
	}
	return zeroValue
}

func (s *RuntimeState) divide(lhs, rhs decimal.Decimal) decimal.Decimal {
	if rhs.Abs().LessThanOrEqual(divisionThreshold) {
		return lhs
	}
	return s.normalize(lhs.DivRound(rhs, valuePlaces))
}

// decimals converts inputs to the values programs compute with
func decimals(inputs []float64) []decimal.Decimal {
	values := make([]decimal.Decimal, len(inputs))
	for i, v := range inputs {
		switch {
		case math.IsNaN(v):
			values[i] = zeroValue
		case math.IsInf(v, 1):
			values[i] = maxValue
		case math.IsInf(v, -1):
			values[i] = maxValue.Neg()
		default:
			values[i], _ = clampValue(decimal.NewFromFloat(v))
		}
	}
	return values
}
