package genprog

import (
	"fmt"
	"strconv"
	"strings"
)

var binaryOperators = map[Symbol]string{
	Add:        " + ",
	Sub:        " - ",
	Mul:        " * ",
	Div:        " / ",
	Lt:         " < ",
	Lteq:       " <= ",
	Gt:         " > ",
	Gteq:       " >= ",
	Eq:         " = ",
	Neq:        " <> ",
	LogicalAnd: " AND ",
	LogicalOr:  " OR ",
	LogicalXor: " XOR ",
	Chain:      "=>",
}

// Format prints the tree in the text language understood by Parse
func (t *CallTree) Format(constants *ConstantPool) string {
	var buf strings.Builder
	t.format(&buf, constants)
	return buf.String()
}

func (t *CallTree) format(buf *strings.Builder, constants *ConstantPool) {
	if op, ok := binaryOperators[t.symbol]; ok {
		buf.WriteByte('(')
		t.lhs().format(buf, constants)
		buf.WriteString(op)
		t.rhs().format(buf, constants)
		buf.WriteByte(')')
		return
	}

	switch t.symbol {
	case Noop:
		buf.WriteString("Noop")
	case InputArgument:
		fmt.Fprintf(buf, "X%d", t.qualifier)
	case WorkingVariable:
		fmt.Fprintf(buf, "Y%d", t.qualifier)
	case IntegerLiteral:
		buf.WriteString(strconv.Itoa(constants.Integers.At(t.qualifier)))
	case DoubleLiteral:
		buf.WriteString(formatDouble(constants.Doubles.At(t.qualifier)))
	case LogicalNot:
		buf.WriteString("(NOT ")
		t.operand().format(buf, constants)
		buf.WriteByte(')')
	case AssignWorkingVariable:
		fmt.Fprintf(buf, "(Y%d:=", t.qualifier)
		t.operand().format(buf, constants)
		buf.WriteByte(')')
	case Mov:
		buf.WriteString("(X[")
		t.lhs().format(buf, constants)
		buf.WriteString("]:=")
		t.rhs().format(buf, constants)
		buf.WriteByte(')')
	case If:
		buf.WriteString("(IF ")
		t.args[0].format(buf, constants)
		buf.WriteString(" THEN ")
		t.conds[0].format(buf, constants)
		buf.WriteByte(')')
	case Ifelse:
		buf.WriteString("(IF ")
		t.args[0].format(buf, constants)
		buf.WriteString(" THEN ")
		t.conds[0].format(buf, constants)
		buf.WriteString(" ELSE ")
		t.conds[1].format(buf, constants)
		buf.WriteByte(')')
	case While:
		buf.WriteString("(WHILE ")
		t.conds[0].format(buf, constants)
		buf.WriteString(" DO ")
		t.conds[1].format(buf, constants)
		buf.WriteByte(')')
	default:
		panic(fmt.Errorf("cannot print symbol %v", t.symbol))
	}
}

// formatDouble prints v rounded to 15 significant digits, always with a decimal point
func formatDouble(v float64) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', 15, 64), 64)
	if err != nil {
		rounded = v
	}
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.ContainsAny(s, ".IN") {
		s += ".0"
	}
	return s
}
