package genprog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError reports malformed program text
type ParseError struct {
	// Byte offset into the text
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg)
}

type tokenType int8

const (
	tokenTypeEnd tokenType = iota
	tokenTypeNumber
	tokenTypeWord
	tokenTypeOperator
)

type token struct {
	Type tokenType
	Text string
	Pos  int
}

var keywords = map[string]bool{
	"NOT": true, "IF": true, "THEN": true, "ELSE": true, "WHILE": true, "DO": true,
	"AND": true, "OR": true, "XOR": true,
}

// endsOperand reports whether a '-' following the token must be a binary minus
func (t token) endsOperand() bool {
	switch t.Type {
	case tokenTypeNumber:
		return true
	case tokenTypeWord:
		return !keywords[strings.ToUpper(t.Text)]
	case tokenTypeOperator:
		return t.Text == ")" || t.Text == "]"
	}
	return false
}

var twoCharOperators = []string{"<=", ">=", "<>", "=>", ":="}

func tokenize(text string) ([]token, error) {
	var tokens []token
	isDigit := func(i int) bool {
		return i < len(text) && text[i] >= '0' && text[i] <= '9'
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case unicode.IsSpace(rune(c)):
			i++

		case isDigit(i) || (c == '-' && isDigit(i+1) && (len(tokens) == 0 || !tokens[len(tokens)-1].endsOperand())):
			start := i
			i++
			for isDigit(i) {
				i++
			}
			if i < len(text) && text[i] == '.' {
				i++
				for isDigit(i) {
					i++
				}
			}
			tokens = append(tokens, token{Type: tokenTypeNumber, Text: text[start:i], Pos: start})

		case unicode.IsLetter(rune(c)):
			start := i
			for i < len(text) && (unicode.IsLetter(rune(text[i])) || isDigit(i)) {
				i++
			}
			tokens = append(tokens, token{Type: tokenTypeWord, Text: text[start:i], Pos: start})

		default:
			op := ""
			for _, candidate := range twoCharOperators {
				if strings.HasPrefix(text[i:], candidate) {
					op = candidate
					break
				}
			}
			if op == "" && strings.IndexByte("+-*/<>=()[]", c) >= 0 {
				op = text[i : i+1]
			}
			if op == "" {
				return nil, &ParseError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", c)}
			}
			tokens = append(tokens, token{Type: tokenTypeOperator, Text: op, Pos: i})
			i += len(op)
		}
	}
	return append(tokens, token{Type: tokenTypeEnd, Pos: len(text)}), nil
}

var binaryOperatorSymbols = map[string]Symbol{
	"+":   Add,
	"-":   Sub,
	"*":   Mul,
	"/":   Div,
	"<":   Lt,
	"<=":  Lteq,
	">":   Gt,
	">=":  Gteq,
	"=":   Eq,
	"<>":  Neq,
	"AND": LogicalAnd,
	"OR":  LogicalOr,
	"XOR": LogicalXor,
	"=>":  Chain,
}

func precedenceOf(op Symbol) int {
	switch op {
	case Chain:
		return 0
	case LogicalOr, LogicalXor:
		return 1
	case LogicalAnd:
		return 2
	case Eq, Neq:
		return 3
	case Lt, Lteq, Gt, Gteq:
		return 4
	case Add, Sub:
		return 5
	}
	return 6
}

type parser struct {
	tokens []token
	pos    int

	constants            *ConstantPool
	varCount             int
	workingVariableCount int
}

// Parse reads a program from its text form, as printed by Program.String. The program takes at least
// minVarCount inputs, more if the text refers to them.
func Parse(text string, minVarCount int) (*Program, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, constants: NewConstantPool(), varCount: minVarCount}

	tree, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if end := p.peek(); end.Type != tokenTypeEnd {
		return nil, &ParseError{Pos: end.Pos, Msg: fmt.Sprintf("unexpected trailing %q", end.Text)}
	}

	program := FromCode(p.varCount, tree.Encode(p.varCount, nil), p.constants, p.workingVariableCount)
	program.language = program.language.With(tree.symbols()...)
	return program, nil
}

// symbols lists the symbols of every node of the tree
func (t *CallTree) symbols() []Symbol {
	symbols := []Symbol{t.symbol}
	for _, child := range t.Children() {
		symbols = append(symbols, child.symbols()...)
	}
	return symbols
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.Type != tokenTypeEnd {
		p.pos++
	}
	return t
}

func (p *parser) expect(text string) error {
	t := p.next()
	if !strings.EqualFold(t.Text, text) {
		return &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("expected %q, found %q", text, t.Text)}
	}
	return nil
}

func (p *parser) binaryOperator() (Symbol, bool) {
	t := p.peek()
	if t.Type != tokenTypeOperator && t.Type != tokenTypeWord {
		return 0, false
	}
	op, ok := binaryOperatorSymbols[strings.ToUpper(t.Text)]
	return op, ok
}

// parseExpression parses operands joined by binary operators, all left associative
func (p *parser) parseExpression() (*CallTree, error) {
	operands := newStaticStack[*CallTree](len(p.tokens))
	operators := newStaticStack[Symbol](len(p.tokens))

	reduce := func() error {
		op, err := operators.Pop()
		if err != nil {
			return err
		}
		rhs, err := operands.Pop()
		if err != nil {
			return err
		}
		lhs, err := operands.Pop()
		if err != nil {
			return err
		}
		return operands.Push(newCallTree(op, 0, lhs, rhs))
	}

	operand, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if err := operands.Push(operand); err != nil {
		return nil, err
	}

	for {
		op, ok := p.binaryOperator()
		if !ok {
			break
		}
		p.next()

		for operators.Size() > 0 {
			top, _ := operators.Peek()
			if precedenceOf(top) < precedenceOf(op) {
				break
			}
			if err := reduce(); err != nil {
				return nil, err
			}
		}
		if err := operators.Push(op); err != nil {
			return nil, err
		}

		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		if err := operands.Push(operand); err != nil {
			return nil, err
		}
	}

	for operators.Size() > 0 {
		if err := reduce(); err != nil {
			return nil, err
		}
	}
	return operands.Pop()
}

func (p *parser) parseOperand() (*CallTree, error) {
	t := p.next()
	switch t.Type {
	case tokenTypeEnd:
		return nil, &ParseError{Pos: t.Pos, Msg: "unexpected end of program"}
	case tokenTypeNumber:
		return p.parseNumber(t)
	case tokenTypeOperator:
		if t.Text != "(" {
			break
		}
		tree, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return tree, nil
	case tokenTypeWord:
		return p.parseWord(t)
	}
	return nil, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %q", t.Text)}
}

func (p *parser) parseNumber(t token) (*CallTree, error) {
	if strings.Contains(t.Text, ".") {
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, &ParseError{Pos: t.Pos, Msg: err.Error()}
		}
		return newLeaf(DoubleLiteral, p.constants.Doubles.Include(v)), nil
	}
	v, err := strconv.Atoi(t.Text)
	if err != nil {
		return nil, &ParseError{Pos: t.Pos, Msg: err.Error()}
	}
	return newLeaf(IntegerLiteral, p.constants.Integers.Include(v)), nil
}

func (p *parser) parseWord(t token) (*CallTree, error) {
	word := strings.ToUpper(t.Text)
	switch word {
	case "NOOP":
		return newLeaf(Noop, 0), nil

	case "NOT":
		operand, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return newCallTree(LogicalNot, 0, operand), nil

	case "IF":
		guard, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect("THEN"); err != nil {
			return nil, err
		}
		yes, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(p.peek().Text, "ELSE") {
			return newCallTree(If, 0, guard, yes), nil
		}
		p.next()
		no, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return newCallTree(Ifelse, 0, guard, yes, no), nil

	case "WHILE":
		guard, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect("DO"); err != nil {
			return nil, err
		}
		body, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return newCallTree(While, 0, guard, body), nil

	case "X":
		if err := p.expect("["); err != nil {
			return nil, err
		}
		address, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		if err := p.expect(":="); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return newCallTree(Mov, 0, address, value), nil
	}

	if len(word) < 2 || (word[0] != 'X' && word[0] != 'Y') {
		return nil, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("unexpected %q", t.Text)}
	}
	index, err := strconv.Atoi(word[1:])
	if err != nil || index < 0 {
		return nil, &ParseError{Pos: t.Pos, Msg: fmt.Sprintf("invalid variable %q", t.Text)}
	}

	if word[0] == 'X' {
		p.varCount = max(p.varCount, index+1)
		return newLeaf(InputArgument, index), nil
	}

	p.workingVariableCount = max(p.workingVariableCount, index+1)
	if p.peek().Text != ":=" {
		return newLeaf(WorkingVariable, index), nil
	}
	p.next()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return newCallTree(AssignWorkingVariable, index, value), nil
}
