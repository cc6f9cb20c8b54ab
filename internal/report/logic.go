// internal/report/logic.go
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

/*
 * Boolean filter-logic expression evaluation.
 *
 * Grammar (precedence NOT > AND > OR, parentheses override):
 *
 *   expr    := orExpr
 *   orExpr  := andExpr (OR andExpr)*
 *   andExpr := notExpr (AND notExpr)*
 *   notExpr := NOT? atom
 *   atom    := INTEGER | '(' expr ')'
 *
 * Integers are 1-based condition indices into the per-row result vector.
 * Evaluation short-circuits: first true operand stops an OR chain, first
 * false operand stops an AND chain.
 *
 * Validation is a separate pass returning a structured result with the set
 * of referenced indices. Out-of-range references are reported by name
 * ("Invalid condition numbers: 4, 5. Use numbers 1-3"), never clamped.
 *
 * When manual logic is disabled, the effective expression is always the
 * implicit conjunction 1 AND 2 AND ... AND n; any stored expression text is
 * ignored. A stored expression that fails to parse also falls back to the
 * implicit conjunction so rendering never aborts on stale text.
 */

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind  tokenKind
	index int // valid for tokNumber
	text  string
	pos   int // byte offset in source, for error messages
}

// logicNode is one node of the parsed expression tree.
type logicNode interface {
	// eval resolves the node against the 1-indexed condition result vector.
	// Indices outside the vector evaluate to false; validation rejects them
	// before evaluation in the normal path.
	eval(results []bool) bool
	collectRefs(refs map[int]struct{})
}

type indexNode struct{ index int }

func (n indexNode) eval(results []bool) bool {
	if n.index < 1 || n.index > len(results) {
		return false
	}
	return results[n.index-1]
}

func (n indexNode) collectRefs(refs map[int]struct{}) { refs[n.index] = struct{}{} }

type notNode struct{ child logicNode }

func (n notNode) eval(results []bool) bool          { return !n.child.eval(results) }
func (n notNode) collectRefs(refs map[int]struct{}) { n.child.collectRefs(refs) }

type andNode struct{ children []logicNode }

func (n andNode) eval(results []bool) bool {
	for _, c := range n.children {
		if !c.eval(results) {
			return false
		}
	}
	return true
}

func (n andNode) collectRefs(refs map[int]struct{}) {
	for _, c := range n.children {
		c.collectRefs(refs)
	}
}

type orNode struct{ children []logicNode }

func (n orNode) eval(results []bool) bool {
	for _, c := range n.children {
		if c.eval(results) {
			return true
		}
	}
	return false
}

func (n orNode) collectRefs(refs map[int]struct{}) {
	for _, c := range n.children {
		c.collectRefs(refs)
	}
}

// Expression is a parsed filter-logic expression ready for evaluation.
type Expression struct {
	root   logicNode
	source string
}

// Eval resolves the expression against the 1-indexed condition result vector.
func (e *Expression) Eval(results []bool) bool {
	if e == nil || e.root == nil {
		return true
	}
	return e.root.eval(results)
}

// Referenced returns the sorted set of condition indices the expression uses.
func (e *Expression) Referenced() []int {
	if e == nil || e.root == nil {
		return nil
	}
	set := make(map[int]struct{})
	e.root.collectRefs(set)
	refs := make([]int, 0, len(set))
	for idx := range set {
		refs = append(refs, idx)
	}
	sort.Ints(refs)
	return refs
}

// String returns the original expression text.
func (e *Expression) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// lex tokenizes a filter-logic expression. Keywords are case-insensitive.
func lex(expr string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(expr) {
		c := rune(expr[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < len(expr) && expr[i] >= '0' && expr[i] <= '9' {
				i++
			}
			text := expr[start:i]
			idx, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("condition number %q is too large", text)
			}
			toks = append(toks, token{kind: tokNumber, index: idx, text: text, pos: start})
		case unicode.IsLetter(c):
			start := i
			for i < len(expr) && unicode.IsLetter(rune(expr[i])) {
				i++
			}
			word := expr[start:i]
			switch strings.ToUpper(word) {
			case "AND":
				toks = append(toks, token{kind: tokAnd, text: word, pos: start})
			case "OR":
				toks = append(toks, token{kind: tokOr, text: word, pos: start})
			case "NOT":
				toks = append(toks, token{kind: tokNot, text: word, pos: start})
			default:
				return nil, fmt.Errorf("unknown keyword %q (expected AND, OR, or NOT)", word)
			}
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", string(c), i)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(expr)})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) parseOr() (logicNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []logicNode{left}
	for p.accept(tokOr) {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return orNode{children: children}, nil
}

func (p *parser) parseAnd() (logicNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []logicNode{left}
	for p.accept(tokAnd) {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return andNode{children: children}, nil
}

func (p *parser) parseNot() (logicNode, error) {
	if p.accept(tokNot) {
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return notNode{child: child}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (logicNode, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		if t.index < 1 {
			return nil, fmt.Errorf("condition numbers start at 1, got %d", t.index)
		}
		return indexNode{index: t.index}, nil
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("unexpected end of expression")
	default:
		return nil, fmt.Errorf("expected condition number or '(', got %q", t.text)
	}
}

// ParseExpression parses a manual filter-logic expression.
func ParseExpression(expr string) (*Expression, error) {
	if len(expr) > types.MaxExpressionLength {
		return nil, types.ErrExpressionTooLong
	}
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("expression is empty")
	}
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tail := p.peek(); tail.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q after end of expression", tail.text)
	}
	return &Expression{root: root, source: expr}, nil
}

// ValidateExpression checks syntax and condition-index range against n
// conditions. Out-of-range indices are reported by name, never clamped.
func ValidateExpression(expr string, n int) types.ValidationResult {
	parsed, err := ParseExpression(expr)
	if err != nil {
		return types.ValidationResult{Valid: false, Error: err.Error()}
	}

	refs := parsed.Referenced()
	var invalid []string
	for _, idx := range refs {
		if idx < 1 || idx > n {
			invalid = append(invalid, strconv.Itoa(idx))
		}
	}
	if len(invalid) > 0 {
		return types.ValidationResult{
			Valid: false,
			Error: fmt.Sprintf("Invalid condition numbers: %s. Use numbers 1-%d", strings.Join(invalid, ", "), n),
		}
	}

	return types.ValidationResult{Valid: true, Referenced: refs}
}

// ImplicitExpression builds the implicit conjunction 1 AND 2 AND ... AND n.
// Returns nil for n <= 0 (no conditions means every row passes).
func ImplicitExpression(n int) *Expression {
	if n <= 0 {
		return nil
	}
	children := make([]logicNode, n)
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		children[i] = indexNode{index: i + 1}
		parts[i] = strconv.Itoa(i + 1)
	}
	if n == 1 {
		return &Expression{root: children[0], source: "1"}
	}
	return &Expression{root: andNode{children: children}, source: strings.Join(parts, " AND ")}
}

// EffectiveExpression resolves the expression that actually governs filter
// composition for a config with n conditions.
//
// Manual logic disabled, or blank/invalid expression text: the implicit
// conjunction wins and the validation result records any parse error for the
// UI. Manual logic enabled with a valid expression: that expression wins.
func EffectiveExpression(cfg types.ReportConfig, n int) (*Expression, types.ValidationResult) {
	if !cfg.UseManualFilterLogic || strings.TrimSpace(cfg.FilterLogicExpression) == "" {
		return ImplicitExpression(n), types.ValidationResult{Valid: true}
	}

	validation := ValidateExpression(cfg.FilterLogicExpression, n)
	if !validation.Valid {
		return ImplicitExpression(n), validation
	}

	parsed, err := ParseExpression(cfg.FilterLogicExpression)
	if err != nil {
		// Unreachable after successful validation; keep the fallback anyway.
		return ImplicitExpression(n), types.ValidationResult{Valid: false, Error: err.Error()}
	}
	return parsed, validation
}
