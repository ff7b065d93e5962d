package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qi-lang/qi/pkg/ast"
)

// Parse lexes and reads a whole source unit into top-level expressions.
func Parse(src string) ([]ast.Expr, error) {
	toks, err := NewLexer(src).Tokens()
	if err != nil {
		return nil, err
	}
	r := &Reader{toks: toks}
	var out []ast.Expr
	for !r.atEOF() {
		expr, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, nil
}

// ParseExpr reads a single expression from src.
func ParseExpr(src string) (ast.Expr, error) {
	forms, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	return forms[0], nil
}

// ReadError reports a syntactic failure with position.
type ReadError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// IsIncomplete reports whether err means the input ended mid-form. The REPL
// keeps collecting lines while this holds.
func IsIncomplete(err error) bool {
	if re, ok := err.(*ReadError); ok {
		return strings.HasPrefix(re.Msg, "unterminated") || re.Msg == "unexpected end of input"
	}
	if le, ok := err.(*LexError); ok {
		return strings.HasPrefix(le.Msg, "unterminated")
	}
	return false
}

// Reader turns the token stream into ast.Expr trees. It also performs the
// lowerings the evaluator does not want to see: pipeline operators, and/or,
// and the (go/go expr) sugar.
type Reader struct {
	toks []Token
	pos  int
	tmp  int
}

func (r *Reader) peek() Token {
	if r.pos >= len(r.toks) {
		return Token{Type: EOF}
	}
	return r.toks[r.pos]
}

func (r *Reader) advance() Token {
	t := r.peek()
	if r.pos < len(r.toks) {
		r.pos++
	}
	return t
}

func (r *Reader) atEOF() bool { return r.peek().Type == EOF }

func (r *Reader) errAt(t Token, format string, args ...any) error {
	return &ReadError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)}
}

func (r *Reader) expect(tt TokenType, what string) (Token, error) {
	t := r.peek()
	if t.Type != tt {
		return Token{}, r.errAt(t, "expected %s, got %q", what, t.Text)
	}
	return r.advance(), nil
}

func (r *Reader) freshTemp(prefix string) string {
	r.tmp++
	return fmt.Sprintf("%s%%%d", prefix, r.tmp)
}

// ReadExpr reads one form and then folds any trailing pipeline operators.
// Pipelines associate left: a |> f |> g becomes (g (f a)).
func (r *Reader) ReadExpr() (ast.Expr, error) {
	expr, err := r.readForm()
	if err != nil {
		return nil, err
	}
	for {
		t := r.peek()
		if t.Type != SYMBOL {
			return expr, nil
		}
		switch t.Text {
		case "|>":
			r.advance()
			rhs, err := r.readForm()
			if err != nil {
				return nil, err
			}
			expr = lowerPipe(expr, rhs)
		case "|>?":
			r.advance()
			rhs, err := r.readForm()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{
				Callee: &ast.SymbolExpr{Name: "railway-step"},
				Args:   []ast.Expr{expr, thunkifyStage(rhs)},
			}
		case "||>":
			r.advance()
			rhs, err := r.readForm()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{
				Callee: &ast.SymbolExpr{Name: "go/parmap"},
				Args:   []ast.Expr{thunkifyStage(rhs), expr},
			}
		default:
			return expr, nil
		}
	}
}

// lowerPipe rewrites x |> f. A call form receives x as its final argument;
// anything else becomes a unary call.
func lowerPipe(x, f ast.Expr) ast.Expr {
	if call, ok := f.(*ast.CallExpr); ok {
		args := make([]ast.Expr, 0, len(call.Args)+1)
		args = append(args, call.Args...)
		args = append(args, x)
		return &ast.CallExpr{Callee: call.Callee, Args: args}
	}
	return &ast.CallExpr{Callee: f, Args: []ast.Expr{x}}
}

// thunkifyStage turns a call-form stage into a unary function so railway and
// parallel stages can receive the piped value as their last argument.
func thunkifyStage(f ast.Expr) ast.Expr {
	call, ok := f.(*ast.CallExpr)
	if !ok {
		return f
	}
	const arg = "pipe%arg"
	args := make([]ast.Expr, 0, len(call.Args)+1)
	args = append(args, call.Args...)
	args = append(args, &ast.SymbolExpr{Name: arg})
	return &ast.FnExpr{
		Params: []ast.Pattern{&ast.VarPattern{Name: arg}},
		Body:   &ast.CallExpr{Callee: call.Callee, Args: args},
	}
}

func (r *Reader) readForm() (ast.Expr, error) {
	t := r.peek()
	switch t.Type {
	case INTEGER:
		r.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, r.errAt(t, "bad integer literal %q", t.Text)
		}
		return &ast.IntegerLiteral{Value: n}, nil
	case FLOAT:
		r.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, r.errAt(t, "bad float literal %q", t.Text)
		}
		return &ast.FloatLiteral{Value: f}, nil
	case STRING:
		r.advance()
		return &ast.StringLiteral{Value: t.Text}, nil
	case FSTRING:
		r.advance()
		return r.parseFString(t)
	case KEYWORD:
		r.advance()
		return &ast.KeywordExpr{Name: t.Text}, nil
	case SYMBOL:
		r.advance()
		switch t.Text {
		case "nil":
			return &ast.NilLiteral{}, nil
		case "true":
			return &ast.BoolLiteral{Value: true}, nil
		case "false":
			return &ast.BoolLiteral{Value: false}, nil
		}
		return &ast.SymbolExpr{Name: t.Text}, nil
	case QUOTE:
		r.advance()
		form, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		return &ast.QuoteExpr{Form: form}, nil
	case QUASIQUOTE:
		r.advance()
		form, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		return &ast.QuasiquoteExpr{Form: form}, nil
	case UNQUOTE:
		r.advance()
		form, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnquoteExpr{Form: form}, nil
	case SPLICE:
		r.advance()
		form, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnquoteSpliceExpr{Form: form}, nil
	case LBRACKET:
		r.advance()
		var elems []ast.Expr
		for r.peek().Type != RBRACKET {
			if r.atEOF() {
				return nil, r.errAt(t, "unterminated vector")
			}
			el, err := r.ReadExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		r.advance()
		return &ast.VectorExpr{Elements: elems}, nil
	case LBRACE:
		r.advance()
		var entries []ast.MapEntryExpr
		for r.peek().Type != RBRACE {
			if r.atEOF() {
				return nil, r.errAt(t, "unterminated map")
			}
			key, err := r.ReadExpr()
			if err != nil {
				return nil, err
			}
			if r.peek().Type == RBRACE {
				return nil, r.errAt(r.peek(), "map literal needs an even number of forms")
			}
			val, err := r.ReadExpr()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.MapEntryExpr{Key: key, Value: val})
		}
		r.advance()
		return &ast.MapExpr{Entries: entries}, nil
	case LPAREN:
		return r.readListForm()
	case EOF:
		return nil, r.errAt(t, "unexpected end of input")
	default:
		return nil, r.errAt(t, "unexpected token %q", t.Text)
	}
}

// readDatum reads a form without special-form interpretation: quoted bodies
// are data, so (if x y) inside a quote stays a plain list. Unquote holes
// switch back to expression mode since their payloads are evaluated.
func (r *Reader) readDatum() (ast.Expr, error) {
	t := r.peek()
	switch t.Type {
	case LPAREN:
		r.advance()
		var elems []ast.Expr
		for r.peek().Type != RPAREN {
			if r.atEOF() {
				return nil, r.errAt(t, "unterminated list")
			}
			el, err := r.readDatum()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		r.advance()
		return &ast.ListExpr{Elements: elems}, nil
	case LBRACKET:
		r.advance()
		var elems []ast.Expr
		for r.peek().Type != RBRACKET {
			if r.atEOF() {
				return nil, r.errAt(t, "unterminated vector")
			}
			el, err := r.readDatum()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		r.advance()
		return &ast.VectorExpr{Elements: elems}, nil
	case LBRACE:
		r.advance()
		var entries []ast.MapEntryExpr
		for r.peek().Type != RBRACE {
			if r.atEOF() {
				return nil, r.errAt(t, "unterminated map")
			}
			key, err := r.readDatum()
			if err != nil {
				return nil, err
			}
			if r.peek().Type == RBRACE {
				return nil, r.errAt(r.peek(), "map literal needs an even number of forms")
			}
			val, err := r.readDatum()
			if err != nil {
				return nil, err
			}
			entries = append(entries, ast.MapEntryExpr{Key: key, Value: val})
		}
		r.advance()
		return &ast.MapExpr{Entries: entries}, nil
	case QUOTE:
		r.advance()
		form, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		return &ast.QuoteExpr{Form: form}, nil
	case QUASIQUOTE:
		r.advance()
		form, err := r.readDatum()
		if err != nil {
			return nil, err
		}
		return &ast.QuasiquoteExpr{Form: form}, nil
	case UNQUOTE:
		r.advance()
		form, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnquoteExpr{Form: form}, nil
	case SPLICE:
		r.advance()
		form, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		return &ast.UnquoteSpliceExpr{Form: form}, nil
	default:
		return r.readForm()
	}
}

func (r *Reader) readListForm() (ast.Expr, error) {
	open := r.advance() // (
	if r.peek().Type == RPAREN {
		r.advance()
		return &ast.ListExpr{}, nil
	}
	if head := r.peek(); head.Type == SYMBOL {
		switch head.Text {
		case "def":
			return r.parseDef()
		case "defn":
			return r.parseDefn()
		case "fn":
			return r.parseFn()
		case "let":
			return r.parseLet()
		case "loop":
			return r.parseLoop()
		case "if":
			return r.parseIf()
		case "do":
			return r.parseDo()
		case "match":
			return r.parseMatch()
		case "try":
			return r.parseWrapped("try")
		case "defer":
			return r.parseWrapped("defer")
		case "recur":
			return r.parseRecur()
		case "mac":
			return r.parseMac()
		case "module":
			return r.parseModule()
		case "export":
			return r.parseExport()
		case "use":
			return r.parseUse()
		case "quote":
			return r.parseQuoteForm("quote")
		case "quasiquote":
			return r.parseQuoteForm("quasiquote")
		case "unquote":
			return r.parseQuoteForm("unquote")
		case "unquote-splice":
			return r.parseQuoteForm("unquote-splice")
		case "and", "or":
			return r.parseAndOr(head.Text)
		case "go/go":
			return r.parseGoSugar()
		}
	}
	callee, err := r.ReadExpr()
	if err != nil {
		return nil, err
	}
	var args []ast.Expr
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(open, "unterminated list")
		}
		arg, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	r.advance()
	return &ast.CallExpr{Callee: callee, Args: args}, nil
}

func (r *Reader) closeParen() error {
	_, err := r.expect(RPAREN, "')'")
	return err
}

// bodyUntilClose reads the remaining forms of a special form as an implicit do.
func (r *Reader) bodyUntilClose() (ast.Expr, error) {
	var body []ast.Expr
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated form")
		}
		expr, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
	}
	r.advance()
	switch len(body) {
	case 0:
		return &ast.NilLiteral{}, nil
	case 1:
		return body[0], nil
	default:
		return &ast.DoExpr{Body: body}, nil
	}
}

func (r *Reader) parseDef() (ast.Expr, error) {
	r.advance() // def
	name, err := r.expect(SYMBOL, "name")
	if err != nil {
		return nil, err
	}
	value, err := r.ReadExpr()
	if err != nil {
		return nil, err
	}
	if err := r.closeParen(); err != nil {
		return nil, err
	}
	return &ast.DefExpr{Name: name.Text, Value: value}, nil
}

func (r *Reader) parseDefn() (ast.Expr, error) {
	r.advance() // defn
	name, err := r.expect(SYMBOL, "name")
	if err != nil {
		return nil, err
	}
	params, variadic, err := r.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	fn := &ast.FnExpr{Name: name.Text, Params: params, Body: body, Variadic: variadic}
	return &ast.DefExpr{Name: name.Text, Value: fn}, nil
}

func (r *Reader) parseFn() (ast.Expr, error) {
	r.advance() // fn
	params, variadic, err := r.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.FnExpr{Params: params, Body: body, Variadic: variadic}, nil
}

// parseParams reads a [p1 p2 & rest] parameter vector. The rest parameter, if
// present, is appended as the final pattern with the variadic flag set.
func (r *Reader) parseParams() ([]ast.Pattern, bool, error) {
	if _, err := r.expect(LBRACKET, "parameter vector"); err != nil {
		return nil, false, err
	}
	var params []ast.Pattern
	variadic := false
	for r.peek().Type != RBRACKET {
		if r.atEOF() {
			return nil, false, r.errAt(r.peek(), "unterminated parameter vector")
		}
		if t := r.peek(); t.Type == SYMBOL && t.Text == "&" {
			r.advance()
			rest, err := r.expect(SYMBOL, "rest parameter name")
			if err != nil {
				return nil, false, err
			}
			params = append(params, &ast.VarPattern{Name: rest.Text})
			variadic = true
			if r.peek().Type != RBRACKET {
				return nil, false, r.errAt(r.peek(), "rest parameter must be last")
			}
			break
		}
		p, err := r.readPattern()
		if err != nil {
			return nil, false, err
		}
		params = append(params, p)
	}
	r.advance()
	return params, variadic, nil
}

func (r *Reader) parseBindings() ([]ast.LetBinding, error) {
	if _, err := r.expect(LBRACKET, "binding vector"); err != nil {
		return nil, err
	}
	var bindings []ast.LetBinding
	for r.peek().Type != RBRACKET {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated binding vector")
		}
		pat, err := r.readPattern()
		if err != nil {
			return nil, err
		}
		if r.peek().Type == RBRACKET {
			return nil, r.errAt(r.peek(), "binding vector needs an even number of forms")
		}
		value, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.LetBinding{Pattern: pat, Value: value})
	}
	r.advance()
	return bindings, nil
}

func (r *Reader) parseLet() (ast.Expr, error) {
	r.advance() // let
	bindings, err := r.parseBindings()
	if err != nil {
		return nil, err
	}
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.LetExpr{Bindings: bindings, Body: body}, nil
}

func (r *Reader) parseLoop() (ast.Expr, error) {
	r.advance() // loop
	bindings, err := r.parseBindings()
	if err != nil {
		return nil, err
	}
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.LoopExpr{Bindings: bindings, Body: body}, nil
}

func (r *Reader) parseIf() (ast.Expr, error) {
	r.advance() // if
	test, err := r.ReadExpr()
	if err != nil {
		return nil, err
	}
	then, err := r.ReadExpr()
	if err != nil {
		return nil, err
	}
	var elseExpr ast.Expr
	if r.peek().Type != RPAREN {
		elseExpr, err = r.ReadExpr()
		if err != nil {
			return nil, err
		}
	}
	if err := r.closeParen(); err != nil {
		return nil, err
	}
	return &ast.IfExpr{Test: test, Then: then, Else: elseExpr}, nil
}

func (r *Reader) parseDo() (ast.Expr, error) {
	r.advance() // do
	var body []ast.Expr
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated do")
		}
		expr, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		body = append(body, expr)
	}
	r.advance()
	return &ast.DoExpr{Body: body}, nil
}

// parseMatch reads (match subject pat body pat body ...). An else-less if in
// body position is a guarded arm: the guard failing falls through to the next
// arm instead of producing nil.
func (r *Reader) parseMatch() (ast.Expr, error) {
	r.advance() // match
	subject, err := r.ReadExpr()
	if err != nil {
		return nil, err
	}
	var clauses []ast.MatchClause
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated match")
		}
		pat, err := r.readPattern()
		if err != nil {
			return nil, err
		}
		if r.peek().Type == RPAREN {
			return nil, r.errAt(r.peek(), "match arm is missing a body")
		}
		body, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		clause := ast.MatchClause{Pattern: pat, Body: body}
		if ifExpr, ok := body.(*ast.IfExpr); ok && ifExpr.Else == nil {
			clause.Guard = ifExpr.Test
			clause.Body = ifExpr.Then
		}
		clauses = append(clauses, clause)
	}
	r.advance()
	return &ast.MatchExpr{Subject: subject, Clauses: clauses}, nil
}

func (r *Reader) parseWrapped(which string) (ast.Expr, error) {
	r.advance() // try | defer
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	if which == "try" {
		return &ast.TryExpr{Body: body}, nil
	}
	return &ast.DeferExpr{Body: body}, nil
}

func (r *Reader) parseRecur() (ast.Expr, error) {
	r.advance() // recur
	var args []ast.Expr
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated recur")
		}
		arg, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	r.advance()
	return &ast.RecurExpr{Args: args}, nil
}

func (r *Reader) parseMac() (ast.Expr, error) {
	r.advance() // mac
	name, err := r.expect(SYMBOL, "macro name")
	if err != nil {
		return nil, err
	}
	params, variadic, err := r.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.MacExpr{Name: name.Text, Params: params, Body: body, Variadic: variadic}, nil
}

func (r *Reader) parseModule() (ast.Expr, error) {
	r.advance() // module
	name, err := r.expect(SYMBOL, "module name")
	if err != nil {
		return nil, err
	}
	if err := r.closeParen(); err != nil {
		return nil, err
	}
	return &ast.ModuleExpr{Name: name.Text}, nil
}

func (r *Reader) parseExport() (ast.Expr, error) {
	r.advance() // export
	var names []string
	for r.peek().Type != RPAREN {
		name, err := r.expect(SYMBOL, "export name")
		if err != nil {
			return nil, err
		}
		names = append(names, name.Text)
	}
	r.advance()
	return &ast.ExportExpr{Names: names}, nil
}

func (r *Reader) parseUse() (ast.Expr, error) {
	r.advance() // use
	name, err := r.expect(SYMBOL, "module name")
	if err != nil {
		return nil, err
	}
	use := &ast.UseExpr{Module: name.Text, Mode: ast.UseAll}
	if t := r.peek(); t.Type == KEYWORD {
		switch t.Text {
		case "only":
			r.advance()
			if _, err := r.expect(LBRACKET, "name vector"); err != nil {
				return nil, err
			}
			for r.peek().Type != RBRACKET {
				n, err := r.expect(SYMBOL, "imported name")
				if err != nil {
					return nil, err
				}
				use.Only = append(use.Only, n.Text)
			}
			r.advance()
			use.Mode = ast.UseOnly
		case "as":
			r.advance()
			alias, err := r.expect(SYMBOL, "alias")
			if err != nil {
				return nil, err
			}
			use.Alias = alias.Text
			use.Mode = ast.UseAs
		case "all":
			r.advance()
			use.Mode = ast.UseAll
		default:
			return nil, r.errAt(t, "use expects :only, :as, or :all, got :%s", t.Text)
		}
	}
	if err := r.closeParen(); err != nil {
		return nil, err
	}
	return use, nil
}

func (r *Reader) parseQuoteForm(which string) (ast.Expr, error) {
	r.advance() // head
	var form ast.Expr
	var err error
	switch which {
	case "quote", "quasiquote":
		form, err = r.readDatum()
	default:
		form, err = r.ReadExpr()
	}
	if err != nil {
		return nil, err
	}
	if err := r.closeParen(); err != nil {
		return nil, err
	}
	switch which {
	case "quote":
		return &ast.QuoteExpr{Form: form}, nil
	case "quasiquote":
		return &ast.QuasiquoteExpr{Form: form}, nil
	case "unquote":
		return &ast.UnquoteExpr{Form: form}, nil
	default:
		return &ast.UnquoteSpliceExpr{Form: form}, nil
	}
}

// parseAndOr lowers (and ...) / (or ...) into let/if chains so each operand is
// evaluated once and short-circuiting holds.
func (r *Reader) parseAndOr(which string) (ast.Expr, error) {
	r.advance() // and | or
	var exprs []ast.Expr
	for r.peek().Type != RPAREN {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated %s", which)
		}
		expr, err := r.ReadExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	r.advance()
	if len(exprs) == 0 {
		if which == "and" {
			return &ast.BoolLiteral{Value: true}, nil
		}
		return &ast.NilLiteral{}, nil
	}
	acc := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		tmp := r.freshTemp(which)
		var branch *ast.IfExpr
		if which == "and" {
			branch = &ast.IfExpr{Test: &ast.SymbolExpr{Name: tmp}, Then: acc, Else: &ast.SymbolExpr{Name: tmp}}
		} else {
			branch = &ast.IfExpr{Test: &ast.SymbolExpr{Name: tmp}, Then: &ast.SymbolExpr{Name: tmp}, Else: acc}
		}
		acc = &ast.LetExpr{
			Bindings: []ast.LetBinding{{Pattern: &ast.VarPattern{Name: tmp}, Value: exprs[i]}},
			Body:     branch,
		}
	}
	return acc, nil
}

// parseGoSugar lowers (go/go expr...) to (go/run (fn [] expr...)).
func (r *Reader) parseGoSugar() (ast.Expr, error) {
	r.advance() // go/go
	body, err := r.bodyUntilClose()
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{
		Callee: &ast.SymbolExpr{Name: "go/run"},
		Args:   []ast.Expr{&ast.FnExpr{Body: body}},
	}, nil
}

//-----------------------------------------------------------------------------
// Patterns
//-----------------------------------------------------------------------------

// readPattern reads a pattern including :as postfixes. `p :as name` wraps p in
// an As binding; `name :as (expr)` is a transform applied after the guard.
func (r *Reader) readPattern() (ast.Pattern, error) {
	p, err := r.readPatternPrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := r.peek()
		if t.Type != KEYWORD || t.Text != "as" {
			return p, nil
		}
		r.advance()
		next := r.peek()
		switch next.Type {
		case SYMBOL:
			r.advance()
			p = &ast.AsPattern{Inner: p, Name: next.Text}
		case LPAREN:
			v, ok := p.(*ast.VarPattern)
			if !ok {
				return nil, r.errAt(next, "transform pattern requires a plain name on the left of :as")
			}
			expr, err := r.ReadExpr()
			if err != nil {
				return nil, err
			}
			p = &ast.TransformPattern{Name: v.Name, Transform: expr}
		default:
			return nil, r.errAt(next, ":as expects a name or a transform form")
		}
	}
}

func (r *Reader) readPatternPrimary() (ast.Pattern, error) {
	t := r.peek()
	switch t.Type {
	case SYMBOL:
		r.advance()
		switch t.Text {
		case "_":
			return &ast.WildcardPattern{}, nil
		case "nil":
			return &ast.LiteralPattern{Literal: &ast.NilLiteral{}}, nil
		case "true":
			return &ast.LiteralPattern{Literal: &ast.BoolLiteral{Value: true}}, nil
		case "false":
			return &ast.LiteralPattern{Literal: &ast.BoolLiteral{Value: false}}, nil
		}
		return &ast.VarPattern{Name: t.Text}, nil
	case INTEGER:
		r.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, r.errAt(t, "bad integer literal %q", t.Text)
		}
		return &ast.LiteralPattern{Literal: &ast.IntegerLiteral{Value: n}}, nil
	case FLOAT:
		r.advance()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, r.errAt(t, "bad float literal %q", t.Text)
		}
		return &ast.LiteralPattern{Literal: &ast.FloatLiteral{Value: f}}, nil
	case STRING:
		r.advance()
		return &ast.LiteralPattern{Literal: &ast.StringLiteral{Value: t.Text}}, nil
	case KEYWORD:
		r.advance()
		return &ast.LiteralPattern{Literal: &ast.KeywordExpr{Name: t.Text}}, nil
	case LBRACKET:
		r.advance()
		return r.readSeqPattern(ast.SeqVector, RBRACKET)
	case LPAREN:
		r.advance()
		if h := r.peek(); h.Type == SYMBOL && h.Text == "or" {
			r.advance()
			var alts []ast.Pattern
			for r.peek().Type != RPAREN {
				if r.atEOF() {
					return nil, r.errAt(t, "unterminated or pattern")
				}
				alt, err := r.readPattern()
				if err != nil {
					return nil, err
				}
				alts = append(alts, alt)
			}
			r.advance()
			return &ast.OrPattern{Alternatives: alts}, nil
		}
		return r.readSeqPattern(ast.SeqList, RPAREN)
	case LBRACE:
		r.advance()
		return r.readMapPattern()
	default:
		return nil, r.errAt(t, "unexpected token %q in pattern", t.Text)
	}
}

func (r *Reader) readSeqPattern(kind ast.SeqKind, closer TokenType) (ast.Pattern, error) {
	p := &ast.SeqPattern{Kind: kind}
	for r.peek().Type != closer {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated sequence pattern")
		}
		if t := r.peek(); t.Type == SYMBOL && t.Text == "&" {
			r.advance()
			rest, err := r.expect(SYMBOL, "rest name")
			if err != nil {
				return nil, err
			}
			p.Rest = rest.Text
			if r.peek().Type != closer {
				return nil, r.errAt(r.peek(), "rest binding must be last")
			}
			break
		}
		el, err := r.readPattern()
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, el)
	}
	r.advance()
	return p, nil
}

func (r *Reader) readMapPattern() (ast.Pattern, error) {
	p := &ast.MapPattern{}
	for r.peek().Type != RBRACE {
		if r.atEOF() {
			return nil, r.errAt(r.peek(), "unterminated map pattern")
		}
		if t := r.peek(); t.Type == KEYWORD && t.Text == "as" {
			r.advance()
			name, err := r.expect(SYMBOL, "capture name")
			if err != nil {
				return nil, err
			}
			p.As = name.Text
			continue
		}
		key, err := r.readForm()
		if err != nil {
			return nil, err
		}
		switch key.(type) {
		case *ast.KeywordExpr, *ast.StringLiteral, *ast.IntegerLiteral, *ast.SymbolExpr:
		default:
			return nil, r.errAt(r.peek(), "map pattern keys must be keywords, strings, symbols, or integers")
		}
		if r.peek().Type == RBRACE {
			return nil, r.errAt(r.peek(), "map pattern needs a pattern for each key")
		}
		val, err := r.readPattern()
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, ast.MapPatternEntry{Key: key, Pattern: val})
	}
	r.advance()
	return p, nil
}

//-----------------------------------------------------------------------------
// F-strings
//-----------------------------------------------------------------------------

// parseFString splits the raw f-string body into literal runs and embedded
// expressions. Braces nest; \{ escapes a literal brace.
func (r *Reader) parseFString(t Token) (ast.Expr, error) {
	text := t.Text
	var parts []ast.Expr
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			parts = append(parts, &ast.StringLiteral{Value: lit.String()})
			lit.Reset()
		}
	}
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == '{' {
			lit.WriteByte('{')
			i += 2
			continue
		}
		if c == '{' {
			depth := 1
			j := i + 1
			for j < len(text) && depth > 0 {
				switch text[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, r.errAt(t, "unterminated interpolation in f-string")
			}
			inner := text[i+1 : j-1]
			expr, err := ParseExpr(inner)
			if err != nil {
				return nil, r.errAt(t, "bad interpolation %q: %v", inner, err)
			}
			flush()
			parts = append(parts, expr)
			i = j
			continue
		}
		lit.WriteByte(c)
		i++
	}
	flush()
	return &ast.FStringLiteral{Parts: parts}, nil
}
