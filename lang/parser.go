package lang

import (
	"fmt"
	"math"

	"github.com/rddlsim/go-rddlsim/rddl"
)

// Parser builds the domain-model object tree from a token stream in a
// single deterministic pass. A syntax error aborts the parse; no partial
// tree is returned.
type Parser struct {
	lexer *Lexer
	cur   Token
	peek  Token
}

// NewParser creates a parser over the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

// Lexer exposes the underlying lexer, e.g. to inspect lexical errors or
// attach a logger before parsing.
func (p *Parser) Lexer() *Lexer {
	return p.lexer
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s", p.cur.Line, fmt.Sprintf(format, args...))
}

func (p *Parser) expect(t TokenType, what string) error {
	if p.cur.Type != t {
		return p.errorf("expected %s, got %q", what, p.cur.Literal)
	}
	p.nextToken()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur.Type != TokenIdent {
		return "", p.errorf("expected identifier, got %q", p.cur.Literal)
	}
	lit := p.cur.Literal
	p.nextToken()
	return lit, nil
}

// Parse parses a full source text into a Model.
func Parse(input string) (*rddl.Model, error) {
	p := NewParser(input)
	return p.ParseModel()
}

// ParseModel parses zero or more domain, instance and non-fluents blocks.
// Each block kind may appear at most once.
func (p *Parser) ParseModel() (*rddl.Model, error) {
	m := &rddl.Model{}
	for p.cur.Type != TokenEOF {
		switch p.cur.Type {
		case TokenDomain:
			if m.Domain != nil {
				return nil, p.errorf("duplicate domain block")
			}
			d, err := p.parseDomain()
			if err != nil {
				return nil, err
			}
			m.Domain = d
		case TokenInstance:
			if m.Instance != nil {
				return nil, p.errorf("duplicate instance block")
			}
			i, err := p.parseInstance()
			if err != nil {
				return nil, err
			}
			m.Instance = i
		case TokenNonFluents:
			if m.NonFluents != nil {
				return nil, p.errorf("duplicate non-fluents block")
			}
			nf, err := p.parseNonFluents()
			if err != nil {
				return nil, err
			}
			m.NonFluents = nf
		default:
			return nil, p.errorf("expected domain, instance or non-fluents block, got %q", p.cur.Literal)
		}
	}
	return m, nil
}

// parseDomain parses: domain NAME { requirements? (types|pvariables)* }
func (p *Parser) parseDomain() (*rddl.Domain, error) {
	p.nextToken() // domain
	name, err := p.expectIdent()
	if err != nil {
		return nil, fmt.Errorf("domain name: %w", err)
	}
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}

	d := &rddl.Domain{Name: name}

	if p.cur.Type == TokenRequirements {
		reqs, err := p.parseRequirements()
		if err != nil {
			return nil, err
		}
		d.Requirements = reqs
	}

	for p.cur.Type != TokenRCurly {
		switch p.cur.Type {
		case TokenTypes:
			types, err := p.parseTypeSection()
			if err != nil {
				return nil, err
			}
			d.Types = append(d.Types, types...)
		case TokenPVariables:
			pvars, err := p.parsePVarSection()
			if err != nil {
				return nil, err
			}
			d.PVariables = append(d.PVariables, pvars...)
		default:
			return nil, p.errorf("expected types or pvariables section, got %q", p.cur.Literal)
		}
	}
	p.nextToken() // }
	return d, nil
}

// parseRequirements parses: requirements [=] { ident, ... } ;
// Both spellings, with and without the assignment operator, are accepted.
func (p *Parser) parseRequirements() ([]string, error) {
	p.nextToken() // requirements
	if p.cur.Type == TokenAssign {
		p.nextToken()
	}
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}
	reqs, err := p.parseIdentList()
	if err != nil {
		return nil, fmt.Errorf("requirements: %w", err)
	}
	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return nil, err
	}
	return reqs, nil
}

// parseTypeSection parses: types { (NAME : object ; | NAME : { @a, @b } ;)* } ;
func (p *Parser) parseTypeSection() ([]rddl.TypeDef, error) {
	p.nextToken() // types
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}

	var types []rddl.TypeDef
	for p.cur.Type == TokenIdent {
		name := p.cur.Literal
		p.nextToken()
		if err := p.expect(TokenColon, "':'"); err != nil {
			return nil, err
		}

		switch p.cur.Type {
		case TokenObject:
			p.nextToken()
			types = append(types, rddl.TypeDef{Name: name})
		case TokenLCurly:
			p.nextToken()
			var enum []string
			for p.cur.Type == TokenEnumVal {
				enum = append(enum, p.cur.Literal)
				p.nextToken()
				if p.cur.Type != TokenComma {
					break
				}
				p.nextToken()
			}
			if err := p.expect(TokenRCurly, "'}'"); err != nil {
				return nil, err
			}
			if enum == nil {
				enum = []string{}
			}
			types = append(types, rddl.TypeDef{Name: name, Enum: enum})
		default:
			return nil, p.errorf("type %q: expected object or enum list, got %q", name, p.cur.Literal)
		}
		if err := p.expect(TokenSemi, "';'"); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return nil, err
	}
	return types, nil
}

// parsePVarSection parses: pvariables { pvar_def* } ;
func (p *Parser) parsePVarSection() ([]rddl.PVariable, error) {
	p.nextToken() // pvariables
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}

	var pvars []rddl.PVariable
	for p.cur.Type == TokenIdent {
		pv, err := p.parsePVarDef()
		if err != nil {
			return nil, err
		}
		pvars = append(pvars, pv)
	}

	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return nil, err
	}
	return pvars, nil
}

// parsePVarDef parses one declaration:
//
//	NAME [ ( type, ... ) ] : { CLASS, RANGE, default = CONST } ;
//
// All six fluent classes share this shape; the class keyword is the tag.
func (p *Parser) parsePVarDef() (rddl.PVariable, error) {
	var pv rddl.PVariable
	pv.Name = p.cur.Literal
	p.nextToken()

	if p.cur.Type == TokenLParen {
		p.nextToken()
		params, err := p.parseIdentList()
		if err != nil {
			return pv, fmt.Errorf("pvariable %q parameters: %w", pv.Name, err)
		}
		if err := p.expect(TokenRParen, "')'"); err != nil {
			return pv, err
		}
		pv.ParamTypes = params
	}

	if err := p.expect(TokenColon, "':'"); err != nil {
		return pv, err
	}
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return pv, err
	}

	class, ok := fluentClass(p.cur.Type)
	if !ok {
		return pv, p.errorf("pvariable %q: expected fluent class keyword, got %q", pv.Name, p.cur.Literal)
	}
	pv.Class = class
	p.nextToken()

	if err := p.expect(TokenComma, "','"); err != nil {
		return pv, err
	}

	rng, err := p.parseTypeSpec()
	if err != nil {
		return pv, fmt.Errorf("pvariable %q: %w", pv.Name, err)
	}
	pv.Range = rng

	if err := p.expect(TokenComma, "','"); err != nil {
		return pv, err
	}
	if err := p.expect(TokenDefault, "default"); err != nil {
		return pv, err
	}
	if err := p.expect(TokenAssign, "'='"); err != nil {
		return pv, err
	}

	def, err := p.parseRangeConst()
	if err != nil {
		return pv, fmt.Errorf("pvariable %q default: %w", pv.Name, err)
	}
	pv.Default = def

	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return pv, err
	}
	if err := p.expect(TokenSemi, "';'"); err != nil {
		return pv, err
	}
	return pv, nil
}

// fluentClass maps a class keyword token to its FluentClass tag.
func fluentClass(t TokenType) (rddl.FluentClass, bool) {
	switch t {
	case TokenNonFluent:
		return rddl.NonFluentClass, true
	case TokenStateFluent:
		return rddl.StateFluentClass, true
	case TokenActionFluent:
		return rddl.ActionFluentClass, true
	case TokenIntermFluent:
		return rddl.IntermFluentClass, true
	case TokenDerivedFluent:
		return rddl.DerivedFluentClass, true
	case TokenObservFluent:
		return rddl.ObservFluentClass, true
	}
	return 0, false
}

// parseTypeSpec parses a range type: bool, int, real, or a named type.
func (p *Parser) parseTypeSpec() (string, error) {
	switch p.cur.Type {
	case TokenBool:
		p.nextToken()
		return rddl.BoolType, nil
	case TokenIntType:
		p.nextToken()
		return rddl.IntType, nil
	case TokenReal:
		p.nextToken()
		return rddl.RealType, nil
	case TokenIdent:
		name := p.cur.Literal
		p.nextToken()
		return name, nil
	}
	return "", p.errorf("expected range type, got %q", p.cur.Literal)
}

// parseRangeConst parses a default literal: true/false, an integer or
// double with optional negation, an infinity marker, or an identifier.
func (p *Parser) parseRangeConst() (rddl.Value, error) {
	neg := false
	if p.cur.Type == TokenMinus {
		neg = true
		p.nextToken()
	}

	switch p.cur.Type {
	case TokenTrue, TokenFalse:
		if neg {
			return rddl.Value{}, p.errorf("cannot negate a boolean literal")
		}
		v := rddl.BoolVal(p.cur.Type == TokenTrue)
		p.nextToken()
		return v, nil
	case TokenInt:
		n := p.cur.Int
		if neg {
			n = -n
		}
		p.nextToken()
		return rddl.IntVal(n), nil
	case TokenDouble:
		f := p.cur.Float
		if neg {
			f = -f
		}
		p.nextToken()
		return rddl.DoubleVal(f), nil
	case TokenPosInf:
		f := math.Inf(1)
		if neg {
			f = math.Inf(-1)
		}
		p.nextToken()
		return rddl.DoubleVal(f), nil
	case TokenNegInf:
		f := math.Inf(-1)
		if neg {
			f = math.Inf(1)
		}
		p.nextToken()
		return rddl.DoubleVal(f), nil
	case TokenIdent:
		if neg {
			return rddl.Value{}, p.errorf("cannot negate identifier %q", p.cur.Literal)
		}
		v := rddl.IdentVal(p.cur.Literal)
		p.nextToken()
		return v, nil
	case TokenEnumVal:
		if neg {
			return rddl.Value{}, p.errorf("cannot negate enum value %q", p.cur.Literal)
		}
		v := rddl.IdentVal(p.cur.Literal[1:])
		p.nextToken()
		return v, nil
	}
	return rddl.Value{}, p.errorf("expected default value, got %q", p.cur.Literal)
}

// parseInstance parses: instance NAME { }
// Population, horizon and discount are supplied as compilation input.
func (p *Parser) parseInstance() (*rddl.Instance, error) {
	p.nextToken() // instance
	name, err := p.expectIdent()
	if err != nil {
		return nil, fmt.Errorf("instance name: %w", err)
	}
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return nil, err
	}
	return &rddl.Instance{Name: name}, nil
}

// parseNonFluents parses: non-fluents NAME { }
func (p *Parser) parseNonFluents() (*rddl.NonFluentsBlock, error) {
	p.nextToken() // non-fluents
	name, err := p.expectIdent()
	if err != nil {
		return nil, fmt.Errorf("non-fluents name: %w", err)
	}
	if err := p.expect(TokenLCurly, "'{'"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenRCurly, "'}'"); err != nil {
		return nil, err
	}
	return &rddl.NonFluentsBlock{Name: name}, nil
}

// parseIdentList parses a possibly empty comma-separated identifier list.
func (p *Parser) parseIdentList() ([]string, error) {
	var out []string
	if p.cur.Type != TokenIdent {
		return out, nil
	}
	out = append(out, p.cur.Literal)
	p.nextToken()
	for p.cur.Type == TokenComma {
		p.nextToken()
		if p.cur.Type != TokenIdent {
			return nil, p.errorf("expected identifier after ',', got %q", p.cur.Literal)
		}
		out = append(out, p.cur.Literal)
		p.nextToken()
	}
	return out, nil
}
