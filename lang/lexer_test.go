package lang

import "testing"

func TestLexer_BasicTokens(t *testing.T) {
	input := `domain nav { types { xpos: object; }; }`
	tokens := Tokenize(input)

	expected := []struct {
		typ TokenType
		lit string
	}{
		{TokenDomain, "domain"},
		{TokenIdent, "nav"},
		{TokenLCurly, "{"},
		{TokenTypes, "types"},
		{TokenLCurly, "{"},
		{TokenIdent, "xpos"},
		{TokenColon, ":"},
		{TokenObject, "object"},
		{TokenSemi, ";"},
		{TokenRCurly, "}"},
		{TokenSemi, ";"},
		{TokenRCurly, "}"},
		{TokenEOF, ""},
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, e := range expected {
		if tokens[i].Type != e.typ {
			t.Errorf("token %d: expected type %v, got %v", i, e.typ, tokens[i].Type)
		}
		if tokens[i].Literal != e.lit {
			t.Errorf("token %d: expected literal %q, got %q", i, e.lit, tokens[i].Literal)
		}
	}
}

func TestLexer_KeywordsWinOverIdentifiers(t *testing.T) {
	input := `state-fluent non-fluents init-state Bernoulli`
	tokens := Tokenize(input)

	expected := []TokenType{TokenStateFluent, TokenNonFluents, TokenInitState, TokenBernoulli}
	for i, e := range expected {
		if tokens[i].Type != e {
			t.Errorf("token %d (%q): expected type %v, got %v", i, tokens[i].Literal, e, tokens[i].Type)
		}
	}
}

func TestLexer_HyphenatedIdentifier(t *testing.T) {
	// Interior hyphens belong to the name; a trailing hyphen is a minus.
	tokens := Tokenize(`rain-level rlevel-`)

	if tokens[0].Type != TokenIdent || tokens[0].Literal != "rain-level" {
		t.Errorf("expected identifier 'rain-level', got %v %q", tokens[0].Type, tokens[0].Literal)
	}
	if tokens[1].Type != TokenIdent || tokens[1].Literal != "rlevel" {
		t.Errorf("expected identifier 'rlevel', got %v %q", tokens[1].Type, tokens[1].Literal)
	}
	if tokens[2].Type != TokenMinus {
		t.Errorf("expected trailing minus, got %v", tokens[2].Type)
	}
}

func TestLexer_PrimedIdentifier(t *testing.T) {
	tokens := Tokenize(`rlevel' = rlevel`)

	if tokens[0].Type != TokenIdent || tokens[0].Literal != "rlevel'" {
		t.Errorf("expected primed identifier, got %v %q", tokens[0].Type, tokens[0].Literal)
	}
	if tokens[1].Type != TokenAssign {
		t.Errorf("expected assign, got %v", tokens[1].Type)
	}
}

func TestLexer_Variables(t *testing.T) {
	tokens := Tokenize(`?r ?x2 ?`)

	if tokens[0].Type != TokenVar || tokens[0].Literal != "?r" {
		t.Errorf("expected variable '?r', got %v %q", tokens[0].Type, tokens[0].Literal)
	}
	if tokens[1].Type != TokenVar || tokens[1].Literal != "?x2" {
		t.Errorf("expected variable '?x2', got %v %q", tokens[1].Type, tokens[1].Literal)
	}
	if tokens[2].Type != TokenQuestion {
		t.Errorf("bare '?' should be a question token, got %v", tokens[2].Type)
	}
}

func TestLexer_EnumValues(t *testing.T) {
	tokens := Tokenize(`@low @high-risk`)

	if tokens[0].Type != TokenEnumVal || tokens[0].Literal != "@low" {
		t.Errorf("expected enum value '@low', got %v %q", tokens[0].Type, tokens[0].Literal)
	}
	if tokens[1].Type != TokenEnumVal || tokens[1].Literal != "@high-risk" {
		t.Errorf("expected enum value '@high-risk', got %v %q", tokens[1].Type, tokens[1].Literal)
	}
}

func TestLexer_NumbersDecoded(t *testing.T) {
	tokens := Tokenize(`42 3.14 .5 7.0`)

	if tokens[0].Type != TokenInt || tokens[0].Int != 42 {
		t.Errorf("expected int 42, got %v %d", tokens[0].Type, tokens[0].Int)
	}
	if tokens[1].Type != TokenDouble || tokens[1].Float != 3.14 {
		t.Errorf("expected double 3.14, got %v %g", tokens[1].Type, tokens[1].Float)
	}
	if tokens[2].Type != TokenDouble || tokens[2].Float != 0.5 {
		t.Errorf("expected double 0.5, got %v %g", tokens[2].Type, tokens[2].Float)
	}
	if tokens[3].Type != TokenDouble || tokens[3].Float != 7.0 {
		t.Errorf("expected double 7.0, got %v %g", tokens[3].Type, tokens[3].Float)
	}
}

func TestLexer_Operators(t *testing.T) {
	input := `~= == => <=> <= >= < > = ~ ^ |`
	tokens := Tokenize(input)

	expected := []TokenType{
		TokenNeq, TokenCompEq, TokenImply, TokenEquiv, TokenLessEq,
		TokenGreaterEq, TokenLess, TokenGreater, TokenAssign, TokenNot,
		TokenAnd, TokenOr,
	}
	for i, e := range expected {
		if tokens[i].Type != e {
			t.Errorf("token %d: expected type %v, got %v (%q)", i, e, tokens[i].Type, tokens[i].Literal)
		}
	}
}

func TestLexer_Comments(t *testing.T) {
	input := `// header comment
domain // trailing comment
nav`
	tokens := Tokenize(input)

	if tokens[0].Type != TokenDomain {
		t.Errorf("expected domain after comment, got %v", tokens[0].Type)
	}
	if tokens[1].Type != TokenIdent || tokens[1].Literal != "nav" {
		t.Errorf("expected identifier 'nav', got %v %q", tokens[1].Type, tokens[1].Literal)
	}
	if tokens[1].Line != 3 {
		t.Errorf("expected 'nav' on line 3, got %d", tokens[1].Line)
	}
}

func TestLexer_IllegalCharacterSkipped(t *testing.T) {
	l := NewLexer("domain # nav")

	tok := l.NextToken()
	if tok.Type != TokenDomain {
		t.Fatalf("expected domain, got %v", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != TokenIdent || tok.Literal != "nav" {
		t.Errorf("expected lexing to continue past '#', got %v %q", tok.Type, tok.Literal)
	}

	errs := l.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 lex error, got %d", len(errs))
	}
	if errs[0].Char != '#' || errs[0].Line != 1 {
		t.Errorf("expected '#' at line 1, got %q at line %d", errs[0].Char, errs[0].Line)
	}
}

func TestLexer_LineTracking(t *testing.T) {
	input := "domain\nnav\n\n{"
	tokens := Tokenize(input)

	lines := []int{1, 2, 4}
	for i, want := range lines {
		if tokens[i].Line != want {
			t.Errorf("token %d (%q): expected line %d, got %d", i, tokens[i].Literal, want, tokens[i].Line)
		}
	}
}
