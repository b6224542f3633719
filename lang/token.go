// Package lang implements the lexer and grammar parser for the RDDL-style
// modeling language. The lexer and parser are plain values with no shared
// tables, so multiple domains can be parsed concurrently.
package lang

import "fmt"

// TokenType identifies a lexical token class. Every reserved word of the
// language carries its own type so the parser never string-compares.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent   // identifier, optionally with a trailing prime
	TokenVar     // ?x
	TokenEnumVal // @x
	TokenInt     // integer literal (decoded)
	TokenDouble  // double literal (decoded)

	// Operators and punctuation.
	TokenAnd        // ^
	TokenOr         // |
	TokenNot        // ~
	TokenPlus       // +
	TokenTimes      // *
	TokenLParen     // (
	TokenRParen     // )
	TokenLCurly     // {
	TokenRCurly     // }
	TokenDot        // .
	TokenComma      // ,
	TokenUnderscore // _
	TokenLBrack     // [
	TokenRBrack     // ]
	TokenImply      // =>
	TokenEquiv      // <=>
	TokenNeq        // ~=
	TokenLessEq     // <=
	TokenLess       // <
	TokenGreaterEq  // >=
	TokenGreater    // >
	TokenAssign     // =
	TokenCompEq     // ==
	TokenDiv        // /
	TokenMinus      // -
	TokenColon      // :
	TokenSemi       // ;
	TokenDollar     // $
	TokenQuestion   // ?
	TokenAmpersand  // &

	// Reserved words: block and section markers.
	TokenDomain
	TokenInstance
	TokenHorizon
	TokenDiscount
	TokenObjects
	TokenInitState
	TokenRequirements
	TokenStateActionConstraints
	TokenActionPreconditions
	TokenStateInvariants
	TokenTypes
	TokenObject
	TokenBool
	TokenIntType
	TokenReal
	TokenNegInf
	TokenPosInf
	TokenPVariables
	TokenNonFluent
	TokenNonFluents
	TokenStateFluent
	TokenIntermFluent
	TokenDerivedFluent
	TokenObservFluent
	TokenActionFluent
	TokenLevel
	TokenDefault
	TokenMaxNondefActions
	TokenTerminateWhen
	TokenTerminal
	TokenCpfs
	TokenCdfs
	TokenReward
	TokenForall
	TokenExists
	TokenTrue
	TokenFalse
	TokenIf
	TokenThen
	TokenElse
	TokenSwitch
	TokenCase
	TokenOtherwise

	// Reserved words: distribution names.
	TokenKronDelta
	TokenDiracDelta
	TokenUniform
	TokenBernoulli
	TokenDiscrete
	TokenNormal
	TokenPoisson
	TokenExponential
	TokenWeibull
	TokenGamma
	TokenMultinomial
	TokenDirichlet
)

// keywords maps reserved spellings to their token types. Keyword lookup
// happens after an identifier is scanned, so reserved words win over
// identifiers with the same spelling.
var keywords = map[string]TokenType{
	"domain":                   TokenDomain,
	"instance":                 TokenInstance,
	"horizon":                  TokenHorizon,
	"discount":                 TokenDiscount,
	"objects":                  TokenObjects,
	"init-state":               TokenInitState,
	"requirements":             TokenRequirements,
	"state-action-constraints": TokenStateActionConstraints,
	"action-preconditions":     TokenActionPreconditions,
	"state-invariants":         TokenStateInvariants,
	"types":                    TokenTypes,
	"object":                   TokenObject,
	"bool":                     TokenBool,
	"int":                      TokenIntType,
	"real":                     TokenReal,
	"neg-inf":                  TokenNegInf,
	"pos-inf":                  TokenPosInf,
	"pvariables":               TokenPVariables,
	"non-fluent":               TokenNonFluent,
	"non-fluents":              TokenNonFluents,
	"state-fluent":             TokenStateFluent,
	"interm-fluent":            TokenIntermFluent,
	"derived-fluent":           TokenDerivedFluent,
	"observ-fluent":            TokenObservFluent,
	"action-fluent":            TokenActionFluent,
	"level":                    TokenLevel,
	"default":                  TokenDefault,
	"max-nondef-actions":       TokenMaxNondefActions,
	"terminate-when":           TokenTerminateWhen,
	"terminal":                 TokenTerminal,
	"cpfs":                     TokenCpfs,
	"cdfs":                     TokenCdfs,
	"reward":                   TokenReward,
	"forall":                   TokenForall,
	"exists":                   TokenExists,
	"true":                     TokenTrue,
	"false":                    TokenFalse,
	"if":                       TokenIf,
	"then":                     TokenThen,
	"else":                     TokenElse,
	"switch":                   TokenSwitch,
	"case":                     TokenCase,
	"otherwise":                TokenOtherwise,
	"KronDelta":                TokenKronDelta,
	"DiracDelta":               TokenDiracDelta,
	"Uniform":                  TokenUniform,
	"Bernoulli":                TokenBernoulli,
	"Discrete":                 TokenDiscrete,
	"Normal":                   TokenNormal,
	"Poisson":                  TokenPoisson,
	"Exponential":              TokenExponential,
	"Weibull":                  TokenWeibull,
	"Gamma":                    TokenGamma,
	"Multinomial":              TokenMultinomial,
	"Dirichlet":                TokenDirichlet,
}

// LookupIdent returns the keyword type for a spelling, or TokenIdent.
func LookupIdent(lit string) TokenType {
	if t, ok := keywords[lit]; ok {
		return t
	}
	return TokenIdent
}

// Token is a single lexical token. Numeric tokens carry the decoded value
// in Int or Float, not just the source substring. Line is 1-based and used
// only for diagnostics.
type Token struct {
	Type    TokenType
	Literal string
	Int     int64
	Float   float64
	Line    int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%d, %q, line %d}", t.Type, t.Literal, t.Line)
}
