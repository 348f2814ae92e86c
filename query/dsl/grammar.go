package dsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// FilterLexer defines the token types of the filter expression language.
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Literals
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`},

	// Comparison operators (longest first)
	{Name: "Op", Pattern: `!=|<>|>=|<=|=|>|<`},

	// Punctuation
	{Name: "Punct", Pattern: `[()\[\],]`},

	// Field names and keywords
	{Name: "Ident", Pattern: `[\p{L}_$][\p{L}\p{N}_$.-]*`},

	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// rawExpr is a left-fold sequence of operands.
type rawExpr struct {
	Pos  lexer.Position
	Head *rawOperand  `@@`
	Tail []*rawJoined `@@*`
}

type rawJoined struct {
	Op      string      `@("and" | "or" | "not")`
	Operand *rawOperand `@@`
}

type rawOperand struct {
	Group *rawExpr `  "(" @@ ")"`
	Leaf  *rawLeaf `| @@`
}

type rawLeaf struct {
	Pos   lexer.Position
	Field string    `@(Ident | String)`
	Unary string    `( @("exists" | "notExists")`
	Op    string    `| @(Op | "in" | "nin")`
	Value *rawValue `  @@ )`
}

type rawValue struct {
	String *string     `  @String`
	Number *string     `| @Number`
	True   bool        `| @"true"`
	False  bool        `| @"false"`
	Null   bool        `| @"null"`
	IsList bool        `| ( @"["`
	Items  []*rawValue `    ( @@ ( "," @@ )* )? "]" )`
}

var parser = participle.MustBuild[rawExpr](
	participle.Lexer(FilterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.CaseInsensitive("Ident"),
	participle.UseLookahead(2),
)
