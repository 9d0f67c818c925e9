package netlist

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// NetlistLexer tokenizes SPICE-style element lines.
//
// Rule order matters: the lexer tries rules top to bottom, so comments and
// directives win over everything else and numbers win over identifiers.
var NetlistLexer = lexer.MustSimple([]lexer.SimpleRule{
	// "* full line" and "; trailing" comments
	{Name: "Comment", Pattern: `(?:\*|;)[^\n]*`},

	// .tran, .op, .end ... are not part of the topology
	{Name: "Directive", Pattern: `\.[a-zA-Z][^\n]*`},

	{Name: "EOL", Pattern: `[\r\n]+`},
	{Name: "Whitespace", Pattern: `[ \t]+`},

	// 5, -1.5, .1, 1e3, 4.7k, 2.2uF, 10meg
	{Name: "Number", Pattern: `[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?[a-zA-Z]*`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.+\-]*`},

	// Parameter syntax such as tc=0.1 or SIN(0 1 1k)
	{Name: "Punct", Pattern: `[=(),]`},
})
