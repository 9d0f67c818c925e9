package netlist

import "github.com/alecthomas/participle/v2/lexer"

// File is the parse tree of a netlist.
type File struct {
	Elements []*Element `EOL* ( @@ EOL* )*`
}

// Element is one device line: name, two nodes, an optional DC/AC keyword,
// an optional value and whatever parameters follow.
type Element struct {
	Pos lexer.Position

	Name   string   `@Ident`
	Plus   string   `@(Ident | Number)`
	Minus  string   `@(Ident | Number)`
	Kind   string   `@("DC" | "dc" | "Dc" | "AC" | "ac" | "Ac")?`
	Value  string   `@Number?`
	Params []string `@(Ident | Number | Punct)*`
}
