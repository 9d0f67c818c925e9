package netlist

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
)

// Parser reads netlists into records.
type Parser struct {
	parser *participle.Parser[File]

	// Title drops the first line of the input, which classic SPICE decks
	// reserve for a free-form title.
	Title bool

	// SkipUnsupported records elements with an unknown prefix (Q, M, X, ...)
	// in Netlist.Skipped instead of failing.
	SkipUnsupported bool
}

// NewParser creates a new netlist parser instance.
func NewParser() (*Parser, error) {
	parser, err := participle.Build[File](
		participle.Lexer(NetlistLexer),
		participle.Elide("Comment", "Whitespace", "Directive"),
		participle.UseLookahead(2),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}

	return &Parser{parser: parser}, nil
}

// Parse parses a netlist from a reader.
func (p *Parser) Parse(r io.Reader) (*Netlist, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "read netlist")
	}
	return p.ParseString(string(data))
}

// ParseString parses a netlist from a string.
func (p *Parser) ParseString(input string) (*Netlist, error) {
	if p.Title {
		// Keep the newline so reported line numbers stay true to the file.
		if i := strings.IndexByte(input, '\n'); i >= 0 {
			input = input[i:]
		} else {
			input = ""
		}
	}

	file, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse error")
	}
	return p.records(file)
}

// ParseFile parses a netlist from a file path.
func (p *Parser) ParseFile(filename string) (*Netlist, error) {
	if err := errors.ValidatePath(filename); err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", filename)
	}
	defer file.Close()

	return p.Parse(file)
}

func (p *Parser) records(file *File) (*Netlist, error) {
	n := &Netlist{}
	for _, el := range file.Elements {
		line := el.Pos.Line
		typ, err := circuit.ParseDeviceType(el.Name)
		if err != nil {
			if p.SkipUnsupported && errors.Is(err, errors.ErrCodeUnsupported) {
				n.Skipped = append(n.Skipped, el.Name)
				continue
			}
			return nil, errors.Wrap(errors.GetCode(err), err, "line %d: element %s", line, el.Name)
		}

		var value float64
		if el.Value != "" {
			if value, err = ParseValue(el.Value); err != nil {
				return nil, errors.Wrap(errors.ErrCodeParse, err, "line %d: element %s", line, el.Name)
			}
		}

		n.Records = append(n.Records, Record{
			Name:  el.Name,
			Type:  typ,
			Plus:  el.Plus,
			Minus: el.Minus,
			Value: value,
			Line:  line,
		})
	}
	return n, nil
}
