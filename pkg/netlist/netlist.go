package netlist

import (
	"github.com/matzehuels/netlayout/pkg/circuit"
	"github.com/matzehuels/netlayout/pkg/errors"
)

// Record is one two-terminal element read from a netlist.
type Record struct {
	Name  string
	Type  circuit.DeviceType
	Plus  string
	Minus string
	Value float64
	Line  int
}

// Netlist is the ordered list of supported elements in a file.
type Netlist struct {
	Records []Record
	Skipped []string
}

// Graph inserts the records into a new circuit graph in file order, so
// device ids follow line order.
func (n *Netlist) Graph() (*circuit.Graph, error) {
	g := circuit.New()
	for _, r := range n.Records {
		if _, err := g.InsertDevice(r.Type, r.Name, r.Plus, r.Minus, r.Value); err != nil {
			return nil, errors.Wrap(errors.GetCode(err), err, "line %d", r.Line)
		}
	}
	return g, nil
}

// Names returns the record names in file order.
func (n *Netlist) Names() []string {
	names := make([]string, len(n.Records))
	for i, r := range n.Records {
		names[i] = r.Name
	}
	return names
}

// Load parses the netlist at path and builds its graph.
func Load(path string, title bool) (*Netlist, *circuit.Graph, error) {
	p, err := NewParser()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "build netlist parser")
	}
	p.Title = title
	n, err := p.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}
	g, err := n.Graph()
	if err != nil {
		return nil, nil, err
	}
	return n, g, nil
}
