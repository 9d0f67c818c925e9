package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashNetlist hashes netlist text after normalizing line endings and
// trailing blanks, so the same circuit saved by different editors shares
// one cache entry.
func HashNetlist(src []byte) string {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	lines := bytes.Split(src, []byte("\n"))
	for i, line := range lines {
		lines[i] = bytes.TrimRight(line, " \t")
	}
	return Hash(bytes.TrimRight(bytes.Join(lines, []byte("\n")), "\n"))
}

// hashKey returns "prefix:<sha256 of the JSON encoded parts>".
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Keyer derives cache keys from the inputs of a computation.
type Keyer interface {
	// LayoutKey identifies a layout of the netlist with the given hash.
	LayoutKey(netlistHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds every option that changes a layout.
type LayoutKeyOpts struct {
	Title              bool           `json:"title"`
	SkipUnsupported    bool           `json:"skip_unsupported"`
	Seeds              []string       `json:"seeds"`
	Mode               string         `json:"mode"`
	RowDeviceFactor    int            `json:"row_device_factor"`
	InterleaveGap      int            `json:"interleave_gap"`
	MaxOneColWireCount int            `json:"max_one_col_wire_count"`
	Anneal             *AnnealKeyOpts `json:"anneal,omitempty"`
}

// AnnealKeyOpts holds the annealing parameters; nil means no annealing.
type AnnealKeyOpts struct {
	Seed         uint64  `json:"seed"`
	T0           float64 `json:"t0"`
	TEnd         float64 `json:"t_end"`
	Alpha        float64 `json:"alpha"`
	StepsPerTemp int     `json:"steps_per_temp"`
}

// ArtifactKeyOpts holds the options of a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer produces "layout:<sha256>" style keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the netlist hash together with the options. Seed order
// does not matter.
func (DefaultKeyer) LayoutKey(netlistHash string, opts LayoutKeyOpts) string {
	opts.Seeds = slices.Clone(opts.Seeds)
	slices.SortFunc(opts.Seeds, strings.Compare)
	return hashKey("layout", netlistHash, opts)
}

// ArtifactKey hashes the layout hash together with the render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
