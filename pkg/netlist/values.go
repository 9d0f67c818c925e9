package netlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/netlayout/pkg/errors"
)

var valuePattern = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)([a-zA-Z]*)$`)

// scale factors by lowercase suffix letter; SPICE suffixes are case-insensitive
// so "M" is milli, not mega.
var scale = map[byte]float64{
	't': 1e12,
	'g': 1e9,
	'k': 1e3,
	'm': 1e-3,
	'u': 1e-6,
	'n': 1e-9,
	'p': 1e-12,
	'f': 1e-15,
}

// ParseValue converts a SPICE number such as "4.7k", "10meg" or "2.2uF" to
// a float. Letters after the scale suffix are units and are ignored.
func ParseValue(s string) (float64, error) {
	m := valuePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, errors.New(errors.ErrCodeParse, "invalid value %q", s)
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeParse, err, "invalid value %q", s)
	}

	suffix := strings.ToLower(m[2])
	switch {
	case suffix == "":
		return num, nil
	case strings.HasPrefix(suffix, "meg"):
		return num * 1e6, nil
	case strings.HasPrefix(suffix, "mil"):
		return num * 25.4e-6, nil
	}
	if f, ok := scale[suffix[0]]; ok {
		return num * f, nil
	}
	return num, nil
}
