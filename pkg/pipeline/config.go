package pipeline

import (
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/netlayout/pkg/errors"
)

// LoadOptionsFile reads options from a TOML file:
//
//	seeds = ["V1"]
//	mode = "grounded"
//	row_device_factor = 2
//	anneal = true
//	seed = 7
//	formats = ["json", "svg"]
//
// Unknown keys are rejected so that typos do not silently fall back to
// defaults. Defaults are not applied here; flags are merged on top first.
func LoadOptionsFile(path string) (Options, error) {
	var o Options
	if err := errors.ValidatePath(path); err != nil {
		return o, err
	}
	md, err := toml.DecodeFile(path, &o)
	if err != nil {
		return o, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return o, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return o, nil
}
