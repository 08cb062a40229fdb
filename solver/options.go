package solver

import (
	"strconv"
	"strings"
	"sync"
)

// Process-wide options database. Entries with a solver's options prefix
// override that solver's parameter map, so individual solves can be
// steered without touching the code that created them.
var (
	optionsMu sync.Mutex
	optionsDB = make(map[string]string)
)

// SetOption stores a prefixed option, e.g. ("fd_snes_0_rtol", "1e-10").
func SetOption(key, value string) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	optionsDB[key] = value
}

// UnsetOption removes a prefixed option.
func UnsetOption(key string) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	delete(optionsDB, key)
}

// GetOption looks up a prefixed option.
func GetOption(key string) (string, bool) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	v, ok := optionsDB[key]
	return v, ok
}

// optionsWithPrefix returns every option under the prefix, keyed by the
// remainder of the option name, parsed into typed parameter values.
func optionsWithPrefix(prefix string) map[string]interface{} {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	params := make(map[string]interface{})
	for k, v := range optionsDB {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		params[strings.TrimPrefix(k, prefix)] = parseOptionValue(v)
	}
	return params
}

func parseOptionValue(v string) interface{} {
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
