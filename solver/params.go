package solver

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

// parameterFile is the gcfg layout of a solver parameter file:
//
//	[solver]
//	type = newtonls
//	rtol = 1e-10
//	maxit = 25
//	monitor = true
type parameterFile struct {
	Solver struct {
		Type    string
		Rtol    float64
		Atol    float64
		Dtol    float64
		MaxIt   int
		Monitor bool
	}
}

// LoadParameters reads a solver parameter map from a gcfg file,
// including only the keys the file sets.
func LoadParameters(path string) (map[string]interface{}, error) {
	var cfg parameterFile
	if err := gcfg.ReadFileInto(&cfg, path); err != nil {
		return nil, fmt.Errorf("reading solver parameters from %s: %w", path, err)
	}
	params := make(map[string]interface{})
	if cfg.Solver.Type != "" {
		params["type"] = cfg.Solver.Type
	}
	if cfg.Solver.Rtol > 0 {
		params["rtol"] = cfg.Solver.Rtol
	}
	if cfg.Solver.Atol > 0 {
		params["atol"] = cfg.Solver.Atol
	}
	if cfg.Solver.Dtol > 0 {
		params["dtol"] = cfg.Solver.Dtol
	}
	if cfg.Solver.MaxIt > 0 {
		params["max_it"] = cfg.Solver.MaxIt
	}
	if cfg.Solver.Monitor {
		params["monitor"] = true
	}
	return params, nil
}
