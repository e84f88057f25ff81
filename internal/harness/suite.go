package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindScenarios returns the YAML scenario files under dir, sorted.
// If filter is non-empty, only files whose base name (without extension)
// matches the glob pattern are returned.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// Record adds one scenario outcome to the summary.
func (s *SuiteResult) Record(name, path string, errs []string) {
	s.Total++
	if len(errs) == 0 {
		s.Passed++
		return
	}
	s.Failed++
	s.Failures = append(s.Failures, ScenarioFailure{Scenario: name, Path: path, Errors: errs})
}

// RunFile loads and runs one scenario file, then compares its trace with
// the golden file when one exists. With update set, the golden file is
// rewritten instead.
func RunFile(path string, update bool) (*Scenario, *Result, []string) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, []string{fmt.Sprintf("failed to load scenario: %v", err)}
	}

	result, err := Run(scenario)
	if err != nil {
		return scenario, nil, []string{fmt.Sprintf("execution failed: %v", err)}
	}
	errs := append([]string(nil), result.Errors...)

	trace, err := TraceJSON(scenario.Name, result)
	if err != nil {
		return scenario, result, append(errs, fmt.Sprintf("failed to marshal trace: %v", err))
	}

	goldenPath := GoldenPath(path)
	if update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			return scenario, result, append(errs, fmt.Sprintf("failed to create golden directory: %v", err))
		}
		if err := os.WriteFile(goldenPath, trace, 0644); err != nil {
			return scenario, result, append(errs, fmt.Sprintf("failed to write golden file: %v", err))
		}
		return scenario, result, errs
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: assertions only.
	case err != nil:
		errs = append(errs, fmt.Sprintf("failed to read golden file: %v", err))
	case string(golden) != string(trace):
		errs = append(errs, "trace does not match golden file (run with --update to regenerate)")
	}
	return scenario, result, errs
}
