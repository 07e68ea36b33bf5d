// Package output renders a rebuild analysis as JSON or as a colored
// console report.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wvhulle/cargo-dirty/pkg/graph"
	"github.com/wvhulle/cargo-dirty/pkg/model"
)

// Summary breaks rebuild triggers down by type.
type Summary struct {
	EnvVars       int `json:"env_vars"`
	Dependencies  int `json:"dependencies"`
	TargetConfigs int `json:"target_configs"`
	Files         int `json:"files"`
	Other         int `json:"other"`
}

// Report is the full machine-readable analysis result.
type Report struct {
	Project         string                 `json:"project,omitempty"`
	TotalRebuilds   int                    `json:"total_rebuilds"`
	RootCauseCount  int                    `json:"root_cause_count"`
	CascadeCount    int                    `json:"cascade_count"`
	Summary         Summary                `json:"summary"`
	RootCauseChains []model.RootCauseChain `json:"root_cause_chains"`
}

// BuildReport derives a report from a populated graph.
func BuildReport(project string, g *graph.RebuildGraph) *Report {
	chains := g.RootCauseChains()
	if chains == nil {
		chains = []model.RootCauseChain{}
	}

	var s Summary
	for _, n := range g.Nodes() {
		switch n.Reason.(type) {
		case model.EnvVarChanged:
			s.EnvVars++
		case model.UnitDependencyInfoChanged:
			s.Dependencies++
		case model.TargetConfigurationChanged:
			s.TargetConfigs++
		case model.FileChanged:
			s.Files++
		default:
			s.Other++
		}
	}

	rootCount := len(chains)
	return &Report{
		Project:         project,
		TotalRebuilds:   g.Len(),
		RootCauseCount:  rootCount,
		CascadeCount:    g.Len() - rootCount,
		Summary:         s,
		RootCauseChains: chains,
	}
}

// WriteChainsJSON writes the ordered root-cause-chain array. An empty
// graph serializes as [].
func WriteChainsJSON(w io.Writer, g *graph.RebuildGraph) error {
	chains := g.RootCauseChains()
	if chains == nil {
		chains = []model.RootCauseChain{}
	}
	return writeJSON(w, chains)
}

// WriteReportJSON writes the detailed report.
func WriteReportJSON(w io.Writer, r *Report) error {
	return writeJSON(w, r)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing analysis: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing analysis: %w", err)
	}
	return nil
}
