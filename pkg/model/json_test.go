package model

import (
	"encoding/json"
	"testing"
)

func TestRebuildNodeJSONCarriesKindTag(t *testing.T) {
	gcc := "gcc"
	tests := []struct {
		name     string
		reason   Reason
		wantKind string
	}{
		{"env var", EnvVarChanged{Name: "CC", OldValue: &gcc}, "env_var_changed"},
		{"dependency", UnitDependencyInfoChanged{Name: "serde", OldFingerprint: "1"}, "dependency_changed"},
		{"profile", ProfileConfigurationChanged{}, "profile_changed"},
		{"file", FileChanged{Path: "src/main.rs"}, "file_changed"},
		{"unknown", Unknown{Raw: "NewShape"}, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := NewRebuildNode(NewPackageTarget("app v0.1.0", "app"), tt.reason)
			data, err := json.Marshal(node)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var wire struct {
				Package PackageTarget  `json:"package"`
				Reason  map[string]any `json:"reason"`
			}
			if err := json.Unmarshal(data, &wire); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if wire.Package.PackageID != "app v0.1.0" {
				t.Errorf("package_id = %q", wire.Package.PackageID)
			}
			if wire.Reason["kind"] != tt.wantKind {
				t.Errorf("kind = %v, want %q", wire.Reason["kind"], tt.wantKind)
			}
		})
	}
}

func TestRootCauseChainJSONEmptyCascades(t *testing.T) {
	chain := RootCauseChain{
		RootCause: NewRebuildNode(NewPackageTarget("app v0.1.0", ""), TargetConfigurationChanged{}),
	}
	data, err := json.Marshal(chain)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var wire struct {
		Cascades []json.RawMessage `json:"cascades"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if wire.Cascades == nil {
		t.Error("cascades serialized as null, want []")
	}
}
