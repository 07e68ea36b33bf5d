package model

import "encoding/json"

// JSON wire shapes. Every reason serializes as an object with a "kind" tag
// plus the variant's own fields, so consumers can switch on kind without
// probing for field presence.

type envVarChangedJSON struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	OldValue *string `json:"old_value,omitempty"`
	NewValue *string `json:"new_value,omitempty"`
}

type dependencyChangedJSON struct {
	Kind           string `json:"kind"`
	Name           string `json:"name"`
	OldFingerprint string `json:"old_fingerprint,omitempty"`
	NewFingerprint string `json:"new_fingerprint,omitempty"`
}

type rustflagsChangedJSON struct {
	Kind string   `json:"kind"`
	Old  []string `json:"old"`
	New  []string `json:"new"`
}

type featuresChangedJSON struct {
	Kind string `json:"kind"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

type kindOnlyJSON struct {
	Kind string `json:"kind"`
}

type fileChangedJSON struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

type unknownJSON struct {
	Kind string `json:"kind"`
	Raw  string `json:"raw"`
}

// reasonWire converts a Reason to its JSON wire shape.
func reasonWire(r Reason) any {
	switch v := r.(type) {
	case EnvVarChanged:
		return envVarChangedJSON{Kind: v.Kind(), Name: v.Name, OldValue: v.OldValue, NewValue: v.NewValue}
	case UnitDependencyInfoChanged:
		return dependencyChangedJSON{Kind: v.Kind(), Name: v.Name, OldFingerprint: v.OldFingerprint, NewFingerprint: v.NewFingerprint}
	case RustflagsChanged:
		return rustflagsChangedJSON{Kind: v.Kind(), Old: v.Old, New: v.New}
	case FeaturesChanged:
		return featuresChangedJSON{Kind: v.Kind(), Old: v.Old, New: v.New}
	case FileChanged:
		return fileChangedJSON{Kind: v.Kind(), Path: v.Path}
	case Unknown:
		return unknownJSON{Kind: v.Kind(), Raw: v.Raw}
	default:
		return kindOnlyJSON{Kind: r.Kind()}
	}
}

// MarshalJSON serializes the node as {"package": ..., "reason": {...}}.
func (n RebuildNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Package PackageTarget `json:"package"`
		Reason  any           `json:"reason"`
	}{
		Package: n.Package,
		Reason:  reasonWire(n.Reason),
	})
}

// MarshalJSON serializes the chain with its root cause and cascades.
func (c RootCauseChain) MarshalJSON() ([]byte, error) {
	affected := c.AffectedPackages
	if affected == nil {
		affected = []RebuildNode{}
	}
	return json.Marshal(struct {
		RootCause RebuildNode   `json:"root_cause"`
		Cascades  []RebuildNode `json:"cascades"`
	}{
		RootCause: c.RootCause,
		Cascades:  affected,
	})
}
