package model

import "strings"

// Reason is one rebuild trigger extracted from a single cargo fingerprint
// log line. The set of implementations is closed: cargo's fingerprint
// subsystem emits a fixed vocabulary of dirtiness verdicts and each one maps
// to exactly one variant here.
type Reason interface {
	// Kind returns a stable lowercase tag identifying the variant.
	Kind() string

	// DedupKey categorizes the reason for deduplication. Two log lines that
	// describe the same logical trigger (e.g. the same dependency rebuilt
	// for two different target kinds) produce the same key. Fingerprint
	// values are deliberately excluded: they differ between lines that
	// describe the same cascade.
	DedupKey() string

	// Summary returns a one-line rendering for console reports.
	Summary() string

	// Explain returns a multi-line explanation with actionable suggestions.
	Explain() string

	isReason()
}

// EnvVarChanged means an environment variable cargo tracks had a different
// value than during the previous build. Nil pointers mean "not set".
type EnvVarChanged struct {
	Name     string
	OldValue *string
	NewValue *string
}

// UnitDependencyInfoChanged means this unit rebuilt because a named
// dependency rebuilt. This is the only cascading variant: every other
// reason is a root cause.
type UnitDependencyInfoChanged struct {
	Name           string
	OldFingerprint string
	NewFingerprint string
	Context        *DependencyChangeContext
}

// DependencyChangeContext carries optional detail about where a dependency
// change was observed.
type DependencyChangeContext struct {
	PackageID  string
	TargetType string
	RootCause  string
}

// RustflagsChanged means the RUSTFLAGS set differs from the previous build.
type RustflagsChanged struct {
	Old []string
	New []string
}

// FeaturesChanged means the activated feature set differs.
type FeaturesChanged struct {
	Old string
	New string
}

// ProfileConfigurationChanged means the build profile settings changed.
type ProfileConfigurationChanged struct{}

// TargetConfigurationChanged means the build target settings changed.
type TargetConfigurationChanged struct{}

// FileChanged means a tracked file was modified after the last build.
type FileChanged struct {
	Path string
}

// Unknown retains a dirty-flagged line whose payload no known shape
// matched. The parser never produces it; the driver may wrap unparsed
// dirty lines into it so they are not silently dropped.
type Unknown struct {
	Raw string
}

func (EnvVarChanged) isReason()               {}
func (UnitDependencyInfoChanged) isReason()   {}
func (RustflagsChanged) isReason()            {}
func (FeaturesChanged) isReason()             {}
func (ProfileConfigurationChanged) isReason() {}
func (TargetConfigurationChanged) isReason()  {}
func (FileChanged) isReason()                 {}
func (Unknown) isReason()                     {}

func (EnvVarChanged) Kind() string               { return "env_var_changed" }
func (UnitDependencyInfoChanged) Kind() string   { return "dependency_changed" }
func (RustflagsChanged) Kind() string            { return "rustflags_changed" }
func (FeaturesChanged) Kind() string             { return "features_changed" }
func (ProfileConfigurationChanged) Kind() string { return "profile_changed" }
func (TargetConfigurationChanged) Kind() string  { return "target_config_changed" }
func (FileChanged) Kind() string                 { return "file_changed" }
func (Unknown) Kind() string                     { return "unknown" }

func (r EnvVarChanged) DedupKey() string             { return "env:" + r.Name }
func (r UnitDependencyInfoChanged) DedupKey() string { return "dep:" + r.Name }
func (RustflagsChanged) DedupKey() string            { return "rustflags" }
func (FeaturesChanged) DedupKey() string             { return "features" }
func (ProfileConfigurationChanged) DedupKey() string { return "profile" }
func (TargetConfigurationChanged) DedupKey() string  { return "config" }
func (r FileChanged) DedupKey() string               { return "file:" + r.Path }
func (r Unknown) DedupKey() string                   { return "unknown:" + r.Raw }

func (r EnvVarChanged) Summary() string {
	var change string
	switch {
	case r.OldValue != nil && r.NewValue != nil:
		change = "'" + *r.OldValue + "' -> '" + *r.NewValue + "'"
	case r.OldValue != nil:
		change = "'" + *r.OldValue + "' -> unset"
	case r.NewValue != nil:
		change = "unset -> '" + *r.NewValue + "'"
	default:
		change = "changed"
	}
	return "env:" + r.Name + " (" + change + ")"
}

func (r UnitDependencyInfoChanged) Summary() string { return "dep:" + r.Name }

func (r RustflagsChanged) Summary() string {
	return "rustflags: " + joinOrNone(r.Old) + " -> " + joinOrNone(r.New)
}

func (r FeaturesChanged) Summary() string {
	return "features: " + r.Old + " -> " + r.New
}

func (ProfileConfigurationChanged) Summary() string { return "profile changed" }
func (TargetConfigurationChanged) Summary() string  { return "target config changed" }

func (r FileChanged) Summary() string {
	// Shorten long absolute paths to the last two components.
	parts := strings.Split(r.Path, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	return "file:" + strings.Join(parts, "/")
}

func (r Unknown) Summary() string { return "unknown: " + strings.TrimSpace(r.Raw) }

func joinOrNone(flags []string) string {
	if len(flags) == 0 {
		return "(none)"
	}
	return strings.Join(flags, " ")
}
