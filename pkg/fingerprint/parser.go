// Package fingerprint parses cargo's fingerprint trace output.
//
// Cargo logs its dirtiness verdicts as debug-printed Rust values, e.g.
//
//	dirty: EnvVarChanged { name: "CC", old_value: Some("gcc"), new_value: None }
//
// The format has no stability guarantee, so parsing is a fixed dispatch
// table of known shapes tried in priority order: a shape either consumes
// its full expected structure or the next shape is tried. Nothing in this
// package returns an error or panics; unrecognized input yields absence.
package fingerprint

import (
	"strings"

	"github.com/wvhulle/cargo-dirty/pkg/model"
)

// dirtyMarker flags a line carrying a structured dirtiness verdict.
const dirtyMarker = "dirty:"

// Entry is one fully parsed rebuild observation: the compilation unit the
// surrounding log span named, plus the structured reason.
type Entry struct {
	Package model.PackageTarget
	Reason  model.Reason
}

// ParseEntry parses a complete rebuild observation from one log line.
// Returns false if the line carries no parseable dirty reason. Package
// context extraction never fails; lines without package_id yield the
// "unknown" sentinel.
func ParseEntry(line string) (Entry, bool) {
	reason, ok := ParseReason(line)
	if !ok {
		return Entry{}, false
	}
	return Entry{Package: ExtractPackageContext(line), Reason: reason}, true
}

// ParseReason extracts the structured rebuild reason from a log line.
// Only "dirty:" payloads are parsed. Cargo also emits "stale:" lines, but
// those name the wrong compilation unit and duplicate the cause already
// carried by the FsStatusOutdated shape, so they are ignored entirely.
func ParseReason(line string) (model.Reason, bool) {
	i := strings.Index(line, dirtyMarker)
	if i < 0 {
		return nil, false
	}
	payload := strings.TrimLeft(line[i+len(dirtyMarker):], " \t")

	for _, parse := range reasonShapes {
		if r, ok := parse(payload); ok {
			return r, true
		}
	}
	return nil, false
}

// DirtyPayload returns the raw text after the dirty marker, for callers
// that want to retain unparsed verdicts.
func DirtyPayload(line string) (string, bool) {
	i := strings.Index(line, dirtyMarker)
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(line[i+len(dirtyMarker):]), true
}

// reasonShapes is the dispatch table, tried in order. Adding support for a
// new cargo log shape means appending one entry.
var reasonShapes = []func(string) (model.Reason, bool){
	parseEnvVarChanged,
	parseUnitDependencyInfoChanged,
	parseRustflagsChanged,
	parseFeaturesChanged,
	parseTargetConfigurationChanged,
	parseProfileConfigurationChanged,
	parseStaleDepFingerprint,
	parseChangedFileItem,
}

func parseEnvVarChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("EnvVarChanged") || !sc.openBrace() {
		return nil, false
	}
	name, ok := sc.stringField("name")
	if !ok || !sc.comma() {
		return nil, false
	}
	oldValue, ok := sc.optionField("old_value")
	if !ok || !sc.comma() {
		return nil, false
	}
	newValue, ok := sc.optionField("new_value")
	if !ok || !sc.closeBrace() {
		return nil, false
	}
	return model.EnvVarChanged{Name: name, OldValue: oldValue, NewValue: newValue}, true
}

func parseUnitDependencyInfoChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("UnitDependencyInfoChanged") || !sc.openBrace() {
		return nil, false
	}
	oldName, ok := sc.stringField("old_name")
	if !ok || !sc.comma() {
		return nil, false
	}
	oldFingerprint, ok := sc.numberField("old_fingerprint")
	if !ok || !sc.comma() {
		return nil, false
	}
	// new_name always repeats old_name in practice; parse and discard.
	if _, ok := sc.stringField("new_name"); !ok || !sc.comma() {
		return nil, false
	}
	newFingerprint, ok := sc.numberField("new_fingerprint")
	if !ok || !sc.closeBrace() {
		return nil, false
	}
	return model.UnitDependencyInfoChanged{
		Name:           oldName,
		OldFingerprint: oldFingerprint,
		NewFingerprint: newFingerprint,
	}, true
}

func parseRustflagsChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("RustflagsChanged") || !sc.openBrace() {
		return nil, false
	}
	old, ok := sc.stringListField("old")
	if !ok || !sc.comma() {
		return nil, false
	}
	updated, ok := sc.stringListField("new")
	if !ok || !sc.closeBrace() {
		return nil, false
	}
	return model.RustflagsChanged{Old: old, New: updated}, true
}

func parseFeaturesChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("FeaturesChanged") || !sc.openBrace() {
		return nil, false
	}
	old, ok := sc.stringField("old")
	if !ok || !sc.comma() {
		return nil, false
	}
	updated, ok := sc.stringField("new")
	if !ok || !sc.closeBrace() {
		return nil, false
	}
	return model.FeaturesChanged{Old: old, New: updated}, true
}

func parseTargetConfigurationChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("TargetConfigurationChanged") {
		return nil, false
	}
	return model.TargetConfigurationChanged{}, true
}

func parseProfileConfigurationChanged(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("ProfileConfigurationChanged") {
		return nil, false
	}
	return model.ProfileConfigurationChanged{}, true
}

// parseStaleDepFingerprint handles
// FsStatusOutdated(StaleDepFingerprint { name: "..." }), cargo's other way
// of reporting a dependency cascade. No fingerprint values are present.
func parseStaleDepFingerprint(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("FsStatusOutdated") || !sc.literal("(") || !sc.literal("StaleDepFingerprint") || !sc.openBrace() {
		return nil, false
	}
	name, ok := sc.stringField("name")
	if !ok || !sc.closeBrace() || !sc.literal(")") {
		return nil, false
	}
	return model.UnitDependencyInfoChanged{Name: name}, true
}

// parseChangedFileItem handles
// FsStatusOutdated(StaleItem(ChangedFile { ... })). Only the stale path is
// kept; the reference path and both FileTime structs are validated and
// discarded.
func parseChangedFileItem(s string) (model.Reason, bool) {
	sc := newScanner(s)
	if !sc.literal("FsStatusOutdated") || !sc.literal("(") || !sc.literal("StaleItem") || !sc.literal("(") {
		return nil, false
	}
	if !sc.literal("ChangedFile") || !sc.openBrace() {
		return nil, false
	}
	if _, ok := sc.stringField("reference"); !ok || !sc.comma() {
		return nil, false
	}
	if !sc.fileTimeField("reference_mtime") || !sc.comma() {
		return nil, false
	}
	stale, ok := sc.stringField("stale")
	if !ok || !sc.comma() {
		return nil, false
	}
	if !sc.fileTimeField("stale_mtime") || !sc.closeBrace() {
		return nil, false
	}
	if !sc.literal(")") || !sc.literal(")") {
		return nil, false
	}
	return model.FileChanged{Path: stale}, true
}
