package model

import "strings"

// Explain implementations produce the long-form console output: what
// changed, why it usually happens, and what to do about it. The heuristics
// key off well-known variable names, crate naming conventions, and file
// types.

func (r EnvVarChanged) Explain() string {
	var change string
	switch {
	case r.OldValue != nil && r.NewValue != nil:
		change = "changed from '" + *r.OldValue + "' to '" + *r.NewValue + "'"
	case r.OldValue != nil:
		change = "was unset (was '" + *r.OldValue + "')"
	case r.NewValue != nil:
		change = "was set to '" + *r.NewValue + "'"
	default:
		change = "changed (both old and new values unknown)"
	}

	var suggestion string
	switch {
	case r.Name == "CC" || r.Name == "CXX":
		suggestion = "This usually happens when switching between development environments (e.g. nix-shell, different toolchains). Ensure a consistent compiler environment."
	case r.Name == "CARGO_TARGET_DIR":
		suggestion = "Target directory location changed. Use a consistent CARGO_TARGET_DIR or avoid setting it."
	case r.Name == "RUSTFLAGS" || r.Name == "RUSTC_FLAGS":
		suggestion = "Rust compiler flags changed. Ensure consistent build flags across builds."
	case r.Name == "PATH":
		suggestion = "PATH changed, affecting which tools cargo finds. Ensure a consistent PATH."
	case strings.HasPrefix(r.Name, "CARGO_"):
		suggestion = "Cargo-specific environment variable changed. Check your cargo configuration."
	default:
		suggestion = "This variable affects the build process. Ensure a consistent environment between builds."
	}

	return "Environment variable '" + r.Name + "' " + change + "\n  Suggestion: " + suggestion
}

func (r UnitDependencyInfoChanged) Explain() string {
	var why string
	switch {
	case strings.Contains(r.Name, "build_script"):
		why = "Build script output changed. Common causes: build script dependencies were updated, environment variables affecting the script changed, or system dependencies (like C libraries) were updated."
	case strings.HasSuffix(r.Name, "-sys") || strings.HasSuffix(r.Name, "_sys"):
		why = "System library binding changed. The underlying C library may have been updated, or pkg-config/cmake detection found a different version."
	default:
		why = "The dependency was rebuilt, so this crate rebuilt too. Its source, its own dependencies, or its build flags/features changed."
	}

	out := "Dependency '" + r.Name + "' was rebuilt\n  Why: " + why
	if ctx := r.Context; ctx != nil {
		if ctx.RootCause != "" {
			out += "\n  Root cause: " + ctx.RootCause
		}
		if ctx.PackageID != "" {
			out += "\n  Package: " + ctx.PackageID
		}
		if ctx.TargetType != "" {
			out += "\n  Target: " + ctx.TargetType
		}
	}
	return out
}

func (r RustflagsChanged) Explain() string {
	return "RUSTFLAGS changed: " + joinOrNone(r.Old) + " -> " + joinOrNone(r.New) +
		"\n  Suggestion: use consistent RUSTFLAGS across builds, or move per-profile flags into cargo profiles."
}

func (r FeaturesChanged) Explain() string {
	return "Feature set changed: '" + r.Old + "' -> '" + r.New + "'" +
		"\n  Suggestion: use consistent feature flags (watch out for --all-features vs default features, and workspace vs single-package builds)."
}

func (ProfileConfigurationChanged) Explain() string {
	return "Build profile configuration changed (optimization level, debug info, LTO, codegen-units, ...)" +
		"\n  Suggestion: keep [profile.*] settings in Cargo.toml stable, or expect rebuilds when changing them."
}

func (TargetConfigurationChanged) Explain() string {
	return "Build target configuration changed (debug/release switch, target architecture or features)" +
		"\n  Suggestion: use consistent build profiles, or expect rebuilds when switching."
}

func (r FileChanged) Explain() string {
	var note string
	switch {
	case strings.Contains(r.Path, "Cargo.toml") || strings.Contains(r.Path, "Cargo.lock"):
		note = "Project configuration changed; affected crates rebuild."
	case strings.HasSuffix(r.Path, "build.rs"):
		note = "Build script changed; this often triggers rebuilds of multiple crates."
	case strings.HasSuffix(r.Path, ".rs"):
		note = "Source file was modified; this rebuild is expected."
	default:
		note = "A file that feeds into the build was modified."
	}
	return "File changed: " + r.Path + "\n  " + note
}

func (r Unknown) Explain() string {
	return "Unrecognized rebuild trigger: " + strings.TrimSpace(r.Raw) +
		"\n  This may be a cargo log shape this tool does not know yet."
}
