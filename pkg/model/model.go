package model

import "strings"

// UnknownPackageID is the sentinel used when a log line carries no
// package_id context.
const UnknownPackageID = "unknown"

// PackageTarget identifies a compilation unit: a package plus an optional
// target kind (lib, bin, build-script-build, ...). An empty Target means
// cargo did not report one.
type PackageTarget struct {
	PackageID string `json:"package_id"`
	Target    string `json:"target,omitempty"`
}

// NewPackageTarget creates a PackageTarget.
func NewPackageTarget(packageID, target string) PackageTarget {
	return PackageTarget{PackageID: packageID, Target: target}
}

// UnknownPackage returns the sentinel unit used when no context was found.
func UnknownPackage() PackageTarget {
	return PackageTarget{PackageID: UnknownPackageID}
}

// String renders "name [target]" with the version suffix dropped.
func (p PackageTarget) String() string {
	name := PackageName(p.PackageID)
	if p.Target != "" {
		return name + " [" + p.Target + "]"
	}
	return name
}

// RebuildNode is one observed rebuild: a compilation unit and the reason
// cargo gave for judging it stale. Nodes are immutable once created.
type RebuildNode struct {
	Package PackageTarget
	Reason  Reason
}

// NewRebuildNode creates a RebuildNode.
func NewRebuildNode(pkg PackageTarget, reason Reason) RebuildNode {
	return RebuildNode{Package: pkg, Reason: reason}
}

// IsRootCause reports whether this node is a root cause rather than a
// cascade. Only dependency-info changes cascade; everything else (env vars,
// files, configuration, even unrecognized reasons) originates a chain.
func (n RebuildNode) IsRootCause() bool {
	_, cascade := n.Reason.(UnitDependencyInfoChanged)
	return !cascade
}

// RootCauseChain pairs a root cause with every node it transitively caused
// to rebuild. It is a derived view computed from a RebuildGraph, never
// stored back into it.
type RootCauseChain struct {
	RootCause        RebuildNode
	AffectedPackages []RebuildNode
}

// TotalRebuilds counts the root plus all affected packages.
func (c RootCauseChain) TotalRebuilds() int {
	return 1 + len(c.AffectedPackages)
}

// PackageName extracts the bare name from a package_id like
// "libz-sys v1.1.23".
func PackageName(packageID string) string {
	if i := strings.IndexFunc(packageID, func(r rune) bool { return r == ' ' || r == '\t' }); i >= 0 {
		return packageID[:i]
	}
	return packageID
}

// NormalizeCrateName canonicalizes a crate name for comparison. Cargo
// treats hyphens and underscores as equivalent, and dependency names in
// fingerprint logs use the underscore form while package ids use the
// manifest form.
func NormalizeCrateName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}
