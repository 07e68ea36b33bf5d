package fingerprint

import (
	"strings"

	"github.com/wvhulle/cargo-dirty/pkg/model"
)

// ExtractPackageContext pulls the compilation unit out of the tracing span
// that wraps a fingerprint message, e.g.
//
//	prepare_target{force=false package_id=libz-sys v1.1.23 target="build-script-build"}: ...
//
// The markers are ad hoc key=value pairs, not a structured format: the
// package id runs until the target marker or the span's closing brace, and
// the target is either quoted or runs to the next delimiter. Extraction is
// independent of reason parsing and never fails; a line without package_id
// yields the "unknown" sentinel.
func ExtractPackageContext(line string) model.PackageTarget {
	packageID := model.UnknownPackageID
	if i := strings.Index(line, "package_id="); i >= 0 {
		after := line[i+len("package_id="):]
		end := len(after)
		if j := strings.Index(after, " target="); j >= 0 {
			end = j
		} else if j := strings.IndexByte(after, '}'); j >= 0 {
			end = j
		}
		if v := strings.TrimSpace(after[:end]); v != "" {
			packageID = v
		}
	}

	var target string
	if i := strings.Index(line, "target="); i >= 0 {
		after := line[i+len("target="):]
		if strings.HasPrefix(after, `"`) {
			if j := strings.IndexByte(after[1:], '"'); j >= 0 {
				target = after[1 : 1+j]
			}
		} else {
			end := len(after)
			if j := strings.IndexAny(after, " }:"); j >= 0 {
				end = j
			}
			target = strings.TrimSpace(after[:end])
		}
	}

	return model.NewPackageTarget(packageID, target)
}
