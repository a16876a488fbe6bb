package debian

import (
	"cmp"
	"strings"

	debversion "github.com/knqyf263/go-deb-version"
)

// CompareVersions orders two Debian version strings, returning -1, 0 or 1.
// Versions that do not parse sort before every valid version and byte-wise among
// themselves, so the order stays total.
func CompareVersions(a, b string) int {
	va, errA := debversion.NewVersion(a)
	vb, errB := debversion.NewVersion(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return cmp.Compare(va.Compare(vb), 0)
}
