package madison

import (
	"slices"
	"strings"
)

// OutputRecord is one row of the madison table.
type OutputRecord struct {
	Package       string
	Version       string
	Key           string
	Architectures string
}

// PackageRows are the rows reported for one requested package.
type PackageRows struct {
	Package string
	Rows    []OutputRecord
}

// QueryGroups reports each requested package in request order, duplicates included.
// Packages missing from m yield a group without rows. A non-empty filter keeps only
// entries whose key matches it.
func QueryGroups(m Mapping, packages []string, filter string, opts ...Option) []PackageRows {
	o := newOptions(opts)
	ret := make([]PackageRows, 0, len(packages))
	for _, pkg := range packages {
		ret = append(ret, PackageRows{Package: pkg, Rows: queryPackage(m, pkg, filter, o.compare)})
	}
	return ret
}

// Query is QueryGroups flattened into a single list of rows.
func Query(m Mapping, packages []string, filter string, opts ...Option) []OutputRecord {
	var ret []OutputRecord
	for _, g := range QueryGroups(m, packages, filter, opts...) {
		ret = append(ret, g.Rows...)
	}
	return ret
}

func queryPackage(m Mapping, pkg, filter string, compare CompareFunc) []OutputRecord {
	entries, ok := m[pkg]
	if !ok {
		return nil
	}

	keys := make([]Entry, 0, len(entries))
	for e := range entries {
		if filter != "" && e.Key != filter {
			continue
		}
		keys = append(keys, e)
	}
	slices.SortFunc(keys, func(a, b Entry) int {
		if c := compare(a.Version, b.Version); c != 0 {
			return c
		}
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		// distinct strings may compare equal as versions, e.g. "1.0" and "1.00"
		return strings.Compare(a.Version, b.Version)
	})

	rows := make([]OutputRecord, 0, len(keys))
	for _, e := range keys {
		rows = append(rows, OutputRecord{
			Package:       pkg,
			Version:       e.Version,
			Key:           e.Key,
			Architectures: entries[e].String(),
		})
	}
	return rows
}

// SplitPackages splits a space separated package list, dropping empty names.
func SplitPackages(s string) []string {
	return strings.Fields(s)
}
