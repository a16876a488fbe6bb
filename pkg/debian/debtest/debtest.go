// Package debtest builds minimal .deb archives for tests.
package debtest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/stretchr/testify/require"
)

// Control returns a control stanza for a binary package. An empty source is omitted.
func Control(name, version, arch, source string) string {
	control := fmt.Sprintf("Package: %s\nVersion: %s\nArchitecture: %s\n", name, version, arch)
	if source != "" {
		control += "Source: " + source + "\n"
	}
	return control
}

// Deb returns a .deb whose control.tar.gz holds control.
func Deb(tb testing.TB, control string) []byte {
	tb.Helper()

	var tarBuf bytes.Buffer
	gz := gzip.NewWriter(&tarBuf)
	tw := tar.NewWriter(gz)
	require.NoError(tb, tw.WriteHeader(&tar.Header{Name: "./control", Mode: 0o644, Size: int64(len(control))}))
	_, err := tw.Write([]byte(control))
	require.NoError(tb, err)
	require.NoError(tb, tw.Close())
	require.NoError(tb, gz.Close())

	var deb bytes.Buffer
	w := ar.NewWriter(&deb)
	require.NoError(tb, w.WriteGlobalHeader())
	members := []struct {
		name string
		body []byte
	}{
		{name: "debian-binary", body: []byte("2.0\n")},
		{name: "control.tar.gz", body: tarBuf.Bytes()},
	}
	for _, m := range members {
		// ar pads each Write, so every member goes out in one call
		require.NoError(tb, w.WriteHeader(&ar.Header{Name: m.name, Size: int64(len(m.body)), Mode: 0o644, ModTime: time.Unix(0, 0)}))
		_, err := w.Write(m.body)
		require.NoError(tb, err)
	}
	return deb.Bytes()
}

// WriteDeb writes name_version_arch.deb into dir.
func WriteDeb(tb testing.TB, dir, name, version, arch, source string) string {
	tb.Helper()
	fn := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.deb", name, version, arch))
	require.NoError(tb, os.WriteFile(fn, Deb(tb, Control(name, version, arch, source)), 0o600))
	return fn
}
