package source_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/madison/pkg/repo"
)

// fakeArchive serves signed dists/ trees over HTTP.
type fakeArchive struct {
	tb     testing.TB
	signer *openpgp.Entity
	srv    *httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests map[string]int
}

func newFakeArchive(tb testing.TB) *fakeArchive {
	tb.Helper()
	signer, err := openpgp.NewEntity("archive", "test", "archive@example.com", nil)
	require.NoError(tb, err)

	a := &fakeArchive{
		tb:       tb,
		signer:   signer,
		files:    map[string][]byte{},
		requests: map[string]int{},
	}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.requests[r.URL.Path]++
		b, ok := a.files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)
	}))
	tb.Cleanup(a.srv.Close)
	return a
}

func (a *fakeArchive) URL() string { return a.srv.URL }

func (a *fakeArchive) keyring() openpgp.EntityList { return openpgp.EntityList{a.signer} }

// publish replaces a suite. indexes maps paths like "main/binary-amd64/Packages" to their content.
func (a *fakeArchive) publish(suite, codename string, byHash bool, compression repo.Compression, indexes map[string]string) {
	a.tb.Helper()

	paths := make([]string, 0, len(indexes))
	for p := range indexes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var release strings.Builder
	fmt.Fprintf(&release, "Origin: Test\nSuite: %s\nCodename: %s\nArchitectures: amd64 arm64\nComponents: main\n", suite, codename)
	if byHash {
		release.WriteString("Acquire-By-Hash: yes\n")
	}
	release.WriteString("SHA256:\n")

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range paths {
		data, err := compression.Compress([]byte(indexes[p]))
		require.NoError(a.tb, err)
		sum := sha256.Sum256(data)
		digest := hex.EncodeToString(sum[:])
		name := p + compression.Extension()
		fmt.Fprintf(&release, " %s %d %s\n", digest, len(data), name)

		a.files["/dists/"+suite+"/"+name] = data
		if byHash {
			a.files["/dists/"+suite+"/"+path.Dir(p)+"/by-hash/SHA256/"+digest] = data
		}
	}

	var signed bytes.Buffer
	w, err := clearsign.Encode(&signed, a.signer.PrivateKey, nil)
	require.NoError(a.tb, err)
	_, err = w.Write([]byte(release.String()))
	require.NoError(a.tb, err)
	require.NoError(a.tb, w.Close())
	a.files["/dists/"+suite+"/InRelease"] = signed.Bytes()
}

// corrupt flips a byte in every served index under suite, leaving InRelease and sizes intact.
func (a *fakeArchive) corrupt(suite string) {
	a.rewrite(suite, func(b []byte) []byte {
		b = bytes.Clone(b)
		b[len(b)-1] ^= 0xff
		return b
	})
}

// pad appends junk to every served index under suite, leaving InRelease intact.
func (a *fakeArchive) pad(suite string) {
	a.rewrite(suite, func(b []byte) []byte {
		return append(bytes.Clone(b), "junk"...)
	})
}

func (a *fakeArchive) rewrite(suite string, fn func([]byte) []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for p, b := range a.files {
		if strings.HasPrefix(p, "/dists/"+suite+"/") && !strings.HasSuffix(p, "/InRelease") {
			a.files[p] = fn(b)
		}
	}
}

func (a *fakeArchive) requested() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	ret := make(map[string]int, len(a.requests))
	for p, n := range a.requests {
		ret[p] = n
	}
	return ret
}

func (a *fakeArchive) requestCount(p string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[p]
}
