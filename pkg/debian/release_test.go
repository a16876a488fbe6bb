package debian_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thepwagner/madison/pkg/debian"
)

const releaseFile = `Origin: Debian
Suite: stable
Codename: bookworm
Architectures: amd64 arm64
Components: main contrib
Acquire-By-Hash: yes
SHA256:
 0a1b2c 1234 main/binary-amd64/Packages
 3d4e5f 567 main/binary-amd64/Packages.xz
 6a7b8c 89 main/source/Sources.gz
`

func clearsignRelease(tb testing.TB, ent *openpgp.Entity, body string) []byte {
	tb.Helper()
	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, ent.PrivateKey, nil)
	require.NoError(tb, err)
	_, err = w.Write([]byte(body))
	require.NoError(tb, err)
	require.NoError(tb, w.Close())
	return buf.Bytes()
}

func TestParseRelease(t *testing.T) {
	t.Parallel()

	rel, err := debian.ParseRelease(strings.NewReader(releaseFile))
	require.NoError(t, err)

	assert.Equal(t, "bookworm", rel.Codename)
	assert.Equal(t, "stable", rel.Suite)
	assert.Equal(t, []string{"main", "contrib"}, rel.ComponentList())
	assert.Equal(t, []string{"amd64", "arm64"}, rel.ArchitectureList())
	assert.True(t, rel.ByHash())

	indexes := rel.Indexes()
	assert.Len(t, indexes, 3)
	assert.Equal(t, debian.IndexFile{Path: "main/binary-amd64/Packages.xz", Size: 567, SHA256: "3d4e5f"}, indexes["main/binary-amd64/Packages.xz"])
}

func TestRelease_ByHashDisabled(t *testing.T) {
	t.Parallel()
	rel, err := debian.ParseRelease(strings.NewReader("Codename: jammy\nComponents: main\n"))
	require.NoError(t, err)
	assert.False(t, rel.ByHash())
	assert.Empty(t, rel.Indexes())
}

func TestVerifyInRelease(t *testing.T) {
	t.Parallel()

	signer := testEntity(t)
	signed := clearsignRelease(t, signer, releaseFile)

	t.Run("trusted signer", func(t *testing.T) {
		t.Parallel()
		plain, err := debian.VerifyInRelease(signed, openpgp.EntityList{signer})
		require.NoError(t, err)
		rel, err := debian.ParseRelease(bytes.NewReader(plain))
		require.NoError(t, err)
		assert.Equal(t, "bookworm", rel.Codename)
	})

	t.Run("untrusted signer", func(t *testing.T) {
		t.Parallel()
		_, err := debian.VerifyInRelease(signed, openpgp.EntityList{testEntity(t)})
		assert.ErrorIs(t, err, debian.ErrBadSignature)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		tampered := bytes.Replace(signed, []byte("bookworm"), []byte("trixie"), 1)
		_, err := debian.VerifyInRelease(tampered, openpgp.EntityList{signer})
		assert.ErrorIs(t, err, debian.ErrBadSignature)
	})

	t.Run("not clearsigned", func(t *testing.T) {
		t.Parallel()
		_, err := debian.VerifyInRelease([]byte(releaseFile), openpgp.EntityList{signer})
		assert.ErrorIs(t, err, debian.ErrBadSignature)
	})

	t.Run("insecure", func(t *testing.T) {
		t.Parallel()
		plain, err := debian.VerifyInRelease(signed, nil)
		require.NoError(t, err)
		assert.Contains(t, string(plain), "Codename: bookworm")
	})
}
