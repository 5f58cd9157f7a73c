package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/quire/internal/graph"
)

func TestInMemory_GetPackageInfo(t *testing.T) {
	m := NewInMemory()
	m.Register(PackageInfo{Name: "lib", Version: "1.0.0"})

	info, err := m.GetPackageInfo(context.Background(), "lib")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", info.Version)

	_, err = m.GetPackageInfo(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemory_HonorsContext(t *testing.T) {
	m := NewInMemory()
	m.Register(PackageInfo{Name: "lib", Version: "1.0.0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GetPackageInfo(ctx, "lib")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemory_Alternative(t *testing.T) {
	m := NewInMemory()
	m.RegisterAlternative("narrow-lib", "wide-lib")

	alt, ok := m.Alternative("narrow-lib")
	require.True(t, ok)
	assert.Equal(t, "wide-lib", alt)

	_, ok = m.Alternative("other")
	assert.False(t, ok)
}

func TestHTTPRegistry_GetPackageInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/packages/lib":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"name": "lib",
				"version": "2.0.0",
				"dependencies": [{"name": "base", "constraint": ">=1.0.0"}],
				"license": {"kind": "permissive", "distributionAllowed": true},
				"platforms": ["linux", "darwin"]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	reg := NewHTTPRegistry(srv.URL)

	info, err := reg.GetPackageInfo(context.Background(), "lib")
	require.NoError(t, err)
	assert.Equal(t, "lib", info.Name)
	assert.Equal(t, "2.0.0", info.Version)
	require.Len(t, info.Dependencies, 1)
	assert.Equal(t, "base", info.Dependencies[0].Name)
	assert.Equal(t, graph.LicensePermissive, info.License.Kind)

	_, err = reg.GetPackageInfo(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPRegistry_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPRegistry(srv.URL).GetPackageInfo(context.Background(), "lib")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	doc := `
packages:
  - name: app
    version: 1.0.0
    dependencies:
      - name: lib
        constraint: ">=1.0.0"
    license:
      kind: permissive
      distributionAllowed: true
  - name: lib
    version: 1.2.0
    platforms: [linux]
alternatives:
  lib: wide-lib
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	mem, err := LoadManifest(path)
	require.NoError(t, err)

	info, err := mem.GetPackageInfo(context.Background(), "app")
	require.NoError(t, err)
	require.Len(t, info.Dependencies, 1)
	assert.Equal(t, ">=1.0.0", info.Dependencies[0].Constraint)

	alt, ok := mem.Alternative("lib")
	require.True(t, ok)
	assert.Equal(t, "wide-lib", alt)
}

func TestLoadManifest_RejectsEmptyName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("packages:\n  - version: 1.0.0\n"), 0o644))

	_, err := LoadManifest(path)
	assert.Error(t, err)
}

func TestPackageInfo_Node(t *testing.T) {
	n := PackageInfo{Name: "lib", Version: "1.0.0"}.Node()
	assert.Equal(t, graph.SecurityUnknown, n.Security)

	n = PackageInfo{Name: "lib", Version: "1.0.0", Security: graph.SecuritySafe}.Node()
	assert.Equal(t, graph.SecuritySafe, n.Security)
}
