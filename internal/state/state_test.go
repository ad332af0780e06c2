package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSnapshotHasLineage(t *testing.T) {
	s := NewSnapshot()

	require.Equal(t, CurrentVersion, s.Version)
	require.NotEmpty(t, s.Lineage)
	require.NotEqual(t, s.Lineage, NewSnapshot().Lineage)
}

func TestSnapshotPutReplacesByID(t *testing.T) {
	s := NewSnapshot()

	s.Put(&ResourceState{ID: "resource.network.main", ProviderID: "vpc-1"})
	s.Put(&ResourceState{ID: "resource.network.main", ProviderID: "vpc-2"})

	require.Len(t, s.Resources, 1)
	require.Equal(t, "vpc-2", s.Find("resource.network.main").ProviderID)
}

func TestSnapshotRemove(t *testing.T) {
	s := NewSnapshot()

	s.Put(&ResourceState{ID: "resource.network.main"})
	s.Remove("resource.network.main")

	require.Nil(t, s.Find("resource.network.main"))
	require.Empty(t, s.Resources)
}

func TestFileStoreLoadReturnsEmptySnapshotWhenMissing(t *testing.T) {
	f := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	s, err := f.Load()
	require.NoError(t, err)
	require.Empty(t, s.Resources)
	require.Equal(t, 0, s.Serial)
}

func TestFileStoreSaveIncrementsSerial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackform.state.json")
	f := NewFileStore(path)

	s, err := f.Load()
	require.NoError(t, err)

	s.Put(&ResourceState{ID: "resource.network.main", Type: "network", Name: "main"})

	require.NoError(t, f.Save(s))
	require.Equal(t, 1, s.Serial)

	loaded, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Serial)
	require.NotNil(t, loaded.Find("resource.network.main"))
}

func TestFileStoreSavePreservesLineage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackform.state.json")
	f := NewFileStore(path)

	s, _ := f.Load()
	require.NoError(t, f.Save(s))

	loaded, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, s.Lineage, loaded.Lineage)
}

func TestFileStoreLoadFailsOnCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackform.state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
}

func TestFileStoreLoadFailsOnNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stackform.state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0644))

	_, err := NewFileStore(path).Load()
	require.Error(t, err)
}
