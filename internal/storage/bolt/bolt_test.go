package bolt

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"pocketledger/internal/storage"
	"pocketledger/internal/storage/storagetest"
)

func TestStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storagetest.Opener {
		path := filepath.Join(t.TempDir(), "ledger.bolt")
		return func(t *testing.T) storage.SnapshotStore {
			s, err := Open(path)
			require.NoError(t, err)
			return s
		}
	})
}
