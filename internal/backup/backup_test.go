package backup

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pocketledger/internal/core"
	"pocketledger/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	containers map[string]bool
	data       map[string][]byte
	putErr     error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{containers: map[string]bool{}, data: map[string][]byte{}}
}

func (f *fakeBlobs) EnsureContainer(_ context.Context, container string) error {
	f.containers[container] = true
	return nil
}

func (f *fakeBlobs) Put(_ context.Context, container, name string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.data[container+"/"+name] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobs) Get(_ context.Context, container, name string) ([]byte, error) {
	b, ok := f.data[container+"/"+name]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func snapshot() core.Snapshot {
	return core.Snapshot{
		Transactions: []core.Transaction{{
			ID: "a", Title: "Rent", Amount: core.Cents(120000), Type: core.Expense,
			Category: "bills", CreatedAt: time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		}},
		MonthlyBudget: core.Cents(200000),
	}.Recomputed()
}

func TestUploadThenDownload(t *testing.T) {
	ctx := context.Background()
	blobs := newFakeBlobs()
	b := newAzureBlob(blobs, "ledger-backups", log.Discard())
	b.now = func() time.Time { return time.Date(2026, 10, 19, 7, 5, 9, 0, time.UTC) }

	name, err := b.Upload(ctx, snapshot())
	require.NoError(t, err)
	assert.Equal(t, "ledger-20261019T070509Z.json", name)
	assert.True(t, blobs.containers["ledger-backups"])
	assert.Contains(t, blobs.data, "ledger-backups/"+LatestName)

	latest, err := b.Download(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot().Totals(), latest.Totals())
	require.Len(t, latest.Transactions, 1)
	assert.Equal(t, "Rent", latest.Transactions[0].Title)

	named, err := b.Download(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, latest.Totals(), named.Totals())
}

func TestDownloadMissing(t *testing.T) {
	b := newAzureBlob(newFakeBlobs(), "c", log.Discard())
	_, err := b.Download(context.Background(), "nope.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadError(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.putErr = errors.New("throttled")
	b := newAzureBlob(blobs, "c", log.Discard())
	_, err := b.Upload(context.Background(), snapshot())
	assert.ErrorContains(t, err, "throttled")
}

func TestIsLocal(t *testing.T) {
	assert.True(t, isLocal("http://127.0.0.1:10000/devstoreaccount1"))
	assert.False(t, isLocal("https://acct.blob.core.windows.net"))
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New("", "c", nil)
	assert.Error(t, err)
}

// Runs against Azurite when AZURITE_BLOB_URL is set, e.g.
// http://127.0.0.1:10000/devstoreaccount1
func TestAzuriteRoundTrip(t *testing.T) {
	url := os.Getenv("AZURITE_BLOB_URL")
	if url == "" {
		t.Skip("AZURITE_BLOB_URL not set")
	}
	b, err := New(url, "pocketledger-test", log.Discard())
	require.NoError(t, err)

	ctx := context.Background()
	_, err = b.Upload(ctx, snapshot())
	require.NoError(t, err)
	got, err := b.Download(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, snapshot().Totals(), got.Totals())
}
