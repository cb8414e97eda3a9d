// Package backup copies ledger snapshots to Azure Blob Storage.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pocketledger/internal/core"
	"pocketledger/internal/log"
	"pocketledger/internal/storage"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

// LatestName is overwritten by every upload so restores need no listing.
const LatestName = "latest.json"

var ErrNotFound = errors.New("backup not found")

// blobs is the part of the blob API backups use.
type blobs interface {
	EnsureContainer(ctx context.Context, container string) error
	Put(ctx context.Context, container, name string, data []byte) error
	Get(ctx context.Context, container, name string) ([]byte, error)
}

// AzureBlob uploads and downloads snapshot JSON documents in one container.
type AzureBlob struct {
	blobs     blobs
	container string
	logger    *log.Logger
	now       func() time.Time
}

// New connects to serviceURL. http:// endpoints are treated as Azurite and
// use its shared key; anything else uses DefaultAzureCredential.
func New(serviceURL, container string, logger *log.Logger) (*AzureBlob, error) {
	if serviceURL == "" {
		return nil, errors.New("missing blob service url")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBackup)

	var client *azblob.Client
	if isLocal(serviceURL) {
		logger.Info("Using Azurite shared key credentials", "blob_url", serviceURL)
		cred, err := azblob.NewSharedKeyCredential(azuriteAccountName, azuriteAccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(serviceURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}
	return newAzureBlob(&azureBlobs{client: client}, container, logger), nil
}

func newAzureBlob(b blobs, container string, logger *log.Logger) *AzureBlob {
	return &AzureBlob{blobs: b, container: container, logger: logger, now: time.Now}
}

// Upload stores snap under a timestamped name and as LatestName. It returns
// the timestamped name.
func (a *AzureBlob) Upload(ctx context.Context, snap core.Snapshot) (string, error) {
	data, err := storage.EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	if err := a.blobs.EnsureContainer(ctx, a.container); err != nil {
		return "", fmt.Errorf("ensure container %s: %w", a.container, err)
	}

	name := "ledger-" + a.now().UTC().Format("20060102T150405Z") + ".json"
	for _, n := range []string{name, LatestName} {
		if err := a.blobs.Put(ctx, a.container, n, data); err != nil {
			return "", fmt.Errorf("upload %s/%s: %w", a.container, n, err)
		}
	}
	a.logger.InfoContext(ctx, "Uploaded snapshot backup",
		log.FieldOperation, log.OpBackup,
		"blob_name", name,
		"size_bytes", len(data),
		"transactions", len(snap.Transactions))
	return name, nil
}

// Download fetches the backup called name, or LatestName when name is empty.
func (a *AzureBlob) Download(ctx context.Context, name string) (core.Snapshot, error) {
	if name == "" {
		name = LatestName
	}
	data, err := a.blobs.Get(ctx, a.container, name)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("download %s/%s: %w", a.container, name, err)
	}
	snap, err := storage.DecodeSnapshot(data)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("decode %s: %w", name, err)
	}
	a.logger.InfoContext(ctx, "Downloaded snapshot backup", "blob_name", name, "size_bytes", len(data))
	return snap, nil
}

type azureBlobs struct {
	client *azblob.Client
}

func (b *azureBlobs) EnsureContainer(ctx context.Context, container string) error {
	_, err := b.client.CreateContainer(ctx, container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}
	return nil
}

func (b *azureBlobs) Put(ctx context.Context, container, name string, data []byte) error {
	_, err := b.client.UploadBuffer(ctx, container, name, data, nil)
	return err
}

func (b *azureBlobs) Get(ctx context.Context, container, name string) ([]byte, error) {
	resp, err := b.client.DownloadStream(ctx, container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
