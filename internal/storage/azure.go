package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"lakeload/internal/config"
	"lakeload/internal/domain"
)

var _ domain.RawStore = (*AzureStore)(nil)

// AzureStore keeps raw files in an Azure Blob Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureStore creates a store for container/prefix from a connection string
// or an account name/key pair.
func NewAzureStore(st *config.StorageConfig, container, prefix string) (*AzureStore, error) {
	if !st.HasAzureConfig() {
		return nil, fmt.Errorf("azure config is incomplete")
	}

	var (
		client *azblob.Client
		err    error
	)
	if st.AzureConnectionString != "" {
		client, err = azblob.NewClientFromConnectionString(st.AzureConnectionString, nil)
	} else {
		var cred *azblob.SharedKeyCredential
		cred, err = azblob.NewSharedKeyCredential(st.AzureAccountName, st.AzureAccountKey)
		if err != nil {
			return nil, fmt.Errorf("create azure shared key credential: %w", err)
		}
		serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", st.AzureAccountName)
		client, err = azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}
	return &AzureStore{client: client, container: container, prefix: prefix}, nil
}

// Put uploads content under key, replacing any existing blob.
func (s *AzureStore) Put(ctx context.Context, key string, content []byte) error {
	blob, err := s.blobName(key)
	if err != nil {
		return err
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, blob, content, nil); err != nil {
		return fmt.Errorf("upload az://%s/%s: %w", s.container, blob, err)
	}
	return nil
}

// Get downloads the blob stored under key.
func (s *AzureStore) Get(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.blobName(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, s.container, blob, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, domain.ErrNotFound("raw file %q not found", key)
		}
		return nil, fmt.Errorf("download az://%s/%s: %w", s.container, blob, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	return io.ReadAll(resp.Body)
}

// URI returns the az:// URI of key.
func (s *AzureStore) URI(key string) string {
	return "az://" + s.container + "/" + joinPrefix(s.prefix, key)
}

func (s *AzureStore) blobName(key string) (string, error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return joinPrefix(s.prefix, k), nil
}
