// Package storage implements raw (bronze) file storage on a local directory,
// S3-compatible object storage, Google Cloud Storage or Azure Blob Storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"lakeload/internal/config"
	"lakeload/internal/domain"
)

// NewRawStore returns the RawStore selected by the scheme of cfg.BronzeURL.
// Files land under BronzeURL/BronzeFolder.
func NewRawStore(ctx context.Context, cfg *config.Config) (domain.RawStore, error) {
	switch cfg.BronzeScheme() {
	case "file":
		return NewLocalStore(config.LocalPath(cfg.BronzeURL), cfg.BronzeFolder)
	case "s3":
		bucket, prefix, err := ParseS3Path(cfg.BronzeURL)
		if err != nil {
			return nil, err
		}
		return NewS3Store(&cfg.Storage, bucket, joinPrefix(prefix, cfg.BronzeFolder))
	case "gs":
		bucket, prefix, err := parseGCSPath(cfg.BronzeURL)
		if err != nil {
			return nil, err
		}
		return NewGCSStore(ctx, &cfg.Storage, bucket, joinPrefix(prefix, cfg.BronzeFolder))
	case "az":
		container, prefix, err := parseAzurePath(cfg.BronzeURL)
		if err != nil {
			return nil, err
		}
		return NewAzureStore(&cfg.Storage, container, joinPrefix(prefix, cfg.BronzeFolder))
	default:
		return nil, fmt.Errorf("unsupported bronze storage scheme %q", cfg.BronzeScheme())
	}
}

// cleanKey validates a store key: relative, slash-separated, no parent references.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", domain.ErrValidation("storage key is required")
	}
	if strings.Contains(key, `\`) || strings.HasPrefix(key, "/") {
		return "", domain.ErrValidation("invalid storage key %q", key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", domain.ErrValidation("invalid storage key %q", key)
	}
	return cleaned, nil
}

// joinPrefix joins object key prefixes without leading or doubled slashes.
func joinPrefix(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// ParseS3Path extracts bucket and key prefix from an "s3://bucket/prefix" URI.
// The prefix may be empty.
func ParseS3Path(s3Path string) (bucket, prefix string, err error) {
	return parseBucketURI("s3", s3Path)
}

// parseGCSPath extracts bucket and key prefix from a "gs://bucket/prefix" URI.
func parseGCSPath(gsPath string) (bucket, prefix string, err error) {
	return parseBucketURI("gs", gsPath)
}

// parseAzurePath extracts container and key prefix from an Azure storage URI.
//
// Supported formats:
//
//	az://container/path
//	abfss://container@account.dfs.core.windows.net/path
func parseAzurePath(azPath string) (container, prefix string, err error) {
	u, err := url.Parse(azPath)
	if err != nil {
		return "", "", fmt.Errorf("parse Azure path %q: %w", azPath, err)
	}
	switch u.Scheme {
	case "az":
		container = u.Host
	case "abfss":
		if u.User == nil {
			return "", "", fmt.Errorf("abfss path %q missing container@account component", azPath)
		}
		container = u.User.Username()
	default:
		return "", "", fmt.Errorf("unrecognized Azure path scheme %q in %q", u.Scheme, azPath)
	}
	if container == "" {
		return "", "", fmt.Errorf("empty container in Azure path %q", azPath)
	}
	return container, strings.Trim(u.Path, "/"), nil
}

func parseBucketURI(scheme, raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse %s path %q: %w", scheme, raw, err)
	}
	if u.Scheme != scheme {
		return "", "", fmt.Errorf("expected %s:// scheme, got %q in %q", scheme, u.Scheme, raw)
	}
	if u.Host == "" {
		return "", "", fmt.Errorf("empty bucket in %s path %q", scheme, raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}
