package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
	"toefl_sim_backend/internal/config"
	"toefl_sim_backend/internal/util"
	"toefl_sim_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider stores listening audio objects and hands out playable URLs for them.
type StorageProvider interface {
	UploadFile(ctx context.Context, objectKey, localPath, contentType string) error
	URL(ctx context.Context, objectKey string) (string, error)
}

type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) UploadFile(ctx context.Context, objectKey, localPath, contentType string) error {
	dst := filepath.Join(p.Config.LocalPath, filepath.FromSlash(objectKey))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	srcAbs, _ := filepath.Abs(localPath)
	dstAbs, _ := filepath.Abs(dst)
	if srcAbs == dstAbs {
		return nil
	}

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

func (p *LocalStorageProvider) URL(ctx context.Context, objectKey string) (string, error) {
	return "/uploads/" + objectKey, nil
}

type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

func (p *MinioStorageProvider) UploadFile(ctx context.Context, objectKey, localPath, contentType string) error {
	_, err := p.Client.FPutObject(ctx, p.Config.MinioBucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// URL presigns a GET so the bucket itself can stay private.
func (p *MinioStorageProvider) URL(ctx context.Context, objectKey string) (string, error) {
	expiry := time.Duration(p.Config.URLExpiryMinutes) * time.Minute
	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

type OSSStorageProvider struct {
	Config *config.StorageConfig
	Client *oss.Client
}

func NewOSSStorageProvider(cfg *config.StorageConfig) (*OSSStorageProvider, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	return &OSSStorageProvider{Config: cfg, Client: client}, nil
}

func (p *OSSStorageProvider) UploadFile(ctx context.Context, objectKey, localPath, contentType string) error {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return err
	}
	return bucket.PutObjectFromFile(objectKey, localPath, oss.ContentType(contentType))
}

func (p *OSSStorageProvider) URL(ctx context.Context, objectKey string) (string, error) {
	bucket, err := p.Client.Bucket(p.Config.OSSBucket)
	if err != nil {
		return "", err
	}
	return bucket.SignURL(objectKey, oss.HTTPGet, int64(p.Config.URLExpiryMinutes*60))
}

type StorageService struct {
	Provider StorageProvider
}

// NewStorageService picks the provider named by storage.type, falling back to local disk when
// a remote provider cannot be built.
func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	switch cfg.Storage.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init MinIO storage, falling back to local", zap.Error(err))
			provider = &LocalStorageProvider{Config: &cfg.Storage}
		} else {
			provider = p
		}
	case util.StorageOSS:
		p, err := NewOSSStorageProvider(&cfg.Storage)
		if err != nil {
			logger.Log.Error("Failed to init OSS storage, falling back to local", zap.Error(err))
			provider = &LocalStorageProvider{Config: &cfg.Storage}
		} else {
			provider = p
		}
	default:
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}
	return &StorageService{Provider: provider}
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "/")
}

// ResolveURL returns absolute URLs and rooted paths unchanged and asks the provider for
// anything else, which is treated as an object key.
func (s *StorageService) ResolveURL(ctx context.Context, ref string) (string, error) {
	if ref == "" || isAbsoluteURL(ref) {
		return ref, nil
	}
	return s.Provider.URL(ctx, ref)
}

// StoreAudio uploads a local audio file as listening/<promptID>/<file name> and returns the
// object key. Files of different prompts never share a key.
func (s *StorageService) StoreAudio(ctx context.Context, promptID, localPath string) (string, error) {
	if !util.IsAudioFile(localPath) {
		return "", fmt.Errorf("%w: %s is not a supported audio file", util.ErrInvalidInput, localPath)
	}
	if strings.TrimSpace(promptID) == "" || strings.ContainsAny(promptID, "/\\") {
		return "", fmt.Errorf("%w: invalid prompt id %q for audio upload", util.ErrInvalidInput, promptID)
	}
	objectKey := path.Join("listening", promptID, filepath.Base(localPath))
	if err := s.Provider.UploadFile(ctx, objectKey, localPath, audioContentType(localPath)); err != nil {
		return "", err
	}
	return objectKey, nil
}

func audioContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a", ".aac":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	}
	return "application/octet-stream"
}
