package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

var (
	AllowedAudioExtensions = []string{".mp3", ".m4a", ".wav", ".ogg", ".aac"}
)
