package config

// StorageConfig describes the object storage bucket holding uploaded images
// and the resume.
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string // prefix for public object URLs; derived from Endpoint when empty
	MaxUploadSize int64
}

// LoadStorageConfig reads STORAGE_* environment variables.
func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Enabled:       envBool("STORAGE_ENABLED", true),
		Endpoint:      envStr("STORAGE_ENDPOINT", "localhost:9000"),
		AccessKey:     envStr("STORAGE_ACCESS_KEY", ""),
		SecretKey:     envStr("STORAGE_SECRET_KEY", ""),
		Bucket:        envStr("STORAGE_BUCKET", "portfolio"),
		UseSSL:        envBool("STORAGE_USE_SSL", false),
		PublicBaseURL: envStr("STORAGE_PUBLIC_BASE_URL", ""),
		MaxUploadSize: int64(envInt("STORAGE_MAX_UPLOAD_BYTES", 10<<20)),
	}
}
