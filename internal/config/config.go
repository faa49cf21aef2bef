package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	HTTPAddr    string // CANVASD_HTTP_ADDR (default ":8080")
	DataDir     string // CANVASD_DATA_DIR (default "./data"; file store root)
	VaultDir    string // CANVASD_VAULT_DIR (optional; enables content inlining)
	DatabaseURL string // CANVASD_DATABASE_URL (optional; empty = file store)
	NATSURL     string // CANVASD_NATS_URL (optional, empty = no events)
	AuthToken   string // CANVASD_AUTH_TOKEN (optional, empty = auth disabled)

	// Sync settings
	SyncInterval   time.Duration // CANVASD_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // CANVASD_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // CANVASD_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // CANVASD_SYNC_S3_REGION (default "us-east-1")
	SyncS3Prefix   string        // CANVASD_SYNC_S3_PREFIX (default "canvasd/")
}

func Load() (*Config, error) {
	c := &Config{
		HTTPAddr:       envOrDefault("CANVASD_HTTP_ADDR", ":8080"),
		DataDir:        envOrDefault("CANVASD_DATA_DIR", "./data"),
		VaultDir:       os.Getenv("CANVASD_VAULT_DIR"),
		DatabaseURL:    os.Getenv("CANVASD_DATABASE_URL"),
		NATSURL:        os.Getenv("CANVASD_NATS_URL"),
		AuthToken:      os.Getenv("CANVASD_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("CANVASD_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("CANVASD_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("CANVASD_SYNC_S3_REGION", "us-east-1"),
		SyncS3Prefix:   envOrDefault("CANVASD_SYNC_S3_PREFIX", "canvasd/"),
	}

	intervalStr := envOrDefault("CANVASD_SYNC_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("CANVASD_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
