package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
	"github.com/dmitrijs2005/filekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the server config. Durations accept both
// strings such as "10m" and integer nanoseconds (see timex.Duration).
//
// Only fields present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	AccessTokenSecret           *string         `json:"access_token_secret"`
	RefreshTokenSecret          *string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	PasswordHashCost            *int            `json:"password_hash_cost"`
	BlobBackend                 *string         `json:"blob_backend"`
	UploadDir                   *string         `json:"upload_dir"`
	MaxUploadSize               *int64          `json:"max_upload_size"`
	AuthRateLimitPerMinute      *int            `json:"auth_rate_limit_per_minute"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// parseJson overlays values from the JSON file named by -c/-config (or
// FILEKEEPER_CONFIG) onto config. No file means no changes. An unreadable
// file or invalid JSON panics, as does a bad flag.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.AccessTokenSecret, c.AccessTokenSecret)
	set(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	set(&config.PasswordHashCost, c.PasswordHashCost)
	set(&config.BlobBackend, c.BlobBackend)
	set(&config.UploadDir, c.UploadDir)
	set(&config.MaxUploadSize, c.MaxUploadSize)
	set(&config.AuthRateLimitPerMinute, c.AuthRateLimitPerMinute)
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}
