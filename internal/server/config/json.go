package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/flagx"
	"github.com/dmitrijs2005/bloombuddy/internal/timex"
)

// jsonConfig is the on-disk shape. Durations accept "15m" or nanoseconds.
// Keys that are missing or empty leave the current value alone.
type jsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	S3PublicBaseURL              string         `json:"s3_public_base_url"`
	PlantIDAPIKey                string         `json:"plant_id_api_key"`
	PlantIDBaseURL               string         `json:"plant_id_base_url"`
	PerenualAPIKey               string         `json:"perenual_api_key"`
	PerenualBaseURL              string         `json:"perenual_base_url"`
	UpstreamTimeout              timex.Duration `json:"upstream_timeout"`
	CareCacheTTL                 timex.Duration `json:"care_cache_ttl"`
	LogLevel                     string         `json:"log_level"`
}

func parseJSON(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RefreshTokenValidityDuration, c.RefreshTokenValidityDuration)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.PlantIDAPIKey, c.PlantIDAPIKey)
	setString(&config.PlantIDBaseURL, c.PlantIDBaseURL)
	setString(&config.PerenualAPIKey, c.PerenualAPIKey)
	setString(&config.PerenualBaseURL, c.PerenualBaseURL)
	setDuration(&config.UpstreamTimeout, c.UpstreamTimeout)
	setDuration(&config.CareCacheTTL, c.CareCacheTTL)
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
