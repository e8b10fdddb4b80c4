package config

import "time"

// parseEnv overlays environment variables. The two API keys also answer to
// their unprefixed names, which is how hosting dashboards usually label them.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	dur := func(dst *time.Duration, key string) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}

	str(&config.EndpointAddrHTTP, "BLOOMBUDDY_HTTP_ADDR")
	str(&config.EndpointAddrGRPC, "BLOOMBUDDY_GRPC_ADDR")
	str(&config.DatabaseDSN, "BLOOMBUDDY_DATABASE_DSN", "DATABASE_URL")
	str(&config.SecretKey, "BLOOMBUDDY_SECRET_KEY")
	dur(&config.AccessTokenValidityDuration, "BLOOMBUDDY_ACCESS_TOKEN_TTL")
	dur(&config.RefreshTokenValidityDuration, "BLOOMBUDDY_REFRESH_TOKEN_TTL")

	str(&config.S3RootUser, "BLOOMBUDDY_S3_USER")
	str(&config.S3RootPassword, "BLOOMBUDDY_S3_PASSWORD")
	str(&config.S3Bucket, "BLOOMBUDDY_S3_BUCKET")
	str(&config.S3Region, "BLOOMBUDDY_S3_REGION")
	str(&config.S3BaseEndpoint, "BLOOMBUDDY_S3_ENDPOINT")
	str(&config.S3PublicBaseURL, "BLOOMBUDDY_S3_PUBLIC_URL")

	str(&config.PlantIDAPIKey, "BLOOMBUDDY_PLANT_ID_API_KEY", "PLANT_ID_API_KEY")
	str(&config.PlantIDBaseURL, "BLOOMBUDDY_PLANT_ID_BASE_URL")
	str(&config.PerenualAPIKey, "BLOOMBUDDY_PERENUAL_API_KEY", "PERENUAL_API_KEY")
	str(&config.PerenualBaseURL, "BLOOMBUDDY_PERENUAL_BASE_URL")
	dur(&config.UpstreamTimeout, "BLOOMBUDDY_UPSTREAM_TIMEOUT")
	dur(&config.CareCacheTTL, "BLOOMBUDDY_CARE_CACHE_TTL")

	str(&config.LogLevel, "BLOOMBUDDY_LOG_LEVEL")
}
