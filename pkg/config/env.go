package config

// EnvPrefix namespaces every variable read by envconfig.
const EnvPrefix = "ARCHIVE_EXPORT"

const (
	EnvAppEnv       = "ARCHIVE_EXPORT_APP_ENV"
	EnvLogLevel     = "ARCHIVE_EXPORT_LOG_LEVEL"
	EnvLogFormat    = "ARCHIVE_EXPORT_LOG_FORMAT"
	EnvLogWarnStack = "ARCHIVE_EXPORT_LOG_WARN_STACK"

	EnvAPIToken          = "ARCHIVE_EXPORT_API_TOKEN"
	EnvAPIRequestTimeout = "ARCHIVE_EXPORT_API_REQUEST_TIMEOUT"

	EnvRegion         = "ARCHIVE_EXPORT_REGION"
	EnvRegionNAURL    = "ARCHIVE_EXPORT_REGION_NA_URL"
	EnvRegionEUURL    = "ARCHIVE_EXPORT_REGION_EU_URL"
	EnvRegionChinaURL = "ARCHIVE_EXPORT_REGION_CHINA_URL"

	EnvOutputDir  = "ARCHIVE_EXPORT_OUTPUT_DIR"
	EnvMaxPages   = "ARCHIVE_EXPORT_MAX_PAGES"
	EnvDemoGroups = "ARCHIVE_EXPORT_DEMO_GROUPS"

	EnvRedisURL = "ARCHIVE_EXPORT_REDIS_URL"
	EnvLockTTL  = "ARCHIVE_EXPORT_LOCK_TTL"

	EnvGCSBucket       = "ARCHIVE_EXPORT_GCS_BUCKET_NAME"
	EnvGCSObjectPrefix = "ARCHIVE_EXPORT_GCS_OBJECT_PREFIX"
	EnvGCPCredentials  = "ARCHIVE_EXPORT_GCP_CREDENTIALS_JSON"
	EnvGoogleAppCreds  = "ARCHIVE_EXPORT_GOOGLE_APPLICATION_CREDENTIALS"

	EnvMetricsTextfile = "ARCHIVE_EXPORT_METRICS_TEXTFILE"
)
