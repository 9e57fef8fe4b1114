package config

const (
	EnvPrefix = "PAWHAVEN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PAWHAVEN_APP_ENV"
	EnvPort     = "PAWHAVEN_APP_PORT"
	EnvLogLevel = "PAWHAVEN_LOG_LEVEL"

	EnvDBDSN  = "PAWHAVEN_DB_DSN"
	EnvDBHost = "PAWHAVEN_DB_HOST"
	EnvDBUser = "PAWHAVEN_DB_USER"
	EnvDBName = "PAWHAVEN_DB_NAME"
	EnvDBPass = "PAWHAVEN_DB_PASSWORD"

	EnvRedisURL = "PAWHAVEN_REDIS_URL"

	EnvJWTSecret = "PAWHAVEN_JWT_SECRET"
	EnvJWTIssuer = "PAWHAVEN_JWT_ISSUER"

	EnvGCPProjectID = "PAWHAVEN_GCP_PROJECT_ID"
	EnvGCSBucket    = "PAWHAVEN_GCS_BUCKET_NAME"

	EnvPubSubPetEventsTopic    = "PAWHAVEN_PUBSUB_PET_EVENTS_TOPIC"
	EnvPubSubNotificationTopic = "PAWHAVEN_PUBSUB_NOTIFICATION_TOPIC"

	EnvMaxDonationPhotos = "PAWHAVEN_MAX_DONATION_PHOTOS"
	EnvCronInterval      = "PAWHAVEN_CRON_INTERVAL"
	EnvTrustedProxyHops  = "PAWHAVEN_TRUSTED_PROXY_HOPS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
