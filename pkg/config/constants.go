package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SELLORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "SELLORA_APP_ENV"
	EnvPort   = "SELLORA_APP_PORT"

	EnvDBDSN  = "SELLORA_DB_DSN"
	EnvDBHost = "SELLORA_DB_HOST"
	EnvDBUser = "SELLORA_DB_USER"
	EnvDBName = "SELLORA_DB_NAME"

	EnvRedisURL = "SELLORA_REDIS_URL"

	EnvGCPProjectID         = "SELLORA_GCP_PROJECT_ID"
	EnvPubSubOrderStatusTop = "SELLORA_PUBSUB_ORDER_STATUS_TOPIC"
	EnvPubSubOrderStatusSub = "SELLORA_PUBSUB_ORDER_STATUS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
