package config

// EnvPrefix is the envconfig prefix for all listkeeper variables.
const EnvPrefix = "listkeeper"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, docs).
const (
	EnvAppEnv   = "LISTKEEPER_APP_ENV"
	EnvPort     = "LISTKEEPER_APP_PORT"
	EnvDBDSN    = "LISTKEEPER_DB_DSN"
	EnvDBHost   = "LISTKEEPER_DB_HOST"
	EnvDBUser   = "LISTKEEPER_DB_USER"
	EnvDBName   = "LISTKEEPER_DB_NAME"
	EnvRedisURL = "LISTKEEPER_REDIS_URL"

	EnvSquareAccessToken = "LISTKEEPER_SQUARE_ACCESS_TOKEN"
	EnvSquareEnv         = "LISTKEEPER_SQUARE_ENV"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
