package config

type Config interface {
	EnvConfig
	SessionConfig
	TransportConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetAPIBaseURL() string
	GetEnv() string
}

type StorageConfig interface {
	GetTokenFilePath() string
	GetTokenFileKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisTokenKey() string
}

type mainConfig struct {
	EnvVars
	Session
	Transport
	Storage
}

func New() Config {
	return mainConfig{}
}
