package config

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetTokenFilePath() string {
	return GetEnv("TOKEN_FILE", "./data/token")
}

// GetTokenFileKey is the 32-byte hex key used to seal the token file at rest.
// Empty means the file storage refuses to start.
func (Storage) GetTokenFileKey() string {
	return GetEnv("TOKEN_FILE_KEY", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisTokenKey() string {
	return GetEnv("REDIS_TOKEN_KEY", "crewdock:token")
}
