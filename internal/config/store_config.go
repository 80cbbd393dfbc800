package config

type StoreConfig interface {
	GetRedisURL() string
	GetSQLitePath() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Store) GetSQLitePath() string {
	return GetEnv("SQLITE_PATH", "./data/ospass.db")
}
