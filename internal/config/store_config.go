package config

import "github.com/spf13/viper"

const (
	postgresDSNKey   = "store.postgres_dsn"
	clientSelectKey  = "store.client_select_statement"
	clientFindKey    = "store.client_find_statement"
	redisAddrKey     = "store.redis_addr"
	redisPasswordKey = "store.redis_password"
	redisDBKey       = "store.redis_db"
	codeKeyPrefixKey = "store.code_key_prefix"
	seedFileKey      = "store.seed_file"
)

// StoreConfig selects the backing stores. Empty connection settings fall back to the
// in-memory implementations.
type StoreConfig interface {
	GetPostgresDSN() string
	GetClientSelectStatement() string
	GetClientFindStatement() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetCodeKeyPrefix() string
	// GetSeedFile is a yaml file of clients and users loaded into the in-memory stores.
	GetSeedFile() string
}

type Stores struct {
	v *viper.Viper
}

var _ StoreConfig = Stores{}

func (s Stores) GetPostgresDSN() string {
	return s.v.GetString(postgresDSNKey)
}

func (s Stores) GetClientSelectStatement() string {
	return s.v.GetString(clientSelectKey)
}

func (s Stores) GetClientFindStatement() string {
	return s.v.GetString(clientFindKey)
}

func (s Stores) GetRedisAddr() string {
	return s.v.GetString(redisAddrKey)
}

func (s Stores) GetRedisPassword() string {
	return s.v.GetString(redisPasswordKey)
}

func (s Stores) GetRedisDB() int {
	return s.v.GetInt(redisDBKey)
}

func (s Stores) GetCodeKeyPrefix() string {
	return s.v.GetString(codeKeyPrefixKey)
}

func (s Stores) GetSeedFile() string {
	return s.v.GetString(seedFileKey)
}
