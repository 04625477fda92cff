package config

import (
	"errors"
	"strconv"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r *RedisConfig) Key() string {
	return REDIS_CONFIG_KEY
}

func (r *RedisConfig) Load() error {
	r.Addr = getEnvOrDefault("REDIS_ADDR", "localhost:6379")
	r.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))
	if err != nil {
		return errors.New("REDIS_DB is not a number")
	}
	r.DB = db
	return r.Validate()
}

func (r *RedisConfig) Validate() error {
	if r.Addr == "" {
		return errors.New("invalid redis config")
	}
	return nil
}
