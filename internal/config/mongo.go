package config

import "errors"

type MongoConfig struct {
	URI    string
	DBName string
}

func (m *MongoConfig) Key() string {
	return MONGO_CONFIG_KEY
}

func (m *MongoConfig) Load() error {
	m.URI = getEnvOrDefault("MONGO_URI", "")
	m.DBName = getEnvOrDefault("MONGO_DB", "youtube_tokens")
	return m.Validate()
}

func (m *MongoConfig) Validate() error {
	if m.URI == "" || m.DBName == "" {
		return errors.New("invalid mongo config")
	}
	return nil
}
