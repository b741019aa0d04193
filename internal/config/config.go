package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0:8080"`
	Environment   string `env:"ENV" envDefault:"development"`
	PostgresConfig
	BlobConfig
}

func NewConfig() (*Config, error) {
	// .env is optional, plain environment variables win
	_ = godotenv.Load(".env")

	config := &Config{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewConfig: %w", err)
	}
	return config, err
}

type PostgresConfig struct {
	Conn            string `env:"POSTGRES_CONN" envDefault:"postgres://tuition:tuition@db:5432/tuition?sslmode=disable"`
	AutoMigrateUp   string `env:"AUTO_MIGRATE_UP" envDefault:"true"`
	AutoMigrateDown string `env:"AUTO_MIGRATE_DOWN" envDefault:"false"`
	MigrationsURL   string `env:"MIGRATIONS_URL" envDefault:"file://internal/repository/db/migrations"`
}

func NewPostgresConfig() (*PostgresConfig, error) {
	config := &PostgresConfig{}

	err := env.Parse(config)
	if err != nil {
		err = fmt.Errorf("config.NewPostgresConfig: %w", err)
	}
	return config, err
}

type BlobConfig struct {
	Driver      string `env:"BLOB_DRIVER" envDefault:"fs"`
	Root        string `env:"BLOB_FS_ROOT" envDefault:"./blobdata"`
	S3Bucket    string `env:"BLOB_S3_BUCKET"`
	S3Region    string `env:"BLOB_S3_REGION" envDefault:"ap-southeast-1"`
	S3Endpoint  string `env:"BLOB_S3_ENDPOINT"`
	S3PathStyle string `env:"BLOB_S3_PATH_STYLE" envDefault:"false"`
}
