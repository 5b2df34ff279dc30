package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	RabbitMQ RabbitMQ
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
	// QuizCacheTTLSeconds bounds how stale a cached active quiz definition may be.
	QuizCacheTTLSeconds int
}

type RabbitMQ struct {
	Host     string
	Port     string
	User     string
	Password string
	Queue    string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_QUIZ_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("RABBITMQ_QUEUE", "quiz.activity")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Redis.Host = viper.GetString("REDIS_HOST")
	config.Redis.Port = viper.GetString("REDIS_PORT")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.QuizCacheTTLSeconds = viper.GetInt("REDIS_QUIZ_CACHE_TTL_SECONDS")

	config.RabbitMQ.Host = viper.GetString("RABBITMQ_HOST")
	config.RabbitMQ.Port = viper.GetString("RABBITMQ_PORT")
	config.RabbitMQ.User = viper.GetString("RABBITMQ_USER")
	config.RabbitMQ.Password = viper.GetString("RABBITMQ_PASSWORD")
	config.RabbitMQ.Queue = viper.GetString("RABBITMQ_QUEUE")

	log.Info().Str("server_port", config.Server.Port).Str("db_host", config.Database.Host).Msg("Config loaded")
	return &config, nil
}
