package config

import (
	"log"
	"os"
)

type DBConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     string
}

type CacheConfig struct {
	Host              string
	Port              string
	TransportProtocol string
}

type HTTPServerConfig struct {
	Host string
	Port string
}

var (
	dbHost     = "DB_HOST"
	dbPort     = "DB_PORT"
	dbName     = "DB_NAME"
	dbUser     = "DB_USER"
	dbPassword = "DB_PASSWORD"
)

func LoadDBConfig() DBConfig {
	return DBConfig{
		Host:     mustGetenv(dbHost),
		Port:     mustGetenv(dbPort),
		Name:     mustGetenv(dbName),
		User:     mustGetenv(dbUser),
		Password: mustGetenv(dbPassword),
	}
}

var (
	cacheHost              = "CACHE_HOST"
	cachePort              = "CACHE_PORT"
	cacheTransportProtocol = "CACHE_TRANSPORT_PROTOCOL"
)

func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Host:              mustGetenv(cacheHost),
		Port:              mustGetenv(cachePort),
		TransportProtocol: mustGetenv(cacheTransportProtocol),
	}
}

var (
	httpServerHost = "HTTP_SERVER_HOST"
	httpServerPort = "HTTP_SERVER_PORT"
)

func LoadHTTPServerConfig() HTTPServerConfig {
	return HTTPServerConfig{
		Host: mustGetenv(httpServerHost),
		Port: mustGetenv(httpServerPort),
	}
}

func mustGetenv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("missing environment variable: %s", key)
	}

	return value
}
