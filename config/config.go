package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads variables from .env unless GO_ENV says otherwise.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// Missing .env is fine outside development setups
		if err := godotenv.Load(); err != nil && goEnv == "development" {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// Redis Configuration
	REDIS_URL string
	// Groq / LLM Configuration
	GROQ_API_KEY string
	GROQ_API_URL string
	GROQ_MODEL   string
	// Seed & snapshot paths
	SEED_PATH           string
	SESSIONS_STORE_PATH string
	SNAPSHOT_ENABLED    bool
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "seed/seed_concept_graph.json"
	}

	snapshotPath := os.Getenv("SESSIONS_STORE_PATH")
	if snapshotPath == "" {
		snapshotPath = "sessions_store.json"
	}

	snapshotEnabled := os.Getenv("SNAPSHOT_ENABLED") != "false" // default enabled

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Groq
		GROQ_API_KEY: os.Getenv("GROQ_API_KEY"),
		GROQ_API_URL: os.Getenv("GROQ_API_URL"),
		GROQ_MODEL:   os.Getenv("GROQ_MODEL"),
		// Paths
		SEED_PATH:           seedPath,
		SESSIONS_STORE_PATH: snapshotPath,
		SNAPSHOT_ENABLED:    snapshotEnabled,
	}

	return envVariables, nil
}
