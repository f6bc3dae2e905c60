package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dkotenko/eshop/internal/models"
)

type Config struct {
	APP_ENV        string
	PORT           string
	BASE_URL       string
	UPLOADS_DIR    string
	LOG_LEVEL      string
	DB_HOST        string
	DB_PORT        string
	DB_USER        string
	DB_PASSWORD    string
	DB_NAME        string
	ES_URL         string
	ES_USER        string
	ES_PASSWORD    string
	JWT_SECRET     string
	REFRESH_SECRET string
	KAFKA_ADDRESS  string
	REDIS_ADDR     string
	WEBHOOK_SECRET string
	PAYMENT_URL    string
	TAX_PRICE      float64
	SHIPPING_PRICE float64
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		APP_ENV:        getenvDefault("APP_ENV", "development"),
		PORT:           getenvDefault("PORT", "8080"),
		BASE_URL:       getenvDefault("BASE_URL", "http://localhost:8080"),
		UPLOADS_DIR:    getenvDefault("UPLOADS_DIR", "uploads"),
		LOG_LEVEL:      getenvDefault("LOG_LEVEL", "info"),
		DB_HOST:        os.Getenv("DB_HOST"),
		DB_PORT:        os.Getenv("DB_PORT"),
		DB_USER:        os.Getenv("DB_USER"),
		DB_PASSWORD:    os.Getenv("DB_PASSWORD"),
		DB_NAME:        os.Getenv("DB_NAME"),
		ES_URL:         os.Getenv("ES_URL"),
		ES_USER:        os.Getenv("ES_USER"),
		ES_PASSWORD:    os.Getenv("ES_PASSWORD"),
		JWT_SECRET:     os.Getenv("JWT_SECRET"),
		REFRESH_SECRET: os.Getenv("REFRESH_SECRET"),
		KAFKA_ADDRESS:  os.Getenv("KAFKA_ADDRESS"),
		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		WEBHOOK_SECRET: os.Getenv("WEBHOOK_SECRET"),
		PAYMENT_URL:    os.Getenv("PAYMENT_URL"),
		TAX_PRICE:      getenvFloat("TAX_PRICE", 0),
		SHIPPING_PRICE: getenvFloat("SHIPPING_PRICE", 0),
	}

	return config, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Notice: %s=%q is not a number, using %v", key, v, def)
		return def
	}
	return f
}

func (c *Config) IsProduction() bool {
	return c.APP_ENV == "production"
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("db migration failed: %w", err)
	}
	return db, nil
}
