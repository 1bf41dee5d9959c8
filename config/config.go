package config

import (
	"fmt"
	"log"
	"os"

	"backend/models"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is loaded once at startup and never mutated afterwards.
type Config struct {
	JWTSecret    string
	JWTAlgorithm string
	RedisURL     string
	MLServiceURL string
	Port         string
}

var (
	App   Config
	DB    *gorm.DB
	Redis *redis.Client
)

func Load() {
	// .env is optional outside of local development
	_ = godotenv.Load()

	App = Config{
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTAlgorithm: getenv("JWT_ALGORITHM", "HS256"),
		RedisURL:     getenv("REDIS_URL", "redis://localhost:6379/0"),
		MLServiceURL: getenv("ML_SERVICE_URL", "http://localhost:5000"),
		Port:         getenv("PORT", "8080"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.Food{},
		&models.ServingUnit{},
		&models.FoodServingUnit{},
		&models.Consumption{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}
}

func InitRedis() {
	opt, err := redis.ParseURL(App.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	Redis = redis.NewClient(opt)
}
