package util

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Initialize env vars
func LoadEnvFor(v string) (x string) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	x = os.Getenv(v)

	return
}

func LoadEnvOr(v, fallback string) string {
	if x := LoadEnvFor(v); x != "" {
		return x
	}
	return fallback
}

// Config holds everything the cart session service needs. Loaded once in main
// and handed to the container; connections are constructed explicitly instead
// of living in package-level singletons.
type Config struct {
	Port            string
	UpstreamBaseURL string
	RedisURL        string
	MongoURI        string
	MongoDatabase   string
	NoteQuietPeriod time.Duration
	RequestTimeout  time.Duration
	JWTSecret       string
}

func LoadConfig() Config {
	return Config{
		Port:            LoadEnvOr("PORT", "8080"),
		UpstreamBaseURL: LoadEnvFor("UPSTREAM_BASE_URL"),
		RedisURL:        LoadEnvFor("REDIS_URL"),
		MongoURI:        LoadEnvFor("MONGO_URI"),
		MongoDatabase:   LoadEnvOr("MONGO_DATABASE", "lumicart"),
		NoteQuietPeriod: loadDurationMs("NOTE_QUIET_PERIOD_MS", 1000),
		RequestTimeout:  loadDurationMs("REQUEST_TIMEOUT_MS", 15000),
		JWTSecret:       LoadEnvFor("SECRET"),
	}
}

func loadDurationMs(key string, fallback int) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Duration(fallback) * time.Millisecond
}

// Initialize db connection
func ConnectMongo(uri string) (*mongo.Client, error) {
	log.Println("starting MongoDB connection..")
	client, err := mongo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = client.Connect(ctx); err != nil {
		return nil, err
	}

	// try to ping the database
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("MongoDB connection successful")
	return client, nil
}

// GetCollection Get collection from Db
func GetCollection(client *mongo.Client, database, name string) *mongo.Collection {
	return client.Database(database).Collection(name)
}

// Initialize redis connection
func ConnectRedis(redisUrl string) (*redis.Client, error) {
	log.Printf("starting redis connection..%v", redisUrl)
	addr, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(addr)

	log.Println("redis connection successful..")
	return client, nil
}
