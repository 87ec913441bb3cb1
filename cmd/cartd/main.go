package main

import (
	"log"

	"lumicart-io/api/internal/container"
	"lumicart-io/api/internal/routers"
	"lumicart-io/api/pkg/services"
	"lumicart-io/api/pkg/util"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg := util.LoadConfig()
	if cfg.UpstreamBaseURL == "" {
		log.Fatal("UPSTREAM_BASE_URL is required")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := util.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to redis:", err)
		}
		rdb = client
	} else {
		log.Println("REDIS_URL not set, running without event mirror and guest cart persistence")
	}

	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		client, err := util.ConnectMongo(cfg.MongoURI)
		if err != nil {
			log.Fatal("Failed to connect to mongodb:", err)
		}
		mongoClient = client
	} else {
		log.Println("MONGO_URI not set, catalog degraded mode disabled")
	}

	var media services.MediaUpload
	if cloudName := util.LoadEnvFor("CLOUDINARY_CLOUDNAME"); cloudName != "" {
		uploads, err := services.NewCloudinaryMedia(
			cloudName,
			util.LoadEnvFor("CLOUDINARY_API_KEY"),
			util.LoadEnvFor("CLOUDINARY_API_SECRET"),
			util.LoadEnvFor("CLOUDINARY_UPLOAD_FOLDER"),
		)
		if err != nil {
			log.Fatal("Failed to init cloudinary:", err)
		}
		media = uploads
	} else {
		log.Println("CLOUDINARY_CLOUDNAME not set, attachment image upload disabled")
	}

	sc := container.NewServiceContainer(cfg, rdb, mongoClient, media)
	defer sc.Shutdown()

	router := routers.InitRoute(sc)
	if err := router.Run("0.0.0.0:" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
