package container

import (
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"lumicart-io/api/internal/events"
	"lumicart-io/api/pkg/controllers"
	"lumicart-io/api/pkg/services"
	"lumicart-io/api/pkg/util"
)

// ServiceContainer wires the cart session service together. Connections come
// in from main; nothing in here hides behind a package-level singleton.
type ServiceContainer struct {
	Bus      *events.Bus
	Redis    *redis.Client
	Sessions *services.SessionManager
	Catalog  *services.CatalogService

	CartController    *controllers.CartController
	CatalogController *controllers.CatalogController
}

func NewServiceContainer(cfg util.Config, rdb *redis.Client, mongoClient *mongo.Client, media services.MediaUpload) *ServiceContainer {
	bus := events.NewBus(rdb)
	resolver := services.NewOptionResolver()
	syncClient := services.NewSyncClient(cfg.UpstreamBaseURL, cfg.RequestTimeout)
	mirror := services.NewGuestCartMirror(rdb)
	sessions := services.NewSessionManager(syncClient, bus, resolver, mirror, cfg.NoteQuietPeriod, cfg.RequestTimeout)

	var fallback services.FallbackProvider
	if mongoClient != nil {
		fallback = services.NewMongoCatalogFallback(
			util.GetCollection(mongoClient, cfg.MongoDatabase, "ProductSnapshot"),
		)
	}
	catalog := services.NewCatalogService(cfg.UpstreamBaseURL, cfg.RequestTimeout, fallback)

	cartController := controllers.InitCartController(sessions, catalog, media, cfg.JWTSecret)
	catalogController := controllers.InitCatalogController(catalog, resolver)

	return &ServiceContainer{
		Bus:      bus,
		Redis:    rdb,
		Sessions: sessions,
		Catalog:  catalog,

		CartController:    cartController,
		CatalogController: catalogController,
	}
}

// Shutdown flushes every live cart session.
func (sc *ServiceContainer) Shutdown() {
	sc.Sessions.CloseAll()
}
