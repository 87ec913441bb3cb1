package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"lumicart-io/api/pkg/models"
	"lumicart-io/api/pkg/util"
)

// FallbackProvider is the degraded-mode read path: a locally stored product
// snapshot served when the upstream catalog is unreachable. It backs catalog
// reads only; cart mutation and checkout never read degraded data, where a
// stale price or option set would be actively misleading.
type FallbackProvider interface {
	Product(ctx context.Context, productID string) (*models.Product, error)
	Save(ctx context.Context, product models.Product) error
}

// MongoCatalogFallback stores product snapshots in a Mongo collection.
type MongoCatalogFallback struct {
	collection *mongo.Collection
}

func NewMongoCatalogFallback(collection *mongo.Collection) *MongoCatalogFallback {
	return &MongoCatalogFallback{collection: collection}
}

func (f *MongoCatalogFallback) Product(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := f.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "read product snapshot")
	}
	return &product, nil
}

func (f *MongoCatalogFallback) Save(ctx context.Context, product models.Product) error {
	opts := mongoopts.Replace().SetUpsert(true)
	_, err := f.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product, opts)
	return errors.Wrap(err, "save product snapshot")
}

// CatalogService reads products (with their dynamic option definitions) from
// the upstream catalog, snapshotting every successful read into the fallback
// store.
type CatalogService struct {
	baseURL  string
	client   *http.Client
	fallback FallbackProvider
}

func NewCatalogService(baseURL string, timeout time.Duration, fallback FallbackProvider) *CatalogService {
	return &CatalogService{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
	}
}

// GetProduct fetches one product from upstream. When upstream is unreachable
// the stored snapshot is served instead, flagged as degraded; a product the
// upstream genuinely doesn't know stays an error.
func (cs *CatalogService) GetProduct(ctx context.Context, productID string) (*models.Product, bool, error) {
	product, err := cs.fetchUpstream(ctx, productID)
	if err == nil {
		product.Slug = slug.Make(product.Name)
		product.FetchedAt = time.Now()
		if cs.fallback != nil {
			if saveErr := cs.fallback.Save(ctx, *product); saveErr != nil {
				util.LogError("product snapshot save failed", saveErr)
			}
		}
		return product, false, nil
	}

	if errors.Is(err, ErrProductNotFound) || cs.fallback == nil {
		return nil, false, err
	}

	util.LogWarning(fmt.Sprintf("catalog upstream unavailable, serving snapshot for %s", productID))
	snapshot, fbErr := cs.fallback.Product(ctx, productID)
	if fbErr != nil {
		return nil, false, err
	}
	return snapshot, true, nil
}

func (cs *CatalogService) fetchUpstream(ctx context.Context, productID string) (*models.Product, error) {
	url := fmt.Sprintf("%s/products/%s", cs.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build product request")
	}

	resp, err := cs.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, errors.Wrap(err, "decode product payload")
	}
	return &product, nil
}
