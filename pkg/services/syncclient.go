package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/pkg/models"
)

// SyncClient talks to the upstream commerce API that owns the durable cart.
// Every persist sends the complete mutable state of the affected item, never
// a partial diff: the upstream contract replaces the whole item, and a
// partial patch could silently drop sibling fields server-side.
type SyncClient struct {
	baseURL string
	client  *http.Client
}

func NewSyncClient(baseURL string, timeout time.Duration) *SyncClient {
	return &SyncClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (sc *SyncClient) userCartURL(identity auth.Identity) string {
	return fmt.Sprintf("%s/user/%s/cart", sc.baseURL, identity.UserID)
}

// Load fetches the authoritative cart. The caller replaces local state
// wholesale on success; on failure it presents an empty cart and offers a
// retry, never a crash.
func (sc *SyncClient) Load(ctx context.Context, identity auth.Identity) ([]models.LineItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.userCartURL(identity), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build cart load request")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	var items []models.LineItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, errors.Wrap(err, "decode cart payload")
	}
	return items, nil
}

// Persist pushes one line item's full current state upstream.
func (sc *SyncClient) Persist(ctx context.Context, identity auth.Identity, item models.LineItem) error {
	url := fmt.Sprintf("%s/%s", sc.userCartURL(identity), item.ID)
	body, err := json.Marshal(models.PatchFrom(item))
	if err != nil {
		return errors.Wrap(err, "encode line item patch")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build persist request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}

// AddItem creates the item upstream and returns the server-assigned id.
// Guest identities use the guest endpoint and payload shape.
func (sc *SyncClient) AddItem(ctx context.Context, identity auth.Identity, item models.LineItem) (string, error) {
	var url string
	var payload any
	if identity.Guest {
		url = sc.baseURL + "/cart"
		payload = models.GuestCartItemRequest{
			UserID:      "guest",
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.UnitPrice,
		}
	} else {
		url = sc.userCartURL(identity)
		payload = models.PatchFrom(item)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "encode add item payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build add item request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := sc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", nil
	}
	return created.ID, nil
}

// Remove deletes one item upstream.
func (sc *SyncClient) Remove(ctx context.Context, identity auth.Identity, itemID string) error {
	url := fmt.Sprintf("%s/%s", sc.userCartURL(identity), itemID)
	return sc.delete(ctx, url)
}

// Clear deletes the whole upstream cart.
func (sc *SyncClient) Clear(ctx context.Context, identity auth.Identity) error {
	return sc.delete(ctx, sc.userCartURL(identity))
}

func (sc *SyncClient) delete(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return errors.Wrap(err, "build delete request")
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	defer resp.Body.Close()

	return classifyStatus(resp)
}

// classifyStatus maps upstream responses onto the failure taxonomy: 5xx is a
// retryable outage, 4xx a validation rejection the user has to resolve.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode >= 500:
		return errors.Wrapf(ErrUpstreamUnavailable, "status %d", resp.StatusCode)
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Wrapf(ErrUpstreamRejected, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
}
