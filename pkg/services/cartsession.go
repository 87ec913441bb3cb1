package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lumicart-io/api/internal/auth"
	"lumicart-io/api/internal/common"
	"lumicart-io/api/internal/events"
	"lumicart-io/api/pkg/models"
	"lumicart-io/api/pkg/util"
)

// CartSession owns one shopper's cart reconciliation: the in-memory store,
// the upstream sync client and the event bus, created on session start and
// torn down with Close on logout. Every UI mutation applies to the store
// first, is announced on the bus, and is pushed upstream afterwards; a failed
// push is reported but never rolls the local mutation back, because the
// user's last input wins locally.
//
// Free-text note edits coalesce in a per-item quiet window before they are
// persisted; every other mutation is a discrete action and persists
// immediately.
type CartSession struct {
	identity auth.Identity
	store    *CartStore
	sync     *SyncClient
	bus      *events.Bus
	resolver *OptionResolver
	mirror   *GuestCartMirror

	quiet   time.Duration
	timeout time.Duration

	mu         sync.Mutex
	noteTimers map[string]*time.Timer
	closed     bool
	wg         sync.WaitGroup
}

func NewCartSession(identity auth.Identity, syncClient *SyncClient, bus *events.Bus, resolver *OptionResolver, mirror *GuestCartMirror, quiet, timeout time.Duration) *CartSession {
	if quiet <= 0 {
		quiet = common.NOTE_DEBOUNCE_QUIET_PERIOD
	}
	if timeout <= 0 {
		timeout = common.REQUEST_TIMEOUT_SECS
	}
	return &CartSession{
		identity:   identity,
		store:      NewCartStore(),
		sync:       syncClient,
		bus:        bus,
		resolver:   resolver,
		mirror:     mirror,
		quiet:      quiet,
		timeout:    timeout,
		noteTimers: make(map[string]*time.Timer),
	}
}

func (cs *CartSession) Identity() auth.Identity { return cs.identity }

// Snapshot returns the current cart with derived totals.
func (cs *CartSession) Snapshot() models.CartSnapshot {
	return cs.store.Snapshot()
}

// Checkout runs the checkout gate over the current snapshot.
func (cs *CartSession) Checkout() CheckoutReport {
	return EvaluateCheckout(cs.store.Snapshot(), cs.resolver)
}

// Load pulls the authoritative cart and replaces local state wholesale.
// Guests load from the Redis mirror, authenticated users from upstream. On
// failure the local cart is presented empty and the error is recoverable:
// the caller can simply load again.
func (cs *CartSession) Load(ctx context.Context) (models.CartSnapshot, error) {
	var items []models.LineItem
	var err error
	if cs.identity.Guest {
		items, err = cs.mirror.Load(ctx, cs.identity)
	} else {
		items, err = cs.sync.Load(ctx, cs.identity)
	}
	if err != nil {
		util.LogError("cart load failed", err)
		return cs.store.Clear(), errors.Wrap(err, "load cart")
	}
	snapshot := cs.store.Replace(items)
	cs.publish(events.EventCartUpdated, "loaded")
	return snapshot, nil
}

// AddItem creates a line item from a product snapshot, validates any options
// supplied at add time, applies it locally and pushes the create upstream in
// the background. The item starts under a locally assigned id and is rekeyed
// once the server answers with its own.
func (cs *CartSession) AddItem(ctx context.Context, product models.Product, req models.AddItemRequest) (models.CartSnapshot, error) {
	selected := make(map[string]string, len(req.SelectedOptions))
	pricing := make(map[string]float64, len(req.SelectedOptions))
	for name, value := range req.SelectedOptions {
		def, ok := cs.resolver.Definition(product.Options, name)
		if !ok {
			return cs.store.Snapshot(), fmt.Errorf("unknown option %q for product %s", name, product.ID)
		}
		if err := cs.resolver.ValidateValue(def, value); err != nil {
			return cs.store.Snapshot(), err
		}
		selected[name] = value
		pricing[name] = cs.resolver.PriceDelta(def, value)
	}

	quantity := req.Quantity
	if quantity < 1 {
		quantity = 1
	}
	if product.Stock > 0 && quantity > product.Stock {
		quantity = product.Stock
	}

	now := time.Now()
	item := models.LineItem{
		ID:              primitive.NewObjectID().Hex(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Thumbnail:       product.Thumbnail,
		UnitPrice:       product.Price,
		OriginalPrice:   product.OriginalPrice,
		Stock:           product.Stock,
		Quantity:        quantity,
		SelectedOptions: selected,
		OptionsPricing:  pricing,
		Options:         product.Options,
		AddedAt:         now,
		ModifiedAt:      now,
	}
	if !common.IsEmptyString(req.Note) {
		item.Attachments = &models.Attachments{Note: req.Note}
	}

	snapshot := cs.store.Upsert(item)
	cs.publish(events.EventCartUpdated, item.ProductID)

	cs.goAsync(func() {
		pctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
		defer cancel()

		serverID, err := cs.sync.AddItem(pctx, cs.identity, item)
		if err != nil {
			util.LogError("cart add sync failed", err)
			cs.publish(events.EventCartError, item.ID)
		} else if serverID != "" {
			cs.store.Rekey(item.ID, serverID)
			cs.publish(events.EventCartUpdated, "confirmed")
		}
		cs.saveMirror(pctx)
	})

	return snapshot, nil
}

// SetQuantity clamps into [1, stock]; zero or less removes the item.
func (cs *CartSession) SetQuantity(itemID string, quantity int) (models.CartSnapshot, error) {
	snapshot, removed, err := cs.store.SetQuantity(itemID, quantity)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	if removed {
		cs.asyncRemove(itemID)
	} else {
		cs.asyncPersist(itemID)
	}
	return snapshot, nil
}

// SetOption validates the value against the item's option definition, then
// merges exactly that one selection. Values are validated here, at
// submission, not per keystroke.
func (cs *CartSession) SetOption(itemID, name, value string) (models.CartSnapshot, error) {
	item, ok := cs.store.Item(itemID)
	if !ok {
		return cs.store.Snapshot(), ErrItemNotFound
	}

	delta := 0.0
	if def, found := cs.resolver.Definition(item.Options, name); found {
		if err := cs.resolver.ValidateValue(def, value); err != nil {
			return cs.store.Snapshot(), err
		}
		delta = cs.resolver.PriceDelta(def, value)
	} else if len(item.Options) > 0 {
		return cs.store.Snapshot(), fmt.Errorf("unknown option %q", name)
	}

	snapshot, err := cs.store.SetOption(itemID, name, value, delta)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	cs.asyncPersist(itemID)
	return snapshot, nil
}

// SetAttachmentNote applies the note locally right away and schedules the
// upstream push after the quiet window. Each keystroke resets the pending
// timer, so only the final value within the window is ever sent.
func (cs *CartSession) SetAttachmentNote(itemID, note string) (models.CartSnapshot, error) {
	if len(note) > common.MAX_NOTE_LENGTH {
		return cs.store.Snapshot(), fmt.Errorf("note must be at most %d characters", common.MAX_NOTE_LENGTH)
	}
	snapshot, err := cs.store.SetAttachmentNote(itemID, note)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	cs.debounceNote(itemID)
	return snapshot, nil
}

// AddAttachmentImages appends uploaded image URLs and persists immediately.
func (cs *CartSession) AddAttachmentImages(itemID string, urls []string) (models.CartSnapshot, error) {
	item, ok := cs.store.Item(itemID)
	if !ok {
		return cs.store.Snapshot(), ErrItemNotFound
	}
	existing := 0
	if item.Attachments != nil {
		existing = len(item.Attachments.Images)
	}
	if existing+len(urls) > common.MAX_ATTACHMENT_IMAGES {
		return cs.store.Snapshot(), fmt.Errorf("at most %d attachment images per item", common.MAX_ATTACHMENT_IMAGES)
	}

	snapshot, err := cs.store.AddAttachmentImages(itemID, urls)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	cs.asyncPersist(itemID)
	return snapshot, nil
}

// RemoveAttachmentImage drops one image by index and persists immediately.
func (cs *CartSession) RemoveAttachmentImage(itemID string, index int) (models.CartSnapshot, error) {
	snapshot, err := cs.store.RemoveAttachmentImage(itemID, index)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	cs.asyncPersist(itemID)
	return snapshot, nil
}

// RemoveItem deletes the item locally and upstream.
func (cs *CartSession) RemoveItem(itemID string) (models.CartSnapshot, error) {
	snapshot, err := cs.store.RemoveItem(itemID)
	if err != nil {
		return snapshot, err
	}
	cs.publish(events.EventCartUpdated, itemID)
	cs.asyncRemove(itemID)
	return snapshot, nil
}

// Clear empties the cart locally and upstream.
func (cs *CartSession) Clear() models.CartSnapshot {
	snapshot := cs.store.Clear()
	cs.publish(events.EventCartCleared, cs.identity.UserID)
	cs.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
		defer cancel()

		var err error
		if cs.identity.Guest {
			err = cs.mirror.Clear(ctx, cs.identity)
		} else {
			err = cs.sync.Clear(ctx, cs.identity)
		}
		if err != nil {
			util.LogError("cart clear sync failed", err)
			cs.publish(events.EventCartError, "clear")
		}
	})
	return snapshot
}

// Flush fires any pending debounced note persists now and waits for all
// in-flight sync calls to settle.
func (cs *CartSession) Flush() {
	cs.mu.Lock()
	pending := make([]string, 0, len(cs.noteTimers))
	for itemID, timer := range cs.noteTimers {
		if timer.Stop() {
			pending = append(pending, itemID)
		}
		delete(cs.noteTimers, itemID)
	}
	cs.mu.Unlock()

	for _, itemID := range pending {
		cs.persistSync(itemID)
	}
	cs.wg.Wait()
}

// Close tears the session down on logout: pending note edits are flushed,
// in-flight persists awaited, further debounce scheduling refused.
func (cs *CartSession) Close() {
	cs.mu.Lock()
	cs.closed = true
	cs.mu.Unlock()
	cs.Flush()
}

func (cs *CartSession) publish(eventType events.EventType, payload string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cs.bus.Publish(ctx, eventType, payload)
}

func (cs *CartSession) goAsync(fn func()) {
	cs.wg.Add(1)
	go func() {
		defer cs.wg.Done()
		fn()
	}()
}

// debounceNote resets the item's pending timer instead of queueing another
// one, so a stale note can never be sent after a newer one.
func (cs *CartSession) debounceNote(itemID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return
	}
	if timer, ok := cs.noteTimers[itemID]; ok {
		timer.Reset(cs.quiet)
		return
	}
	cs.noteTimers[itemID] = time.AfterFunc(cs.quiet, func() {
		cs.mu.Lock()
		delete(cs.noteTimers, itemID)
		cs.mu.Unlock()
		cs.persistSync(itemID)
	})
}

func (cs *CartSession) asyncPersist(itemID string) {
	cs.goAsync(func() { cs.persistSync(itemID) })
}

// persistSync pushes one item's full current state, read from the store at
// send time. Failures are reported and logged; the optimistic local state is
// never rolled back.
func (cs *CartSession) persistSync(itemID string) {
	item, ok := cs.store.Item(itemID)
	if !ok {
		// removed while the persist was pending; the remove call wins
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	defer cancel()

	var err error
	if cs.identity.Guest {
		err = cs.mirror.Save(ctx, cs.identity, cs.store.Snapshot().Items)
	} else {
		err = cs.sync.Persist(ctx, cs.identity, item)
	}
	if err != nil {
		util.LogError("cart persist failed", err)
		cs.publish(events.EventCartError, itemID)
		return
	}
	cs.publish(events.EventCartUpdated, "confirmed")
}

func (cs *CartSession) asyncRemove(itemID string) {
	cs.goAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
		defer cancel()

		var err error
		if cs.identity.Guest {
			err = cs.mirror.Save(ctx, cs.identity, cs.store.Snapshot().Items)
		} else {
			err = cs.sync.Remove(ctx, cs.identity, itemID)
		}
		if err != nil {
			util.LogError("cart remove sync failed", err)
			cs.publish(events.EventCartError, itemID)
		}
	})
}

func (cs *CartSession) saveMirror(ctx context.Context) {
	if !cs.identity.Guest {
		return
	}
	if err := cs.mirror.Save(ctx, cs.identity, cs.store.Snapshot().Items); err != nil {
		util.LogError("guest cart mirror save failed", err)
	}
}

// FirstIncompleteItemID is a convenience for the UI focus hint.
func FirstIncompleteItemID(report CheckoutReport) string {
	if len(report.IncompleteItems) == 0 {
		return ""
	}
	return report.IncompleteItems[0].ItemID
}

// describeIncomplete renders an itemized, user-facing explanation of why
// checkout is blocked.
func describeIncomplete(report CheckoutReport) string {
	parts := make([]string, 0, len(report.IncompleteItems))
	for _, item := range report.IncompleteItems {
		parts = append(parts, fmt.Sprintf("%s: %s", item.ProductName, strings.Join(item.MissingOptionLabels, ", ")))
	}
	return strings.Join(parts, "; ")
}

// DescribeCheckoutBlock is the notification text shown when the gate blocks.
func DescribeCheckoutBlock(report CheckoutReport) string {
	if report.Allowed {
		return ""
	}
	if len(report.IncompleteItems) == 0 {
		return "your cart is empty"
	}
	return "please choose the required options before checkout - " + describeIncomplete(report)
}
