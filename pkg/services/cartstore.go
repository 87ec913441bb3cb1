package services

import (
	"sync"
	"time"

	"lumicart-io/api/pkg/models"
)

// CartStore is the in-memory line item collection for one cart session. It is
// the single owner of cart state: every mutation goes through one of its
// operations, applies synchronously, and returns the new snapshot.
// Persistence never blocks a local update; the session layer pushes the
// result upstream separately.
//
// Per-field operations merge into the existing item instead of replacing it,
// so changing one option can never drop a sibling option, the quantity or the
// attachments.
type CartStore struct {
	mu    sync.Mutex
	items map[string]*models.LineItem
	order []string
}

func NewCartStore() *CartStore {
	return &CartStore{
		items: make(map[string]*models.LineItem),
	}
}

// Replace swaps the whole collection for the server's authoritative cart.
func (s *CartStore) Replace(items []models.LineItem) models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*models.LineItem, len(items))
	s.order = s.order[:0]
	for i := range items {
		item := items[i].Clone()
		s.items[item.ID] = &item
		s.order = append(s.order, item.ID)
	}
	return s.snapshotLocked()
}

// Upsert adds a new line item or refreshes an existing one wholesale.
func (s *CartStore) Upsert(item models.LineItem) models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := item.Clone()
	if _, ok := s.items[clone.ID]; !ok {
		s.order = append(s.order, clone.ID)
	}
	s.items[clone.ID] = &clone
	return s.snapshotLocked()
}

// Rekey swaps a locally assigned item id for the server-assigned one once
// the upstream create call comes back.
func (s *CartStore) Rekey(oldID, newID string) models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[oldID]
	if !ok || oldID == newID {
		return s.snapshotLocked()
	}
	delete(s.items, oldID)
	item.ID = newID
	s.items[newID] = item
	for i, id := range s.order {
		if id == oldID {
			s.order[i] = newID
			break
		}
	}
	return s.snapshotLocked()
}

// Item returns a clone of one line item, read at call time. The sync layer
// uses this to send the freshest state, never a stale closure.
func (s *CartStore) Item(itemID string) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return models.LineItem{}, false
	}
	return item.Clone(), true
}

// SetQuantity clamps the quantity to [1, stock]. A requested quantity of zero
// or less is a removal, not a clamp to 1. The removed flag tells the caller
// which persistence call to issue.
func (s *CartStore) SetQuantity(itemID string, quantity int) (models.CartSnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.snapshotLocked(), false, ErrItemNotFound
	}

	if quantity <= 0 {
		s.removeLocked(itemID)
		return s.snapshotLocked(), true, nil
	}

	if item.Stock > 0 && quantity > item.Stock {
		quantity = item.Stock
	}
	if quantity < 1 {
		quantity = 1
	}

	item.Quantity = quantity
	item.ModifiedAt = time.Now()
	return s.snapshotLocked(), false, nil
}

// SetOption replaces exactly one selected option and its cached price delta.
// All sibling options, the quantity and the attachments stay untouched.
func (s *CartStore) SetOption(itemID, name, value string, priceDelta float64) (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.snapshotLocked(), ErrItemNotFound
	}

	if item.SelectedOptions == nil {
		item.SelectedOptions = make(map[string]string)
	}
	if item.OptionsPricing == nil {
		item.OptionsPricing = make(map[string]float64)
	}
	item.SelectedOptions[name] = value
	item.OptionsPricing[name] = priceDelta
	item.ModifiedAt = time.Now()
	return s.snapshotLocked(), nil
}

// SetAttachmentNote replaces only the free-text note.
func (s *CartStore) SetAttachmentNote(itemID, note string) (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.snapshotLocked(), ErrItemNotFound
	}

	if item.Attachments == nil {
		item.Attachments = &models.Attachments{}
	}
	item.Attachments.Note = note
	item.ModifiedAt = time.Now()
	return s.snapshotLocked(), nil
}

// AddAttachmentImages appends uploaded image URLs.
func (s *CartStore) AddAttachmentImages(itemID string, urls []string) (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.snapshotLocked(), ErrItemNotFound
	}

	if item.Attachments == nil {
		item.Attachments = &models.Attachments{}
	}
	item.Attachments.Images = append(item.Attachments.Images, urls...)
	item.ModifiedAt = time.Now()
	return s.snapshotLocked(), nil
}

// RemoveAttachmentImage drops one image by index.
func (s *CartStore) RemoveAttachmentImage(itemID string, index int) (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return s.snapshotLocked(), ErrItemNotFound
	}

	if item.Attachments == nil || index < 0 || index >= len(item.Attachments.Images) {
		return s.snapshotLocked(), ErrItemNotFound
	}
	item.Attachments.Images = append(item.Attachments.Images[:index], item.Attachments.Images[index+1:]...)
	item.ModifiedAt = time.Now()
	return s.snapshotLocked(), nil
}

// RemoveItem deletes one line item.
func (s *CartStore) RemoveItem(itemID string) (models.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[itemID]; !ok {
		return s.snapshotLocked(), ErrItemNotFound
	}
	s.removeLocked(itemID)
	return s.snapshotLocked(), nil
}

// Clear empties the cart.
func (s *CartStore) Clear() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*models.LineItem)
	s.order = s.order[:0]
	return s.snapshotLocked()
}

// Snapshot returns the current cart with its derived aggregates.
func (s *CartStore) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) removeLocked(itemID string) {
	delete(s.items, itemID)
	for i, id := range s.order {
		if id == itemID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *CartStore) snapshotLocked() models.CartSnapshot {
	snapshot := models.CartSnapshot{
		Items: make([]models.LineItem, 0, len(s.order)),
	}
	for _, id := range s.order {
		item, ok := s.items[id]
		if !ok {
			continue
		}
		clone := item.Clone()
		snapshot.Items = append(snapshot.Items, clone)
		snapshot.TotalItems += clone.Quantity
		snapshot.TotalPrice += clone.LinePrice()
	}
	return snapshot
}
