package models

import (
	"time"
)

// Attachments is the free-form payload a customer can attach to one line
// item: uploaded image URLs and a free-text note.
type Attachments struct {
	Images []string `bson:"images,omitempty" json:"images,omitempty"`
	Note   string   `bson:"note,omitempty" json:"note,omitempty"`
}

// LineItem is one product entry in the cart. The product fields are a
// snapshot taken when the item was added; the upstream service stays
// authoritative for price and stock. SelectedOptions maps option name to the
// chosen value, OptionsPricing mirrors the per-option price deltas cached at
// selection time.
type LineItem struct {
	ID              string             `bson:"_id" json:"id"`
	ProductID       string             `bson:"product_id" json:"productId"`
	ProductName     string             `bson:"product_name" json:"productName"`
	Thumbnail       string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	UnitPrice       float64            `bson:"unit_price" json:"unitPrice"`
	OriginalPrice   float64            `bson:"original_price" json:"originalPrice"`
	Stock           int                `bson:"stock" json:"stock"`
	Quantity        int                `bson:"quantity" json:"quantity" validate:"gte=1"`
	SelectedOptions map[string]string  `bson:"selected_options,omitempty" json:"selectedOptions,omitempty"`
	OptionsPricing  map[string]float64 `bson:"options_pricing,omitempty" json:"optionsPricing,omitempty"`
	Attachments     *Attachments       `bson:"attachments,omitempty" json:"attachments,omitempty"`
	Options         []OptionDefinition `bson:"options,omitempty" json:"options,omitempty"`
	AddedAt         time.Time          `bson:"added_at" json:"addedAt"`
	ModifiedAt      time.Time          `bson:"modified_at" json:"modifiedAt"`
}

// Clone returns a deep copy. Store snapshots hand out clones so callers can
// never mutate shared map state behind the store's back.
func (li LineItem) Clone() LineItem {
	out := li
	if li.SelectedOptions != nil {
		out.SelectedOptions = make(map[string]string, len(li.SelectedOptions))
		for k, v := range li.SelectedOptions {
			out.SelectedOptions[k] = v
		}
	}
	if li.OptionsPricing != nil {
		out.OptionsPricing = make(map[string]float64, len(li.OptionsPricing))
		for k, v := range li.OptionsPricing {
			out.OptionsPricing[k] = v
		}
	}
	if li.Attachments != nil {
		att := Attachments{Note: li.Attachments.Note}
		att.Images = append([]string(nil), li.Attachments.Images...)
		out.Attachments = &att
	}
	out.Options = append([]OptionDefinition(nil), li.Options...)
	return out
}

// OptionsDelta sums the cached per-option price deltas.
func (li LineItem) OptionsDelta() float64 {
	var delta float64
	for _, d := range li.OptionsPricing {
		delta += d
	}
	return delta
}

// LinePrice is (unit price + option deltas) * quantity.
func (li LineItem) LinePrice() float64 {
	return (li.UnitPrice + li.OptionsDelta()) * float64(li.Quantity)
}

// CartSnapshot is an immutable view of the whole cart with its derived
// aggregates. Totals are computed, never stored.
type CartSnapshot struct {
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	TotalPrice float64    `json:"totalPrice"`
}

// LineItemPatch is the wire body for a full per-item replacement. Every
// mutable field is always populated from current local state, even when only
// one of them logically changed, because the upstream contract replaces the
// whole item.
type LineItemPatch struct {
	Quantity        int                `json:"quantity"`
	SelectedOptions map[string]string  `json:"selectedOptions"`
	OptionsPricing  map[string]float64 `json:"optionsPricing"`
	Attachments     *Attachments       `json:"attachments"`
}

// PatchFrom builds the full-replacement payload from an item's current state.
func PatchFrom(li LineItem) LineItemPatch {
	selected := li.SelectedOptions
	if selected == nil {
		selected = map[string]string{}
	}
	pricing := li.OptionsPricing
	if pricing == nil {
		pricing = map[string]float64{}
	}
	return LineItemPatch{
		Quantity:        li.Quantity,
		SelectedOptions: selected,
		OptionsPricing:  pricing,
		Attachments:     li.Attachments,
	}
}

// GuestCartItemRequest is the guest add-to-cart shape. Guest carts use a
// different endpoint and payload than authenticated carts and the two are
// never merged here.
type GuestCartItemRequest struct {
	UserID      string  `json:"userId"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}
