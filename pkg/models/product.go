package models

import (
	"time"
)

type OptionType string

const (
	OptionTypeSelect OptionType = "select"
	OptionTypeRadio  OptionType = "radio"
	OptionTypeText   OptionType = "text"
	OptionTypeNumber OptionType = "number"
)

// OptionValue is one allowed choice of a select/radio option, with the price
// delta the choice adds on top of the product's unit price.
type OptionValue struct {
	Value      string  `bson:"value" json:"value"`
	PriceDelta float64 `bson:"price_delta" json:"priceDelta"`
}

// OptionDefinition is a product-declared configurable attribute. Values is
// only meaningful for select/radio types; the length and pattern constraints
// only for text/number types.
type OptionDefinition struct {
	Name      string        `bson:"name" json:"name" validate:"required"`
	Type      OptionType    `bson:"type" json:"type" validate:"oneof=select radio text number"`
	Required  bool          `bson:"required" json:"required"`
	Values    []OptionValue `bson:"values,omitempty" json:"values,omitempty"`
	MinLength int           `bson:"min_length,omitempty" json:"minLength,omitempty"`
	MaxLength int           `bson:"max_length,omitempty" json:"maxLength,omitempty"`
	Pattern   string        `bson:"pattern,omitempty" json:"pattern,omitempty"`
}

// Product is a read-only snapshot of an upstream catalog product. The ID is
// the upstream identifier; the upstream service owns the catalog, we only
// cache snapshots of it.
type Product struct {
	ID            string             `bson:"_id" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Slug          string             `bson:"slug" json:"slug"`
	Thumbnail     string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice float64            `bson:"original_price" json:"originalPrice"`
	Stock         int                `bson:"stock" json:"stock"`
	Options       []OptionDefinition `bson:"options,omitempty" json:"options,omitempty"`
	FetchedAt     time.Time          `bson:"fetched_at" json:"fetchedAt"`
}
