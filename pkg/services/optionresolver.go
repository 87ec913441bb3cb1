package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lumicart-io/api/pkg/models"
)

// optionLabels translates option keys to human labels for storefront display.
// Unknown keys fall back to the raw key.
var optionLabels = map[string]string{
	"size":            "Size",
	"color":           "Color",
	"material":        "Material",
	"style":           "Style",
	"scent":           "Scent",
	"engraving":       "Engraving",
	"embroidery_text": "Embroidery text",
	"gift_wrap":       "Gift wrap",
	"gift_message":    "Gift message",
}

// Choice is one renderable option value with its price delta.
type Choice struct {
	Value      string  `json:"value"`
	PriceDelta float64 `json:"priceDelta"`
}

// OptionResolver resolves a product's declared option definitions against a
// line item's current selection: which required options are still unmet,
// which choices are available, and what a given value costs.
type OptionResolver struct {
	labels map[string]string
}

func NewOptionResolver() *OptionResolver {
	return &OptionResolver{labels: optionLabels}
}

// Label translates an option key to its display label.
func (r *OptionResolver) Label(key string) string {
	if label, ok := r.labels[key]; ok {
		return label
	}
	return key
}

// MissingOptions returns the definitions that are required but have no
// non-empty selection yet. A product with no declared options always comes
// back complete.
func (r *OptionResolver) MissingOptions(defs []models.OptionDefinition, selected map[string]string) []models.OptionDefinition {
	var missing []models.OptionDefinition
	for _, def := range defs {
		if !def.Required {
			continue
		}
		if strings.TrimSpace(selected[def.Name]) == "" {
			missing = append(missing, def)
		}
	}
	return missing
}

// Choices returns the renderable value set for one definition.
func (r *OptionResolver) Choices(def models.OptionDefinition) []Choice {
	choices := make([]Choice, 0, len(def.Values))
	for _, v := range def.Values {
		choices = append(choices, Choice{Value: v.Value, PriceDelta: v.PriceDelta})
	}
	return choices
}

// PriceDelta looks up the delta a chosen value adds. Free-form types carry no
// per-value pricing.
func (r *OptionResolver) PriceDelta(def models.OptionDefinition, value string) float64 {
	for _, v := range def.Values {
		if v.Value == value {
			return v.PriceDelta
		}
	}
	return 0
}

// Definition finds a definition by option name.
func (r *OptionResolver) Definition(defs []models.OptionDefinition, name string) (models.OptionDefinition, bool) {
	for _, def := range defs {
		if def.Name == name {
			return def, true
		}
	}
	return models.OptionDefinition{}, false
}

// ValidateValue checks one submitted value against its definition. This runs
// at submission time, not on every keystroke, so a half-typed value never
// flashes an error.
func (r *OptionResolver) ValidateValue(def models.OptionDefinition, value string) error {
	switch def.Type {
	case models.OptionTypeSelect, models.OptionTypeRadio:
		for _, v := range def.Values {
			if v.Value == value {
				return nil
			}
		}
		return fmt.Errorf("%q is not an allowed value for %s", value, r.Label(def.Name))
	case models.OptionTypeNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("%s must be a number", r.Label(def.Name))
		}
	case models.OptionTypeText:
		// fall through to shared constraints
	}

	if def.MinLength > 0 && len(value) < def.MinLength {
		return fmt.Errorf("%s must be at least %d characters", r.Label(def.Name), def.MinLength)
	}
	if def.MaxLength > 0 && len(value) > def.MaxLength {
		return fmt.Errorf("%s must be at most %d characters", r.Label(def.Name), def.MaxLength)
	}
	if def.Pattern != "" {
		re, err := regexp.Compile(def.Pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern for %s", r.Label(def.Name))
		}
		if !re.MatchString(value) {
			return fmt.Errorf("%s has an invalid format", r.Label(def.Name))
		}
	}
	return nil
}
