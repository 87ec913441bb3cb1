package services

import (
	"lumicart-io/api/pkg/models"
)

// IncompleteItem names one line item blocked from checkout and the translated
// labels of its unmet required options.
type IncompleteItem struct {
	ItemID              string   `json:"itemId"`
	ProductName         string   `json:"productName"`
	MissingOptionLabels []string `json:"missingOptionLabels"`
}

// CheckoutReport is the checkout gate verdict. When Allowed is false the
// first entry of IncompleteItems is the one the UI should focus.
type CheckoutReport struct {
	Allowed         bool             `json:"allowed"`
	IncompleteItems []IncompleteItem `json:"incompleteItems,omitempty"`
}

// EvaluateCheckout scans every line item for unmet required options. It is a
// pure function of the snapshot passed in, recomputed on every call; nothing
// is cached. An empty cart is never checkout-allowed, regardless of option
// completeness.
func EvaluateCheckout(snapshot models.CartSnapshot, resolver *OptionResolver) CheckoutReport {
	if len(snapshot.Items) == 0 {
		return CheckoutReport{Allowed: false}
	}

	var incomplete []IncompleteItem
	for _, item := range snapshot.Items {
		missing := resolver.MissingOptions(item.Options, item.SelectedOptions)
		if len(missing) == 0 {
			continue
		}
		labels := make([]string, 0, len(missing))
		for _, def := range missing {
			labels = append(labels, resolver.Label(def.Name))
		}
		incomplete = append(incomplete, IncompleteItem{
			ItemID:              item.ID,
			ProductName:         item.ProductName,
			MissingOptionLabels: labels,
		})
	}

	return CheckoutReport{
		Allowed:         len(incomplete) == 0,
		IncompleteItems: incomplete,
	}
}
