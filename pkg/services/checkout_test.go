package services

import (
	"testing"

	"lumicart-io/api/pkg/models"
)

func snapshotWith(items ...models.LineItem) models.CartSnapshot {
	snapshot := models.CartSnapshot{Items: items}
	for _, item := range items {
		snapshot.TotalItems += item.Quantity
	}
	return snapshot
}

func TestCheckoutBlockedOnMissingRequiredOption(t *testing.T) {
	resolver := NewOptionResolver()
	item := testItem("i1")
	item.SelectedOptions = map[string]string{}
	item.Options = []models.OptionDefinition{
		{Name: "size", Type: models.OptionTypeSelect, Required: true, Values: []models.OptionValue{{Value: "M"}, {Value: "L"}}},
	}

	report := EvaluateCheckout(snapshotWith(item), resolver)
	if report.Allowed {
		t.Fatal("expected checkout to be blocked")
	}
	if len(report.IncompleteItems) != 1 {
		t.Fatalf("expected 1 incomplete item, got %d", len(report.IncompleteItems))
	}
	incomplete := report.IncompleteItems[0]
	if incomplete.ItemID != "i1" {
		t.Fatalf("wrong incomplete item: %q", incomplete.ItemID)
	}
	if len(incomplete.MissingOptionLabels) != 1 || incomplete.MissingOptionLabels[0] != "Size" {
		t.Fatalf("expected translated label Size, got %v", incomplete.MissingOptionLabels)
	}
}

func TestCheckoutAllowedOnceOptionSelected(t *testing.T) {
	resolver := NewOptionResolver()
	item := testItem("i1")
	item.SelectedOptions = map[string]string{"size": "M"}
	item.Options = []models.OptionDefinition{
		{Name: "size", Type: models.OptionTypeSelect, Required: true, Values: []models.OptionValue{{Value: "M"}}},
	}

	report := EvaluateCheckout(snapshotWith(item), resolver)
	if !report.Allowed {
		t.Fatalf("expected checkout allowed, got %+v", report)
	}
	if len(report.IncompleteItems) != 0 {
		t.Fatalf("expected no incomplete items, got %v", report.IncompleteItems)
	}
}

func TestEmptyCartNeverCheckoutAllowed(t *testing.T) {
	report := EvaluateCheckout(models.CartSnapshot{}, NewOptionResolver())
	if report.Allowed {
		t.Fatal("empty cart must not be checkout-allowed")
	}
}

func TestProductWithoutOptionsAlwaysComplete(t *testing.T) {
	resolver := NewOptionResolver()
	item := testItem("i1")
	item.Options = nil
	item.SelectedOptions = map[string]string{"stray": "value"}

	report := EvaluateCheckout(snapshotWith(item), resolver)
	if !report.Allowed {
		t.Fatalf("item without declared options must always be complete: %+v", report)
	}
}

func TestWhitespaceSelectionCountsAsMissing(t *testing.T) {
	resolver := NewOptionResolver()
	item := testItem("i1")
	item.SelectedOptions = map[string]string{"size": "   "}
	item.Options = []models.OptionDefinition{
		{Name: "size", Type: models.OptionTypeSelect, Required: true},
	}

	report := EvaluateCheckout(snapshotWith(item), resolver)
	if report.Allowed {
		t.Fatal("whitespace-only selection must not satisfy a required option")
	}
}

func TestCheckoutReportListsEveryIncompleteItem(t *testing.T) {
	resolver := NewOptionResolver()
	required := []models.OptionDefinition{
		{Name: "size", Type: models.OptionTypeSelect, Required: true},
		{Name: "color", Type: models.OptionTypeRadio, Required: true},
	}

	first := testItem("i1")
	first.SelectedOptions = map[string]string{"size": "M"}
	first.Options = required

	second := testItem("i2")
	second.SelectedOptions = map[string]string{}
	second.Options = required

	complete := testItem("i3")
	complete.Options = nil

	report := EvaluateCheckout(snapshotWith(first, second, complete), resolver)
	if report.Allowed {
		t.Fatal("expected block with two incomplete items")
	}
	if len(report.IncompleteItems) != 2 {
		t.Fatalf("expected 2 incomplete items, got %d", len(report.IncompleteItems))
	}
	if got := report.IncompleteItems[0].MissingOptionLabels; len(got) != 1 || got[0] != "Color" {
		t.Fatalf("first item should only miss Color, got %v", got)
	}
	if got := report.IncompleteItems[1].MissingOptionLabels; len(got) != 2 {
		t.Fatalf("second item should miss both options, got %v", got)
	}
	if FirstIncompleteItemID(report) != "i1" {
		t.Fatalf("expected first incomplete id i1, got %q", FirstIncompleteItemID(report))
	}
}

func TestDescribeCheckoutBlock(t *testing.T) {
	if msg := DescribeCheckoutBlock(CheckoutReport{Allowed: true}); msg != "" {
		t.Fatalf("allowed report should produce no message, got %q", msg)
	}
	if msg := DescribeCheckoutBlock(CheckoutReport{}); msg != "your cart is empty" {
		t.Fatalf("unexpected empty-cart message: %q", msg)
	}

	report := CheckoutReport{IncompleteItems: []IncompleteItem{
		{ItemID: "i1", ProductName: "Mug", MissingOptionLabels: []string{"Size", "Color"}},
	}}
	msg := DescribeCheckoutBlock(report)
	if msg == "" {
		t.Fatal("expected an itemized message")
	}
	want := "please choose the required options before checkout - Mug: Size, Color"
	if msg != want {
		t.Fatalf("expected %q, got %q", want, msg)
	}
}
