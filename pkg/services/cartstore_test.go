package services

import (
	"testing"

	"lumicart-io/api/pkg/models"
)

func testItem(id string) models.LineItem {
	return models.LineItem{
		ID:          id,
		ProductID:   "p-" + id,
		ProductName: "Product " + id,
		UnitPrice:   100,
		Stock:       5,
		Quantity:    1,
		SelectedOptions: map[string]string{
			"a": "1",
			"b": "2",
		},
		OptionsPricing: map[string]float64{},
	}
}

func TestSetOptionPreservesSiblingFields(t *testing.T) {
	store := NewCartStore()
	item := testItem("i1")
	item.Quantity = 3
	item.Attachments = &models.Attachments{Note: "keep me", Images: []string{"img1"}}
	store.Upsert(item)

	snapshot, err := store.SetOption("i1", "a", "9", 0)
	if err != nil {
		t.Fatalf("SetOption returned error: %v", err)
	}

	got := snapshot.Items[0]
	if got.SelectedOptions["a"] != "9" {
		t.Fatalf("expected option a=9, got %q", got.SelectedOptions["a"])
	}
	if got.SelectedOptions["b"] != "2" {
		t.Fatalf("sibling option b was lost, got %q", got.SelectedOptions["b"])
	}
	if got.Quantity != 3 {
		t.Fatalf("quantity changed during option update, got %d", got.Quantity)
	}
	if got.Attachments == nil || got.Attachments.Note != "keep me" || len(got.Attachments.Images) != 1 {
		t.Fatalf("attachments changed during option update: %+v", got.Attachments)
	}
}

func TestSetQuantityClampsToStock(t *testing.T) {
	tests := []struct {
		requested int
		want      int
	}{
		{1, 1},
		{3, 3},
		{5, 5},
		{99, 5},
	}
	for _, tc := range tests {
		store := NewCartStore()
		store.Upsert(testItem("i1"))

		snapshot, removed, err := store.SetQuantity("i1", tc.requested)
		if err != nil {
			t.Fatalf("SetQuantity(%d) returned error: %v", tc.requested, err)
		}
		if removed {
			t.Fatalf("SetQuantity(%d) unexpectedly removed the item", tc.requested)
		}
		if got := snapshot.Items[0].Quantity; got != tc.want {
			t.Fatalf("SetQuantity(%d): expected %d, got %d", tc.requested, tc.want, got)
		}
	}
}

func TestSetQuantityZeroRemovesItem(t *testing.T) {
	for _, q := range []int{0, -1, -10} {
		store := NewCartStore()
		store.Upsert(testItem("i1"))

		snapshot, removed, err := store.SetQuantity("i1", q)
		if err != nil {
			t.Fatalf("SetQuantity(%d) returned error: %v", q, err)
		}
		if !removed {
			t.Fatalf("SetQuantity(%d): expected removal", q)
		}
		if len(snapshot.Items) != 0 {
			t.Fatalf("SetQuantity(%d): item still present", q)
		}
	}
}

func TestSetQuantityUnknownItem(t *testing.T) {
	store := NewCartStore()
	if _, _, err := store.SetQuantity("nope", 2); err != ErrItemNotFound {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestDerivedTotals(t *testing.T) {
	store := NewCartStore()

	itemA := testItem("a")
	itemA.UnitPrice = 100
	itemA.Quantity = 2
	itemA.OptionsPricing = map[string]float64{"engraving": 10}
	store.Upsert(itemA)

	itemB := testItem("b")
	itemB.UnitPrice = 50
	itemB.Quantity = 1
	itemB.SelectedOptions = nil
	itemB.OptionsPricing = nil
	snapshot := store.Upsert(itemB)

	if snapshot.TotalItems != 3 {
		t.Fatalf("expected totalItems=3, got %d", snapshot.TotalItems)
	}
	if snapshot.TotalPrice != 270 {
		t.Fatalf("expected totalPrice=270, got %v", snapshot.TotalPrice)
	}
}

func TestTotalsRecomputedAfterEveryMutation(t *testing.T) {
	store := NewCartStore()
	store.Upsert(testItem("i1"))

	snapshot, _, err := store.SetQuantity("i1", 4)
	if err != nil {
		t.Fatalf("SetQuantity returned error: %v", err)
	}
	if snapshot.TotalItems != 4 || snapshot.TotalPrice != 400 {
		t.Fatalf("expected 4 items / 400, got %d / %v", snapshot.TotalItems, snapshot.TotalPrice)
	}

	snapshot, err = store.SetOption("i1", "engraving", "hello", 25)
	if err != nil {
		t.Fatalf("SetOption returned error: %v", err)
	}
	if snapshot.TotalPrice != 500 {
		t.Fatalf("expected option delta in total, got %v", snapshot.TotalPrice)
	}
}

func TestAttachmentOperationsMerge(t *testing.T) {
	store := NewCartStore()
	store.Upsert(testItem("i1"))

	if _, err := store.SetAttachmentNote("i1", "engrave with care"); err != nil {
		t.Fatalf("SetAttachmentNote returned error: %v", err)
	}
	snapshot, err := store.AddAttachmentImages("i1", []string{"u1", "u2"})
	if err != nil {
		t.Fatalf("AddAttachmentImages returned error: %v", err)
	}

	got := snapshot.Items[0]
	if got.Attachments.Note != "engrave with care" {
		t.Fatalf("note lost after adding images: %+v", got.Attachments)
	}
	if len(got.Attachments.Images) != 2 {
		t.Fatalf("expected 2 images, got %v", got.Attachments.Images)
	}
	if got.SelectedOptions["a"] != "1" {
		t.Fatal("options lost during attachment update")
	}

	snapshot, err = store.RemoveAttachmentImage("i1", 0)
	if err != nil {
		t.Fatalf("RemoveAttachmentImage returned error: %v", err)
	}
	images := snapshot.Items[0].Attachments.Images
	if len(images) != 1 || images[0] != "u2" {
		t.Fatalf("expected [u2] after removal, got %v", images)
	}

	if _, err = store.RemoveAttachmentImage("i1", 7); err != ErrItemNotFound {
		t.Fatalf("expected error for out-of-range index, got %v", err)
	}
}

func TestReplaceAndClear(t *testing.T) {
	store := NewCartStore()
	store.Upsert(testItem("old"))

	snapshot := store.Replace([]models.LineItem{testItem("n1"), testItem("n2")})
	if len(snapshot.Items) != 2 {
		t.Fatalf("expected 2 items after replace, got %d", len(snapshot.Items))
	}
	if _, ok := store.Item("old"); ok {
		t.Fatal("old item survived a wholesale replace")
	}

	snapshot = store.Clear()
	if len(snapshot.Items) != 0 || snapshot.TotalItems != 0 || snapshot.TotalPrice != 0 {
		t.Fatalf("expected empty snapshot after clear, got %+v", snapshot)
	}
}

func TestRekeySwapsServerAssignedID(t *testing.T) {
	store := NewCartStore()
	store.Upsert(testItem("tmp"))

	snapshot := store.Rekey("tmp", "srv-1")
	if snapshot.Items[0].ID != "srv-1" {
		t.Fatalf("expected rekeyed id srv-1, got %q", snapshot.Items[0].ID)
	}
	if _, ok := store.Item("tmp"); ok {
		t.Fatal("temporary id still resolves after rekey")
	}
}

func TestSnapshotIsolatedFromStore(t *testing.T) {
	store := NewCartStore()
	store.Upsert(testItem("i1"))

	snapshot := store.Snapshot()
	snapshot.Items[0].SelectedOptions["a"] = "mutated"

	fresh, _ := store.Item("i1")
	if fresh.SelectedOptions["a"] != "1" {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}
