package cart

import "testing"

func TestAddProductStacksQuantity(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeProduct, ID: "jersey", Price: 4_500, Quantity: 1})
	c.Add(Item{Type: TypeProduct, ID: "jersey", Price: 4_500, Quantity: 2})

	if len(c.Items) != 1 {
		t.Fatalf("expected a single row, got %d", len(c.Items))
	}
	if c.Items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", c.Items[0].Quantity)
	}
	if c.Subtotal() != 13_500 {
		t.Fatalf("expected subtotal 13500, got %d", c.Subtotal())
	}
}

func TestAddDuplicateCourseIsNoOp(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeCourse, ID: "dribbling-101", Price: 9_900, Quantity: 1})
	changed := c.Add(Item{Type: TypeCourse, ID: "dribbling-101", Price: 9_900, Quantity: 1})

	if changed {
		t.Fatal("expected duplicate course add to be a no-op")
	}
	if len(c.Items) != 1 || c.Items[0].Quantity != 1 {
		t.Fatalf("expected exactly one entry with quantity 1, got %+v", c.Items)
	}
}

func TestAddDuplicateDonationIsNoOp(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeDonation, ID: "general-fund", Price: 2_000, Quantity: 1})
	c.Add(Item{Type: TypeDonation, ID: "general-fund", Price: 5_000, Quantity: 1})

	if len(c.Items) != 1 || c.Items[0].Price != 2_000 {
		t.Fatalf("expected existing donation entry to win, got %+v", c.Items)
	}
}

func TestSameIDDifferentTypesCoexist(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeCourse, ID: "abc", Price: 1_000, Quantity: 1})
	c.Add(Item{Type: TypeProduct, ID: "abc", Price: 2_000, Quantity: 1})

	if len(c.Items) != 2 {
		t.Fatalf("expected two rows for distinct (id, type) pairs, got %d", len(c.Items))
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeProduct, ID: "jersey", Price: 4_500, Quantity: 2})
	c.Add(Item{Type: TypeProduct, ID: "socks", Price: 900, Quantity: 1})

	if !c.UpdateQuantity("jersey", TypeProduct, 0) {
		t.Fatal("expected update to find the item")
	}
	if len(c.Items) != 1 || c.Items[0].ID != "socks" {
		t.Fatalf("expected jersey removed, got %+v", c.Items)
	}
	if c.ItemCount() != 1 {
		t.Fatalf("expected item count 1 after removal, got %d", c.ItemCount())
	}
}

func TestUpdateQuantitySets(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeProduct, ID: "jersey", Price: 4_500, Quantity: 1})
	c.UpdateQuantity("jersey", TypeProduct, 5)

	if c.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", c.ItemCount())
	}
	if c.Subtotal() != 22_500 {
		t.Fatalf("expected subtotal 22500, got %d", c.Subtotal())
	}
}

func TestAddNormalisesQuantityBelowOne(t *testing.T) {
	var c Cart
	c.Add(Item{Type: TypeProduct, ID: "jersey", Price: 4_500, Quantity: 0})
	if c.ItemCount() != 1 {
		t.Fatalf("expected quantity normalised to 1, got %d", c.ItemCount())
	}
}

func TestRemoveUnknownItem(t *testing.T) {
	var c Cart
	if c.Remove("nope", TypeProduct) {
		t.Fatal("expected remove of unknown item to report false")
	}
}
