package core

// DefaultCategories returns the seed set used when no state has been persisted yet.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Shopping", Color: "#FF6B6B", Icon: "ShoppingCart"},
		{ID: "2", Name: "Housing", Color: "#4ECDC4", Icon: "Home"},
		{ID: "3", Name: "Transport", Color: "#45B7D1", Icon: "Car"},
		{ID: "4", Name: "Food", Color: "#96CEB4", Icon: "Utensils"},
		{ID: "5", Name: "Travel", Color: "#FFEEAD", Icon: "Plane"},
		{ID: "6", Name: "Healthcare", Color: "#D4A5A5", Icon: "Heart"},
		{ID: "7", Name: "Internet", Color: "#9B97B2", Icon: "Wifi"},
		{ID: "8", Name: "Phone", Color: "#A8E6CF", Icon: "Smartphone"},
	}
}
