package menu

import (
	"fmt"
	"sort"
	"strings"
)

// Item represents a dish or drink offered on the menu. The catalog is a
// read-only external data source; items never change at runtime.
type Item struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Description string  `json:"description"`
}

// Modification is an optional extra selectable per ordered line. The list is
// global: every modification is offered on every item regardless of category.
type Modification struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DrinksCategory marks items classified as "Drink" on order submission.
const DrinksCategory = "Drinks"

var items = []Item{
	{ID: 1, Name: "Pasta Puttanesca", Price: 15.49, Image: "/images/pasta-puttanesca.JPG", Category: "Pasta", Description: "Tomato, olives, anchovies, capers, garlic"},
	{ID: 2, Name: "Steak & Avocado Bowl", Price: 18.15, Image: "/images/steak-avocado.jpeg", Category: "Main", Description: "Skirt steak, chimichurri, couscous, avocado"},
	{ID: 3, Name: "Chutney Burger", Price: 17.99, Image: "/images/chutney-burger.jpg", Category: "Main", Description: "Angus beef patty, chutney, tomato, arugula"},
	{ID: 4, Name: "Spaghetti all'Assassina", Price: 15.45, Image: "/images/spaghetti-assassina.jpg", Category: "Pasta", Description: "Spicy tomato sauce, garlic, chili flakes"},
	{ID: 5, Name: "Grilled Chicken Salad", Price: 14.99, Image: "/images/chicken-salad.jpg", Category: "Main", Description: "Ginger ale, frozen"},
	{ID: 6, Name: "Mediterranean Salad", Price: 13.75, Image: "/images/mediterranean-salad.jpg", Category: "Main", Description: "Mixed greens, feta, olives, cucumber, tomato"},
}

var modifications = []Modification{
	{ID: 1, Name: "Extra Cheese", Price: 0.5},
	{ID: 2, Name: "Spicy Sauce", Price: 0.5},
	{ID: 3, Name: "Gluten-Free Option", Price: 0.5},
}

// Catalog exposes the static menu.
type Catalog struct{}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Items returns every menu item.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Find returns the item with the given id.
func (c *Catalog) Find(id int) (Item, error) {
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("menu item %d not found", id)
}

// Categories returns the distinct categories in display order, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range items {
		if !seen[item.Category] {
			seen[item.Category] = true
			out = append(out, item.Category)
		}
	}
	sort.Strings(out)
	return out
}

// Filter returns items matching the category ("All" or empty matches every
// category) and a case-insensitive name query.
func (c *Catalog) Filter(category, query string) []Item {
	query = strings.ToLower(query)
	var out []Item
	for _, item := range items {
		if category != "" && category != "All" && item.Category != category {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(item.Name), query) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Modifications returns the global modification list.
func (c *Catalog) Modifications() []Modification {
	out := make([]Modification, len(modifications))
	copy(out, modifications)
	return out
}

// FindModification returns the modification with the given id.
func (c *Catalog) FindModification(id int) (Modification, error) {
	for _, mod := range modifications {
		if mod.ID == id {
			return mod, nil
		}
	}
	return Modification{}, fmt.Errorf("modification %d not found", id)
}
