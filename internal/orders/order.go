package orders

import (
	"time"

	"github.com/bistroclub/bistro/internal/cart"
	"github.com/bistroclub/bistro/internal/menu"
	"github.com/bistroclub/bistro/pkg/enums/orderstatus"
	"github.com/google/uuid"
)

// Item types as classified on submission.
const (
	ItemTypeFood  = "Food"
	ItemTypeDrink = "Drink"
)

// Item is a single entry of a submitted order.
type Item struct {
	ID            int                 `json:"id"`
	Name          string              `json:"name"`
	Quantity      int                 `json:"quantity"`
	Price         float64             `json:"price"`
	Modifications []menu.Modification `json:"modifications"`
	Instructions  string              `json:"instructions"`
	TotalPrice    float64             `json:"totalPrice"`
	Type          string              `json:"type"`
}

// Order is the backend-owned aggregate. The client constructs it for
// submission and reads it back from the query API; it never owns the
// authoritative status.
type Order struct {
	ID          string    `json:"id,omitempty"`
	OrderID     string    `json:"orderId"`
	TableID     string    `json:"tableID"`
	Items       []Item    `json:"items"`
	IsCompleted bool      `json:"isCompleted"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// HasFoodItems reports whether any item needs kitchen production.
func (o Order) HasFoodItems() bool {
	for _, item := range o.Items {
		if item.Type == ItemTypeFood {
			return true
		}
	}
	return false
}

// classify maps a menu category to the submitted item type.
func classify(category string) string {
	if category == menu.DrinksCategory {
		return ItemTypeDrink
	}
	return ItemTypeFood
}

// BuildOrder translates cart lines into a submission DTO. The item type is
// looked up from the catalog by menu item id; unknown items default to Food.
func BuildOrder(lines []cart.Line, tableID string, catalog *menu.Catalog) Order {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		itemType := ItemTypeFood
		if catalog != nil {
			if menuItem, err := catalog.Find(line.ItemID); err == nil {
				itemType = classify(menuItem.Category)
			}
		}
		items = append(items, Item{
			ID:            line.ItemID,
			Name:          line.Name,
			Quantity:      line.Quantity,
			Price:         line.Price,
			Modifications: line.Modifications,
			Instructions:  line.Instructions,
			TotalPrice:    line.TotalPrice,
			Type:          itemType,
		})
	}

	return Order{
		OrderID:     uuid.NewString(),
		TableID:     tableID,
		Items:       items,
		IsCompleted: false,
		Status:      orderstatus.Statuses.Pending.Code(),
		Timestamp:   time.Now().UTC(),
	}
}
