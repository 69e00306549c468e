package domain

import "time"

// MenuItem is the catalog projection served by the backend. The client
// treats it as immutable; refreshes come from refetching the catalog.
type MenuItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	PrepTime    int     `json:"prepTime"` // minutes
	Rating      float64 `json:"rating"`
	IsPopular   bool    `json:"isPopular"`
	IsNew       bool    `json:"isNew"`
	IsAvailable bool    `json:"isAvailable"`
	Stock       int     `json:"stock"`
}

// CategoryCount is one row of the category summary endpoint.
type CategoryCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Category is a known menu category. The backend speaks upper-case enum
// values, the UI speaks lower-case keys; the mapping lives here and nowhere
// else.
type Category string

const (
	CategoryAppetizer Category = "appetizer"
	CategoryMain      Category = "main"
	CategoryPizza     Category = "pizza"
	CategoryBurger    Category = "burger"
	CategoryDessert   Category = "dessert"
	CategoryDrink     Category = "drink"
)

// AllCategories lists every known category in display order.
var AllCategories = []Category{
	CategoryAppetizer,
	CategoryMain,
	CategoryPizza,
	CategoryBurger,
	CategoryDessert,
	CategoryDrink,
}

// APIValue returns the backend enum value for the category. The switch is
// exhaustive over the declared constants; unknown values map to "".
func (c Category) APIValue() string {
	switch c {
	case CategoryAppetizer:
		return "APPETIZER"
	case CategoryMain:
		return "MAIN_COURSE"
	case CategoryPizza:
		return "PIZZA"
	case CategoryBurger:
		return "BURGER"
	case CategoryDessert:
		return "DESSERT"
	case CategoryDrink:
		return "BEVERAGE"
	}
	return ""
}

// CategoryFromAPIValue is the inverse of APIValue.
func CategoryFromAPIValue(v string) (Category, bool) {
	for _, c := range AllCategories {
		if c.APIValue() == v {
			return c, true
		}
	}
	return "", false
}

// Known reports whether the category is one of the declared constants.
func (c Category) Known() bool {
	return c.APIValue() != ""
}

// PickupTime is the pickup selection on the checkout form: ASAP or a fixed
// offset from now.
type PickupTime struct {
	ASAP   bool
	Offset time.Duration
}
