package models

import "github.com/shopspring/decimal"

// CategoryType represents the kind of spending a budget category covers
type CategoryType string

const (
	CategoryTypeTransportation CategoryType = "transportation"
	CategoryTypeAccommodation  CategoryType = "accommodation"
	CategoryTypeFood           CategoryType = "food"
	CategoryTypeAttractions    CategoryType = "attractions"
	CategoryTypeShopping       CategoryType = "shopping"
	CategoryTypeInsurance      CategoryType = "insurance"
	CategoryTypeMiscellaneous  CategoryType = "miscellaneous"
	CategoryTypeExtra          CategoryType = "extra"
)

var categoryLabels = map[CategoryType]string{
	CategoryTypeTransportation: "Transportation",
	CategoryTypeAccommodation:  "Accommodation",
	CategoryTypeFood:           "Food",
	CategoryTypeAttractions:    "Attractions",
	CategoryTypeShopping:       "Shopping",
	CategoryTypeInsurance:      "Insurance",
	CategoryTypeMiscellaneous:  "Miscellaneous",
	CategoryTypeExtra:          "Extra",
}

// CategoryTypes lists every category type in display order.
var CategoryTypes = []CategoryType{
	CategoryTypeTransportation,
	CategoryTypeAccommodation,
	CategoryTypeFood,
	CategoryTypeAttractions,
	CategoryTypeShopping,
	CategoryTypeInsurance,
	CategoryTypeMiscellaneous,
	CategoryTypeExtra,
}

// IsValid reports whether t is one of the known category types.
func (t CategoryType) IsValid() bool {
	_, ok := categoryLabels[t]
	return ok
}

// Label returns the human-readable name of the category type.
func (t CategoryType) Label() string {
	if label, ok := categoryLabels[t]; ok {
		return label
	}
	return string(t)
}

// BudgetCategory is an allocation slice embedded in a Budget.
// SpentAmount is derived from the ACTUAL expenses posted to the category
// and is only ever written by the ledger.
type BudgetCategory struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID    string          `gorm:"type:uuid;primaryKey" json:"-"`
	Position    int             `gorm:"not null;default:0" json:"-"`
	Type        CategoryType    `gorm:"not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	SpentAmount decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"spent_amount"`
	Note        string          `json:"note"`
}
