package enums

import "fmt"

// Category identifies one archive event stream exported to its own CSV file.
type Category string

const (
	CategoryShopper  Category = "shopper"
	CategoryItem     Category = "item"
	CategoryRequests Category = "requests"
	CategoryFeedback Category = "feedback"
)

var validCategories = []Category{
	CategoryShopper,
	CategoryItem,
	CategoryRequests,
	CategoryFeedback,
}

type categorySchema struct {
	endpoint string
	file     string
	columns  []string
	excluded []string
}

var categorySchemas = map[Category]categorySchema{
	CategoryShopper: {
		endpoint: "/v2/archive/shopper",
		file:     "shopper.csv",
		columns: []string{
			"id", "name", "storeId", "createdAt", "itemCount", "deletedAt", "dwellMilliseconds",
			"shopperId", "type", "associateId", "changingRoomId",
		},
		excluded: []string{"phoneNumber", "engaged"},
	},
	CategoryItem: {
		endpoint: "/v2/archive/shopper_item",
		file:     "item.csv",
		columns: []string{
			"id", "shopperArchiveId", "sku", "price", "storeId", "createdAt", "itemId",
			"productId", "serial", "title", "size", "category", "color", "epc",
			FieldPureURI, FieldTagURI,
		},
		excluded: []string{"state"},
	},
	CategoryRequests: {
		endpoint: "/v2/archive/request",
		file:     "requests.csv",
		columns: []string{
			"id", "status", "createdBy", "storeId", "changingRoomId", "assignedUserId", "sku",
			"createdAt", "assignedAt", "completedAt", "size", "color", "price", "timeTaken",
			"type", "itemId", "productId", "originalRequestId", "title", "category",
		},
	},
	CategoryFeedback: {
		endpoint: "/v2/archive/feedback",
		file:     "feedback.csv",
		columns:  []string{"id", "shopperName", "rating", "storeId", "deviceRating", "createdAt"},
		excluded: []string{"planningPurchase", "email", "dwellMilliseconds", "message"},
	},
}

// Derived item fields filled from the decoded EPC tag.
const (
	FieldEPC     = "epc"
	FieldPureURI = "pure_uri"
	FieldTagURI  = "tag_uri"
)

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	for _, candidate := range validCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// Endpoint is the archive path appended to the region base URL.
func (c Category) Endpoint() string {
	return categorySchemas[c].endpoint
}

// FileName is the CSV file the category is written to.
func (c Category) FileName() string {
	return categorySchemas[c].file
}

// Columns returns a copy of the canonical, ordered output columns.
func (c Category) Columns() []string {
	return cloneStrings(categorySchemas[c].columns)
}

// Excluded returns a copy of the fields stripped before output.
func (c Category) Excluded() []string {
	return cloneStrings(categorySchemas[c].excluded)
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	for _, candidate := range validCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid category %q", value)
}

// Categories returns every category in menu order.
func Categories() []Category {
	out := make([]Category, len(validCategories))
	copy(out, validCategories)
	return out
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
