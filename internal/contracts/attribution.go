package contracts

// Category classifies an attribution row
type Category string

const (
	CategoryNew   Category = "new"   // position newly opened
	CategorySold  Category = "sold"  // position fully closed
	CategoryBuy   Category = "buy"   // material active addition
	CategorySell  Category = "sell"  // material active reduction
	CategoryDrift Category = "drift" // visible change explained by price movement
)

// Categories lists every category in report order
var Categories = []Category{CategoryNew, CategorySold, CategoryBuy, CategorySell, CategoryDrift}

// AttributionResult is one row of engine output.
// PassiveDrift is derived as TotalDiff - ActiveDiff, so the parts always add up.
type AttributionResult struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	NowWeight    float64  `json:"now_weight"`
	OldWeight    float64  `json:"old_weight"`
	TotalDiff    float64  `json:"total_diff"`
	ActiveDiff   float64  `json:"active_diff"`   // estimated deliberate trading, %p
	PassiveDrift float64  `json:"passive_drift"` // price-driven part, %p
	Category     Category `json:"category"`
}
