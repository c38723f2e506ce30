package stock

import "time"

// Stock is one quantity of an item a customer holds in a province. More
// than one row may exist for the same (customer, item, province) tuple
// depending on history; totals must sum rows.
type Stock struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	ItemType   string `json:"item_type"`
	Quantity   int    `json:"quantity"`
	Unit       string `json:"unit,omitempty"`
	// ProvinceID and CurrentLocation both describe where the stock sits;
	// older rows populate only one of them.
	ProvinceID      int64     `json:"province_id,omitempty"`
	CurrentLocation int64     `json:"current_location,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// LocatedIn reports whether the row sits in the given province.
func (s Stock) LocatedIn(provinceID int64) bool {
	return s.ProvinceID == provinceID || s.CurrentLocation == provinceID
}
