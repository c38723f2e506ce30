package stock

// Availability is the result of a pre-submission stock check.
type Availability struct {
	OK        bool
	Available int
}

// Check determines whether requested units of itemType are available in
// the given province. The available figure is the first matching row's
// quantity; the check fails when no row matches or the request exceeds it.
// The server re-validates authoritatively on submission.
func Check(stocks []Stock, itemType string, provinceID int64, requested int) Availability {
	for _, s := range stocks {
		if s.ItemType != itemType || !s.LocatedIn(provinceID) {
			continue
		}
		return Availability{OK: requested > 0 && requested <= s.Quantity, Available: s.Quantity}
	}
	return Availability{}
}

// TotalAvailable sums an item's quantity across every province. Shown as
// the headline figure before a province is selected; per-province checks
// still go through Check.
func TotalAvailable(stocks []Stock, itemType string) int {
	total := 0
	for _, s := range stocks {
		if s.ItemType == itemType {
			total += s.Quantity
		}
	}
	return total
}

// Items returns the distinct item types present, in first-seen order.
func Items(stocks []Stock) []string {
	seen := make(map[string]struct{}, len(stocks))
	var items []string
	for _, s := range stocks {
		if _, ok := seen[s.ItemType]; ok {
			continue
		}
		seen[s.ItemType] = struct{}{}
		items = append(items, s.ItemType)
	}
	return items
}
