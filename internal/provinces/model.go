package provinces

// Province is an administrative region owning a stock pool and the staff
// accounts scoped to it. Codes are unique.
type Province struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
