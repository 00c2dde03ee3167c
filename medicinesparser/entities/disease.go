package entities

// Disease is a resolved entry of the disease code table.
type Disease struct {
	Code string `json:"cod"`
	Name string `json:"nume"`
}
