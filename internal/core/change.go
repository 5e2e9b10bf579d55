package core

// Entity names carried by Change.
const (
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityRecurring   = "recurring_expense"
)

// Change operations.
const (
	ChangeCreate = "create"
	ChangeUpdate = "update"
	ChangeDelete = "delete"
	ChangeCommit = "commit"
)

// Change describes one successful mutation of finance data.
type Change struct {
	Entity string `json:"entity"`
	Op     string `json:"op"`
	ID     string `json:"id"`
	Month  string `json:"month,omitempty"`
}
