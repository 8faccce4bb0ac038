package types

// BudgetType selects which budget ceiling on a project is meaningful.
type BudgetType string

const (
	BudgetHours  BudgetType = "hours"
	BudgetAmount BudgetType = "amount"
)

// Project is the budget-bearing unit of work. Read-only from the client's
// perspective; all mutation happens on the backend.
type Project struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	HourlyRate   float64    `json:"hourlyRate"`
	BudgetType   BudgetType `json:"budgetType,omitempty"`
	BudgetHours  float64    `json:"budgetHours,omitempty"`
	BudgetAmount float64    `json:"budgetAmount,omitempty"`
	TotalSeconds int64      `json:"totalSeconds"`
	TotalAmount  float64    `json:"totalAmount"`
}

// HasBudget reports whether a budget ceiling is configured.
func (p *Project) HasBudget() bool {
	switch p.BudgetType {
	case BudgetHours:
		return p.BudgetHours > 0
	case BudgetAmount:
		return p.BudgetAmount > 0
	}
	return false
}

// BudgetStatus classifies how close a project is to its budget ceiling.
type BudgetStatus string

const (
	BudgetNone     BudgetStatus = "none"
	BudgetSafe     BudgetStatus = "safe"
	BudgetWarning  BudgetStatus = "warning"
	BudgetCritical BudgetStatus = "critical"
)

// BudgetColor is the warning color classification for display.
type BudgetColor string

const (
	ColorNeutral BudgetColor = "neutral"
	ColorGreen   BudgetColor = "green"
	ColorOrange  BudgetColor = "orange"
	ColorRed     BudgetColor = "red"
)

// BudgetReport is the result of evaluating a project's budget against its
// accumulated usage plus any live, not-yet-flushed session time.
type BudgetReport struct {
	Status       BudgetStatus `json:"status"`
	UsagePercent float64      `json:"usagePercent"`
	// Remaining is in the ceiling's unit (hours or currency).
	// Negative means over budget.
	Remaining float64     `json:"remaining"`
	Color     BudgetColor `json:"color"`
}
