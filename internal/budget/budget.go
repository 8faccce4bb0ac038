// Package budget evaluates a project's accumulated usage, plus any live
// session time, against its configured budget ceiling.
package budget

import "github.com/Kieransaunders/iTimedIT-sub000/pkg/types"

// Thresholds for the warning and critical statuses, in percent of ceiling.
const (
	WarningPercent  = 80.0
	CriticalPercent = 100.0
)

// Evaluate computes the budget report for a project. extraSeconds accounts
// for a currently running, not-yet-flushed session. The function is pure:
// identical input always yields an identical report.
func Evaluate(p types.Project, extraSeconds int64) types.BudgetReport {
	if !p.HasBudget() {
		return types.BudgetReport{Status: types.BudgetNone, Color: types.ColorNeutral}
	}

	extraHours := float64(extraSeconds) / 3600.0

	var used, ceiling float64
	switch p.BudgetType {
	case types.BudgetHours:
		used = float64(p.TotalSeconds)/3600.0 + extraHours
		ceiling = p.BudgetHours
	case types.BudgetAmount:
		used = p.TotalAmount + extraHours*p.HourlyRate
		ceiling = p.BudgetAmount
	}

	percent := used / ceiling * 100.0
	remaining := ceiling - used

	status, color := classify(percent)
	return types.BudgetReport{
		Status:       status,
		UsagePercent: percent,
		Remaining:    remaining,
		Color:        color,
	}
}

func classify(percent float64) (types.BudgetStatus, types.BudgetColor) {
	switch {
	case percent >= CriticalPercent:
		return types.BudgetCritical, types.ColorRed
	case percent >= WarningPercent:
		return types.BudgetWarning, types.ColorOrange
	default:
		return types.BudgetSafe, types.ColorGreen
	}
}
