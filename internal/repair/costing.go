package repair

// DefaultDailyRate is the labor rate in VND per day applied when an employee
// record has no rate of its own. Configurable via LABOR_DAILY_RATE.
const DefaultDailyRate = 350000.0

// CostSnapshot is the persisted cost triple written on the order at every
// proposal submission.
type CostSnapshot struct {
	Materials float64 `json:"materials_cost"`
	Labor     float64 `json:"labor_cost"`
	Total     float64 `json:"total_cost"`
}

// ComputeCosts derives the cost snapshot from persisted lines. Unit prices
// and daily rates come from the lines themselves, never from the live
// catalog, so a recomputation always reproduces what was agreed.
func ComputeCosts(materials []MaterialLine, labor []LaborLine) CostSnapshot {
	var snap CostSnapshot
	for _, l := range materials {
		snap.Materials += l.Subtotal()
	}
	for _, l := range labor {
		snap.Labor += l.Subtotal()
	}
	snap.Total = snap.Materials + snap.Labor
	return snap
}
