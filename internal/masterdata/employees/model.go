// Package employees manages workshop staff records. Labor lines on repair
// proposals reference employees and snapshot their daily rate.
package employees

import "time"

// Employee is a workshop staff member.
type Employee struct {
	ID         int64     `json:"id"`
	WorkshopID int64     `json:"workshop_id"`
	FullName   string    `json:"full_name"`
	Specialty  string    `json:"specialty"`
	// DailyRate of zero means the configured default labor rate applies
	// when the employee is put on a proposal.
	DailyRate float64   `json:"daily_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
