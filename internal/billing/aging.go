package billing

import (
	"context"
	"time"
)

// AgingBucket is one band of the receivables aging report.
type AgingBucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Balance float64 `json:"balance"`
}

// AgingReport groups outstanding invoice balances by age.
type AgingReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Total       float64       `json:"total"`
	Buckets     []AgingBucket `json:"buckets"`
}

var agingBands = []struct {
	label string
	upTo  int // days, exclusive; -1 means open-ended
}{
	{"current", 7},
	{"1-30", 30},
	{"31-60", 60},
	{"61-90", 90},
	{"90+", -1},
}

// Aging builds the receivables aging report from outstanding invoices.
func (s *Service) Aging(ctx context.Context) (AgingReport, error) {
	outstanding, err := s.repo.OutstandingInvoices(ctx)
	if err != nil {
		return AgingReport{}, err
	}
	now := time.Now()
	report := AgingReport{GeneratedAt: now, Buckets: make([]AgingBucket, len(agingBands))}
	for i, band := range agingBands {
		report.Buckets[i].Label = band.label
	}
	for _, item := range outstanding {
		age := int(now.Sub(item.Invoice.CreatedAt).Hours() / 24)
		idx := len(agingBands) - 1
		for i, band := range agingBands {
			if band.upTo >= 0 && age < band.upTo {
				idx = i
				break
			}
		}
		report.Buckets[idx].Count++
		report.Buckets[idx].Balance += item.Invoice.RemainingAmount
		report.Total += item.Invoice.RemainingAmount
	}
	return report, nil
}
