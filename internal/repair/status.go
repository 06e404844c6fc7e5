package repair

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

// Status is the repair order lifecycle state. The database stores the
// canonical value; the legacy Vietnamese labels used by the old client are
// accepted on input and available for display.
type Status string

const (
	StatusAwaitingInspection      Status = "AWAITING_INSPECTION"
	StatusUnderInspection         Status = "UNDER_INSPECTION"
	StatusProposalSubmitted       Status = "PROPOSAL_SUBMITTED"
	StatusReproposalRequested     Status = "REPROPOSAL_REQUESTED"
	StatusAcceptedPendingSchedule Status = "ACCEPTED_PENDING_SCHEDULE"
	StatusScheduled               Status = "SCHEDULED"
	StatusCompleted               Status = "COMPLETED"
	StatusInvoiced                Status = "INVOICED"
)

var legacyLabels = map[Status]string{
	StatusAwaitingInspection:      "Chờ khảo sát",
	StatusUnderInspection:         "Đang khảo sát",
	StatusProposalSubmitted:       "Chờ duyệt phương án",
	StatusReproposalRequested:     "Yêu cầu điều chỉnh",
	StatusAcceptedPendingSchedule: "Sắp xếp lịch sửa chữa",
	StatusScheduled:               "Đã xếp lịch",
	StatusCompleted:               "Hoàn thành",
	StatusInvoiced:                "Đã tạo hóa đơn",
}

// Label returns the Vietnamese display label the legacy client used.
func (s Status) Label() string {
	return legacyLabels[s]
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	_, ok := legacyLabels[s]
	return ok
}

// statusIndex maps normalized spellings (canonical names and legacy labels)
// to the canonical status.
var statusIndex = buildStatusIndex()

func buildStatusIndex() map[string]Status {
	idx := make(map[string]Status, len(legacyLabels)*2)
	for status, label := range legacyLabels {
		idx[normalizeLabel(string(status))] = status
		idx[normalizeLabel(label)] = status
	}
	return idx
}

// stripMarks removes combining marks after NFD decomposition, so "Hoàn thành"
// and "hoan thanh" normalize identically. "đ" does not decompose under NFD
// and is folded separately.
var stripMarks = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}),
	norm.NFC,
)

// normalizeLabel folds case, diacritics and interior whitespace.
func normalizeLabel(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// ParseStatus resolves a status from either its canonical name or a legacy
// label, insensitively to case, diacritics and whitespace.
func ParseStatus(raw string) (Status, error) {
	if s, ok := statusIndex[normalizeLabel(raw)]; ok {
		return s, nil
	}
	// Canonical names may arrive with dashes or spaces instead of underscores.
	relaxed := strings.ReplaceAll(strings.ReplaceAll(normalizeLabel(raw), "-", "_"), " ", "_")
	if s, ok := statusIndex[relaxed]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, raw)
}
