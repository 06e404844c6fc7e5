package repair

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drydock-works/drydock/internal/platform/httpx"
)

func TestParseStatusCanonical(t *testing.T) {
	cases := map[string]Status{
		"AWAITING_INSPECTION":       StatusAwaitingInspection,
		"awaiting_inspection":       StatusAwaitingInspection,
		"Proposal_Submitted":        StatusProposalSubmitted,
		"accepted pending schedule": StatusAcceptedPendingSchedule,
		"scheduled":                 StatusScheduled,
		"INVOICED":                  StatusInvoiced,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseStatusLegacyLabels(t *testing.T) {
	cases := map[string]Status{
		"Hoàn thành":            StatusCompleted,
		"hoàn thành":            StatusCompleted,
		"HOAN  THANH":           StatusCompleted,
		"hoan thanh":            StatusCompleted,
		"Chờ khảo sát":          StatusAwaitingInspection,
		"cho khao sat":          StatusAwaitingInspection,
		"Đang khảo sát":         StatusUnderInspection,
		"dang khao sat":         StatusUnderInspection,
		"Chờ duyệt phương án":   StatusProposalSubmitted,
		"Yêu cầu điều chỉnh":    StatusReproposalRequested,
		"yeu cau dieu chinh":    StatusReproposalRequested,
		"Sắp xếp lịch sửa chữa": StatusAcceptedPendingSchedule,
		"Đã xếp lịch":           StatusScheduled,
		"da xep lich":           StatusScheduled,
		"Đã tạo hóa đơn":        StatusInvoiced,
		"da tao hoa don":        StatusInvoiced,
	}
	for raw, want := range cases {
		got, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseStatusUnknown(t *testing.T) {
	_, err := ParseStatus("chua biet")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httpx.ErrValidation))

	_, err = ParseStatus("")
	require.Error(t, err)
}

func TestStatusLabelRoundTrip(t *testing.T) {
	for status, label := range legacyLabels {
		got, err := ParseStatus(label)
		require.NoError(t, err, label)
		assert.Equal(t, status, got)
		assert.Equal(t, label, status.Label())
	}
}
