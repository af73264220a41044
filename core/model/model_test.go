package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseEntity(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"l1_100$l2_101$ast_107", "l1_100$l2_101"},
		{"l1_100$l2_101", "l1_100$l2_101"},
		{"ast_1", ""},
		{"l1_100$ast_1$l3", "l1_100$ast_1$l3"},
		{"", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BaseEntity(c.in), c.in)
	}
}

func TestSiteID(t *testing.T) {
	assert.Equal(t, "l1_100", SiteID("l1_100$l2_101$ast_107"))
	assert.Equal(t, "site", SiteID("site"))
}

func TestParseDurationKind(t *testing.T) {
	assert.Equal(t, KindWeek, ParseDurationKind(" Week "))
	assert.Equal(t, DurationKind("shift"), ParseDurationKind("shift"))
	assert.True(t, KindHour.Sequential())
	assert.True(t, DurationKind("shift").Sequential())
	assert.False(t, KindDay.Sequential())
	assert.False(t, KindWeek.Sequential())
	assert.False(t, KindMonth.Sequential())
}

func TestGuideRowEligible(t *testing.T) {
	q := 10
	assert.True(t, GuideRow{EntityID: "a", ProductName: "p", PlannedQuantity: &q}.Eligible())
	assert.False(t, GuideRow{EntityID: "a", ProductName: "p"}.Eligible())
	assert.False(t, GuideRow{EntityID: " ", ProductName: "p", PlannedQuantity: &q}.Eligible())
	assert.False(t, GuideRow{EntityID: "a", PlannedQuantity: &q}.Eligible())
}

func TestWindowOverlaps(t *testing.T) {
	base := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	a := Window{Start: base, End: base.Add(2*time.Hour - time.Second)}
	b := Window{Start: base.Add(2 * time.Hour), End: base.Add(5*time.Hour - time.Second)}
	c := Window{Start: base.Add(time.Hour), End: base.Add(3 * time.Hour)}
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
	assert.True(t, a.Contains(a.End))
	assert.False(t, a.Contains(b.Start))
}
