package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNights_RoundsPartialDaysUp(t *testing.T) {
	start := time.Date(2026, 11, 1, 14, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		d    time.Duration
		want int64
	}{
		{"ten hours", 10 * time.Hour, 1},
		{"exactly a day", 24 * time.Hour, 1},
		{"twenty five hours", 25 * time.Hour, 2},
		{"thirty hours", 30 * time.Hour, 2},
		{"exactly two days", 48 * time.Hour, 2},
		{"one second over two days", 48*time.Hour + time.Second, 3},
		{"zero", 0, 0},
		{"negative", -time.Hour, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Nights(start, start.Add(tc.d)))
		})
	}
}

func TestCompute_RoomAndServiceTotals(t *testing.T) {
	q := Compute(
		[]RoomRate{{RoomID: 1, PriceCents: 100000}},
		1,
		[]ServiceLine{{ServiceID: 1, PriceCents: 20000, Quantity: 2}},
	)

	assert.Equal(t, int64(100000), q.RoomTotalCents)
	assert.Equal(t, int64(40000), q.ServiceTotalCents)
	assert.Equal(t, int64(140000), q.TotalCents)
}

func TestCompute_SameNightsForEveryRoom(t *testing.T) {
	q := Compute(
		[]RoomRate{{RoomID: 1, PriceCents: 100000}, {RoomID: 2, PriceCents: 55050}},
		3,
		nil,
	)

	assert.Equal(t, int64(3*100000+3*55050), q.RoomTotalCents)
	assert.Equal(t, int64(0), q.ServiceTotalCents)
	assert.Equal(t, q.RoomTotalCents, q.TotalCents)
}

func TestCompute_NoDriftOnRepeatedAdditions(t *testing.T) {
	lines := make([]ServiceLine, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, ServiceLine{ServiceID: uint64(i), PriceCents: 10, Quantity: 1})
	}
	q := Compute(nil, 0, lines)
	assert.Equal(t, int64(10000), q.TotalCents)
}

func TestLines_PairsByPosition(t *testing.T) {
	lines, err := Lines(
		[]ServiceLine{{ServiceID: 7, PriceCents: 500}, {ServiceID: 3, PriceCents: 900}},
		[]int{4, 1},
	)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, uint64(7), lines[0].ServiceID)
	assert.Equal(t, 1, lines[1].Quantity)

	_, err = Lines([]ServiceLine{{ServiceID: 7}}, []int{1, 2})
	assert.ErrorIs(t, err, ErrQuantityMismatch)
}
