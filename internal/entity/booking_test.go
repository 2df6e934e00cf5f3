package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd ClockTime
		want                       bool
	}{
		{"back to back", "09:00", "10:00", "10:00", "11:00", false},
		{"back to back reversed", "10:00", "11:00", "09:00", "10:00", false},
		{"partial overlap", "09:00", "10:30", "10:00", "11:00", true},
		{"contained", "08:00", "12:00", "09:00", "10:00", true},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
		{"disjoint", "07:00", "08:00", "09:00", "10:00", false},
		{"one minute shared", "09:00", "10:01", "10:00", "11:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			assert.Equal(t, tt.want, got)
			// the relation is symmetric
			assert.Equal(t, got, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingStatusPending, BookingStatusConfirmed, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusExpired, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusExpired, true},
		{BookingStatusConfirmed, BookingStatusConfirmed, true},
		{BookingStatusConfirmed, BookingStatusPending, false},
		{BookingStatusExpired, BookingStatusPending, false},
		{BookingStatusExpired, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusCancelled, BookingStatusExpired, false},
		{BookingStatusPending, BookingStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, err := Transition(tt.from, tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, got)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.from, got)
		})
	}
}

func TestTransitionErrorKinds(t *testing.T) {
	_, err := Transition(BookingStatusExpired, BookingStatusPending)
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	_, err = Transition(BookingStatusPending, BookingStatus("archived"))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestBookingIsStale(t *testing.T) {
	b := &Booking{BookingDate: "2025-03-10", StartTime: "09:00", EndTime: "10:00", Status: BookingStatusPending}

	assert.True(t, b.IsStale("2025-03-11", "00:00"), "earlier date")
	assert.True(t, b.IsStale("2025-03-10", "10:01"), "ended today")
	assert.False(t, b.IsStale("2025-03-10", "10:00"), "ends exactly now")
	assert.False(t, b.IsStale("2025-03-10", "09:30"), "in progress")
	assert.False(t, b.IsStale("2025-03-09", "23:59"), "future date")

	b.Status = BookingStatusCancelled
	assert.False(t, b.IsStale("2025-03-11", "00:00"), "cancelled bookings never expire")
}

func TestParseClockTime(t *testing.T) {
	valid := []string{"00:00", "09:05", "23:59"}
	for _, s := range valid {
		ct, err := ParseClockTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, ClockTime(s), ct)
	}

	invalid := []string{"", "9:00", "24:00", "09:60", "0900", "09:00:00", "ab:cd"}
	for _, s := range invalid {
		_, err := ParseClockTime(s)
		assert.ErrorIs(t, err, ErrInvalidInput, s)
	}
}

func TestClockTimeScan(t *testing.T) {
	var ct ClockTime
	require.NoError(t, ct.Scan([]byte("09:30:00")))
	assert.Equal(t, ClockTime("09:30"), ct)

	require.NoError(t, ct.Scan("18:45"))
	assert.Equal(t, ClockTime("18:45"), ct)

	assert.Error(t, ct.Scan(42))
}

func TestMoment(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	now := time.Date(2025, 3, 11, 1, 30, 0, 0, time.UTC)

	date, clock := Moment(now, loc)
	assert.Equal(t, "2025-03-10", date)
	assert.Equal(t, ClockTime("22:30"), clock)
}

func TestYouTubeEmbedURL(t *testing.T) {
	tests := map[string]string{
		"https://youtu.be/abc123":                     "https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/watch?v=abc123&t=10": "https://www.youtube.com/embed/abc123",
		"https://m.youtube.com/watch?v=xyz":           "https://www.youtube.com/embed/xyz",
		"https://youtube.com/channel/foo":             "",
		"https://vimeo.com/123":                       "",
		"not a url":                                   "",
		"":                                            "",
	}

	for in, want := range tests {
		assert.Equal(t, want, YouTubeEmbedURL(in), in)
	}
}
