package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bogota(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	return loc
}

func TestBookingRequest_LeadTime(t *testing.T) {
	loc := bogota(t)
	now := time.Date(2026, 3, 10, 16, 30, 0, 0, loc)

	_, err := BookingRequest{Date: "2026-03-10", TimeSlot: "17:00", SpecialistID: 1}.Validate(now, loc)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "date")

	date, err := BookingRequest{Date: "2026-03-11", TimeSlot: "09:00", SpecialistID: 1}.Validate(now, loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), date)
}

func TestBookingRequest_TodayJustBeforeMidnight(t *testing.T) {
	loc := bogota(t)
	now := time.Date(2026, 3, 10, 23, 59, 59, 0, loc)

	_, err := BookingRequest{Date: "2026-03-10", TimeSlot: "09:00", SpecialistID: 2}.Validate(now, loc)
	assert.Error(t, err)
	_, err = BookingRequest{Date: "2026-03-11", TimeSlot: "09:00", SpecialistID: 2}.Validate(now, loc)
	assert.NoError(t, err)
}

func TestBookingRequest_UsesSchedulerZone(t *testing.T) {
	loc := bogota(t)
	// 02:00 UTC on the 11th is still the 10th in Bogotá.
	now := time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC)

	_, err := BookingRequest{Date: "2026-03-11", TimeSlot: "09:00", SpecialistID: 3}.Validate(now, loc)
	assert.NoError(t, err)
}

func TestBookingRequest_MandatoryFields(t *testing.T) {
	loc := bogota(t)
	_, err := BookingRequest{}.Validate(time.Now(), loc)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Len(t, fe, 3)

	_, err = BookingRequest{Date: "11/03/2026", TimeSlot: "12:00", SpecialistID: 9}.Validate(time.Now(), loc)
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "date")
	assert.Contains(t, fe, "timeSlot")
	assert.Contains(t, fe, "specialistId")
}

func TestSlotStartAndCancellationWindow(t *testing.T) {
	loc := bogota(t)
	start, err := SlotStart(time.Date(2026, 3, 11, 0, 0, 0, 0, loc), "14:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 14, 0, 0, 0, loc), start)

	assert.True(t, CanCancel(start, start.Add(-3*time.Hour)))
	assert.False(t, CanCancel(start, start.Add(-3*time.Hour+time.Second)))

	_, err = SlotStart(start, "12:00")
	assert.Error(t, err)
}
