package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of appointment dates.
const DateLayout = "2006-01-02"

// CancellationWindow is how long before its start an appointment stops
// being cancellable.
const CancellationWindow = 3 * time.Hour

// TimeSlots are the bookable start times of a day.
var TimeSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

type Specialist struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
}

var Specialists = []Specialist{
	{ID: 1, Name: "Dr. Ana García", Specialty: "Derecho Inmobiliario"},
	{ID: 2, Name: "Dr. Carlos Rodríguez", Specialty: "Derecho Contractual"},
	{ID: 3, Name: "Dr. María López", Specialty: "Derecho Tributario"},
}

func FindSpecialist(id int) (Specialist, bool) {
	for _, s := range Specialists {
		if s.ID == id {
			return s, true
		}
	}
	return Specialist{}, false
}

func IsTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EarliestBookableDate is the day after today in loc.
func EarliestBookableDate(now time.Time, loc *time.Location) time.Time {
	return StartOfDay(now, loc).AddDate(0, 0, 1)
}

// SlotStart combines a date and an "HH:MM" slot in the date's location.
func SlotStart(date time.Time, slot string) (time.Time, error) {
	if !IsTimeSlot(slot) {
		return time.Time{}, fmt.Errorf("unknown time slot %q", slot)
	}
	hm, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hm.Hour(), hm.Minute(), 0, 0, date.Location()), nil
}

// CanCancel reports whether an appointment starting at start may still be
// cancelled at now.
func CanCancel(start, now time.Time) bool {
	return start.Sub(now) >= CancellationWindow
}

// BookingRequest is the (date, slot, specialist) triple of a booking.
type BookingRequest struct {
	Date         string `json:"date"`
	TimeSlot     string `json:"timeSlot"`
	SpecialistID int    `json:"specialistId"`
}

// Validate checks the triple and returns the parsed date (midnight in loc).
func (r BookingRequest) Validate(now time.Time, loc *time.Location) (time.Time, error) {
	fe := FieldErrors{}
	var date time.Time
	if r.Date == "" {
		fe.Add("date", "select a date for the appointment")
	} else if d, err := time.ParseInLocation(DateLayout, r.Date, loc); err != nil {
		fe.Add("date", "date must use the YYYY-MM-DD format")
	} else if d.Before(EarliestBookableDate(now, loc)) {
		fe.Add("date", "appointments must be booked at least one day in advance")
	} else {
		date = d
	}
	if r.TimeSlot == "" {
		fe.Add("timeSlot", "select a time slot for the appointment")
	} else if !IsTimeSlot(r.TimeSlot) {
		fe.Add("timeSlot", "unknown time slot")
	}
	if r.SpecialistID == 0 {
		fe.Add("specialistId", "select a specialist")
	} else if _, ok := FindSpecialist(r.SpecialistID); !ok {
		fe.Add("specialistId", "unknown specialist")
	}
	if err := fe.Err(); err != nil {
		return time.Time{}, err
	}
	return date, nil
}
