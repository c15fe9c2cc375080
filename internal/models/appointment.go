package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Date           string             `bson:"date" json:"date"`
	TimeSlot       string             `bson:"timeSlot" json:"timeSlot"`
	SpecialistID   int                `bson:"specialistId" json:"specialistId"`
	SpecialistName string             `bson:"specialistName" json:"specialistName"`
	Status         string             `bson:"status" json:"status"`
	StartsAt       time.Time          `bson:"startsAt" json:"startsAt"`
	MeetingURL     string             `bson:"meetingUrl" json:"meetingUrl"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	CancelledAt    *time.Time         `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}
