package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentUpcoming  AppointmentStatus = "UPCOMING"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Valid reports whether s is a known appointment status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentUpcoming, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// DateLayout is the wire and key format of appointment dates.
const DateLayout = "2006-01-02"

// Unique indexes on appointments.
const (
	IndexAppointmentSlot  = "idx_appointments_active_slot"
	IndexAppointmentQueue = "idx_appointments_doctor_day_queue"
)

// Appointment is a booking against a doctor's daily slot list.
type Appointment struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	DoctorID        uint              `gorm:"not null;index;uniqueIndex:idx_appointments_doctor_day_queue,priority:1" json:"doctorId"`
	UserID          *string           `gorm:"size:36;index" json:"userId,omitempty"`
	PatientName     string            `gorm:"size:200;not null" json:"patientName"`
	ContactNumber   string            `gorm:"size:50;not null" json:"contactNumber"`
	Reason          *string           `gorm:"type:text" json:"reason,omitempty"`
	AppointmentType string            `gorm:"size:100;not null" json:"appointmentType"`
	Date            time.Time         `gorm:"type:date;not null;uniqueIndex:idx_appointments_doctor_day_queue,priority:2" json:"date"`
	TimeSlot        string            `gorm:"size:10;not null" json:"timeSlot"`
	QueueNumber     int               `gorm:"not null;uniqueIndex:idx_appointments_doctor_day_queue,priority:3" json:"queueNumber"`
	Status          AppointmentStatus `gorm:"size:20;not null;index;default:'UPCOMING'" json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`

	// SlotKey is set while the appointment holds its slot and NULL once
	// cancelled, so the unique index only covers live bookings.
	SlotKey *string `gorm:"size:80;uniqueIndex:idx_appointments_active_slot" json:"-"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

// NormalizeDate drops the time of day, keeping the calendar date in UTC.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SlotKeyFor renders the (doctor, date, timeSlot) tuple.
func SlotKeyFor(doctorID uint, date time.Time, timeSlot string) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, date.Format(DateLayout), timeSlot)
}

// RefreshSlotKey recomputes SlotKey from the current fields.
func (a *Appointment) RefreshSlotKey() {
	if a.Status == AppointmentCancelled {
		a.SlotKey = nil
		return
	}
	key := SlotKeyFor(a.DoctorID, a.Date, a.TimeSlot)
	a.SlotKey = &key
}

// BeforeSave keeps the date normalized and the slot key in step with status.
func (a *Appointment) BeforeSave(tx *gorm.DB) error {
	a.Date = NormalizeDate(a.Date)
	a.RefreshSlotKey()
	return nil
}
