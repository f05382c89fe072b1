package appointment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a patient's meeting request.
//
//	pending → accepted
//	pending → rejected
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	StatusPending: {StatusAccepted, StatusRejected},
}

// IsValid reports whether s is a known request status.
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// ResponseStatus is the lifecycle state of a scheduled appointment.
//
//	scheduled → completed
//	scheduled → cancelled
//
// Only scheduled is produced by the workflow engine.
type ResponseStatus string

const (
	StatusScheduled ResponseStatus = "scheduled"
	StatusCompleted ResponseStatus = "completed"
	StatusCancelled ResponseStatus = "cancelled"
)

var responseTransitions = map[ResponseStatus][]ResponseStatus{
	StatusScheduled: {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known response status.
func (s ResponseStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s ResponseStatus) CanTransitionTo(next ResponseStatus) bool {
	for _, allowed := range responseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Request is a patient's ask to meet a specific doctor.
type Request struct {
	ID         uuid.UUID     `json:"id"`
	SenderID   string        `json:"senderId"`
	ReceiverID string        `json:"receiverId"`
	SenderName string        `json:"senderName"`
	DoctorName string        `json:"doctorName"`
	Specialty  string        `json:"specialty"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// Response is the scheduled appointment produced by accepting a Request.
// SenderID is the doctor who scheduled it, ReceiverID the patient who asked.
type Response struct {
	ID            uuid.UUID      `json:"id"`
	SenderID      string         `json:"senderId"`
	ReceiverID    string         `json:"receiverId"`
	RequestID     uuid.UUID      `json:"requestId"`
	DoctorName    string         `json:"doctorName"`
	PatientName   string         `json:"patientName"`
	ScheduledDate Date           `json:"scheduledDate"`
	ScheduledTime string         `json:"scheduledTime"`
	Status        ResponseStatus `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
}

const dateLayout = "2006-01-02"

// Date is a calendar date. It is carried as midnight UTC and written as
// YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the calendar date of t in t's own location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp, whose date part is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewDate(t), nil
	}
	return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// OpenRequestCommand carries the fields a patient submits to book a doctor.
type OpenRequestCommand struct {
	DoctorID   string `json:"doctorId"`
	DoctorName string `json:"doctorName"`
	Specialty  string `json:"specialty"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

func (c *OpenRequestCommand) normalize() {
	c.DoctorID = strings.TrimSpace(c.DoctorID)
	c.DoctorName = strings.TrimSpace(c.DoctorName)
	c.Specialty = strings.TrimSpace(c.Specialty)
	c.SenderID = strings.TrimSpace(c.SenderID)
	c.SenderName = strings.TrimSpace(c.SenderName)
}

// Validate trims every field and reports all missing ones at once.
func (c *OpenRequestCommand) Validate() error {
	c.normalize()
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"doctorId", c.DoctorID},
		{"doctorName", c.DoctorName},
		{"specialty", c.Specialty},
		{"senderId", c.SenderID},
		{"senderName", c.SenderName},
	} {
		if f.value == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return validationError(missing...)
	}
	return nil
}

// ScheduleCommand carries the doctor's acceptance of a request.
type ScheduleCommand struct {
	RequestID     string `json:"requestId"`
	ScheduledDate string `json:"scheduledDate"`
	ScheduledTime string `json:"scheduledTime"`
	DoctorID      string `json:"doctorId"`
	DoctorName    string `json:"doctorName"`
}

// parse validates the command and returns its typed request id and date.
// A malformed request id is reported as not found, like an unknown one.
func (c *ScheduleCommand) parse() (uuid.UUID, Date, error) {
	c.RequestID = strings.TrimSpace(c.RequestID)
	c.ScheduledTime = strings.TrimSpace(c.ScheduledTime)
	c.DoctorID = strings.TrimSpace(c.DoctorID)
	c.DoctorName = strings.TrimSpace(c.DoctorName)

	var problems []string
	if c.RequestID == "" {
		problems = append(problems, "requestId is required")
	}
	var date Date
	if strings.TrimSpace(c.ScheduledDate) == "" {
		problems = append(problems, "scheduledDate is required")
	} else if d, err := ParseDate(c.ScheduledDate); err != nil {
		problems = append(problems, "scheduledDate must be a valid date (YYYY-MM-DD)")
	} else {
		date = d
	}
	if c.ScheduledTime == "" {
		problems = append(problems, "scheduledTime is required")
	}
	if c.DoctorID == "" {
		problems = append(problems, "doctorId is required")
	}
	if c.DoctorName == "" {
		problems = append(problems, "doctorName is required")
	}
	if len(problems) > 0 {
		return uuid.Nil, Date{}, validationError(problems...)
	}

	id, err := uuid.Parse(c.RequestID)
	if err != nil {
		return uuid.Nil, Date{}, errRequestNotFound
	}
	return id, date, nil
}
