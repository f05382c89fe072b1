package appointment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/medmeet/medmeet/internal/platform/middleware"
)

const defaultStoreTimeout = 5 * time.Second

// Operation names used for logging and metrics.
const (
	OpOpenRequest       = "open_request"
	OpAcceptAndSchedule = "accept_and_schedule"
	OpListForPatient    = "list_for_patient"
	OpListForDoctor     = "list_for_doctor"
)

// Recorder observes the outcome of every engine operation. The outcome is
// "ok" or the error Kind.
type Recorder interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string, time.Duration) {}

// Service is the appointment workflow engine and the only writer of the
// request and response stores.
type Service struct {
	requests  RequestRepository
	responses ResponseRepository
	tx        Transactor

	breaker  *gobreaker.CircuitBreaker[any]
	timeout  time.Duration
	now      func() time.Time
	recorder Recorder
	log      zerolog.Logger
}

type Option func(*Service)

// WithTimeout bounds every unit of store work.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithBreaker(cb *gobreaker.CircuitBreaker[any]) Option {
	return func(s *Service) { s.breaker = cb }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

func NewService(requests RequestRepository, responses ResponseRepository, tx Transactor, opts ...Option) *Service {
	s := &Service{
		requests:  requests,
		responses: responses,
		tx:        tx,
		timeout:   defaultStoreTimeout,
		now:       func() time.Time { return time.Now().UTC() },
		recorder:  nopRecorder{},
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenRequest records a new pending request from a patient to a doctor.
// A second pending request for the same pair fails with DuplicateRequest.
func (s *Service) OpenRequest(ctx context.Context, cmd OpenRequestCommand) (*Request, error) {
	start := time.Now()
	if err := cmd.Validate(); err != nil {
		s.observe(ctx, OpOpenRequest, start, err)
		return nil, err
	}

	now := s.now()
	r := &Request{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.DoctorID,
		SenderName: cmd.SenderName,
		DoctorName: cmd.DoctorName,
		Specialty:  cmd.Specialty,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.run(ctx, OpOpenRequest, start, func(ctx context.Context) error {
		return s.requests.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// AcceptAndSchedule accepts a pending request addressed to cmd.DoctorID and
// creates its scheduled response. Both writes commit together or not at all.
func (s *Service) AcceptAndSchedule(ctx context.Context, cmd ScheduleCommand) (*Response, error) {
	start := time.Now()
	requestID, date, err := cmd.parse()
	if err != nil {
		s.observe(ctx, OpAcceptAndSchedule, start, err)
		return nil, err
	}

	var resp *Response
	err = s.run(ctx, OpAcceptAndSchedule, start, func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			req, err := s.transition(ctx, requestID, cmd.DoctorID, StatusAccepted)
			if err != nil {
				return err
			}
			resp = &Response{
				SenderID:      cmd.DoctorID,
				ReceiverID:    req.SenderID,
				RequestID:     req.ID,
				DoctorName:    cmd.DoctorName,
				PatientName:   req.SenderName,
				ScheduledDate: date,
				ScheduledTime: cmd.ScheduledTime,
				Status:        StatusScheduled,
				CreatedAt:     req.UpdatedAt,
			}
			return s.responses.Create(ctx, resp)
		})
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// transition locks the request, checks that doctorID owns it and that the
// move to next is legal, then applies it. It must run inside a transaction.
func (s *Service) transition(ctx context.Context, id uuid.UUID, doctorID string, next RequestStatus) (*Request, error) {
	req, err := s.requests.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != doctorID {
		return nil, errRequestNotFound
	}
	if !req.Status.CanTransitionTo(next) {
		return nil, invalidState("Request is already " + string(req.Status))
	}

	at := s.now()
	if err := s.requests.UpdateStatus(ctx, req.ID, req.Status, next, at); err != nil {
		return nil, err
	}
	req.Status = next
	req.UpdatedAt = at
	return req, nil
}

// ListForPatient returns every appointment scheduled for patientID, oldest first.
func (s *Service) ListForPatient(ctx context.Context, patientID string) ([]*Response, error) {
	start := time.Now()
	patientID = strings.TrimSpace(patientID)
	if patientID == "" {
		err := validationError("id is required")
		s.observe(ctx, OpListForPatient, start, err)
		return nil, err
	}

	var items []*Response
	err := s.run(ctx, OpListForPatient, start, func(ctx context.Context) error {
		var err error
		items, err = s.responses.List(ctx, ResponseFilter{ReceiverID: patientID})
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Response{}
	}
	return items, nil
}

// ListForDoctor returns every request addressed to doctorID in any status,
// oldest first.
func (s *Service) ListForDoctor(ctx context.Context, doctorID string) ([]*Request, error) {
	start := time.Now()
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		err := validationError("id is required")
		s.observe(ctx, OpListForDoctor, start, err)
		return nil, err
	}

	var items []*Request
	err := s.run(ctx, OpListForDoctor, start, func(ctx context.Context) error {
		var err error
		items, err = s.requests.List(ctx, RequestFilter{ReceiverID: doctorID})
		return err
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Request{}
	}
	return items, nil
}

// run executes one unit of store work under the store timeout and the
// circuit breaker, and maps whatever comes back onto *Error.
func (s *Service) run(ctx context.Context, op string, start time.Time, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var err error
	if s.breaker != nil {
		_, err = s.breaker.Execute(func() (any, error) {
			return nil, fn(ctx)
		})
	} else {
		err = fn(ctx)
	}
	if err == nil {
		s.observe(ctx, op, start, nil)
		return nil
	}

	mapped := mapStoreError(err)
	s.observe(ctx, op, start, mapped)
	return mapped
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	s.recorder.ObserveOperation(op, outcome, time.Since(start))

	if KindOf(err) == KindUnavailable {
		evt := s.log.Error().
			Str("op", op).
			Str("kind", outcome).
			Str("request_id", middleware.RequestIDFromContext(ctx))
		if cause := errors.Unwrap(err); cause != nil {
			evt = evt.Err(cause)
		}
		evt.Msg("appointment store failure")
	}
}
