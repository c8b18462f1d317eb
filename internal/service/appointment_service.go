package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"alcyxob/fitness-hub/internal/authz"
	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrAppointmentClosed   = fmt.Errorf("%w: appointment is already completed or canceled", domain.ErrConflict)
	ErrAppointmentNotDone  = fmt.Errorf("%w: feedback is only accepted for completed appointments", domain.ErrConflict)
	ErrStatusOnlyForGuests = fmt.Errorf("%w: only the status of this appointment can be changed", domain.ErrPermissionDenied)
)

// AppointmentInput is used for create (UserID optional) and for patch, where
// nil fields are left unchanged.
type AppointmentInput struct {
	UserID    primitive.ObjectID
	TrainerID *primitive.ObjectID
	Date      *time.Time
	Duration  *int
	Type      *string
	Location  *string
	Notes     *string
	Price     *int64
	Status    *domain.AppointmentStatus
}

// onlyStatus reports whether the patch touches nothing but the status.
func (in AppointmentInput) onlyStatus() bool {
	return in.TrainerID == nil && in.Date == nil && in.Duration == nil && in.Type == nil &&
		in.Location == nil && in.Notes == nil && in.Price == nil
}

type AppointmentService interface {
	Create(ctx context.Context, actor *authz.Actor, in AppointmentInput) (*domain.Appointment, error)
	Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Appointment, error)
	List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Appointment, error)
	Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in AppointmentInput) (*domain.Appointment, error)
	Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error
	Cancel(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, reason string) (*domain.Appointment, error)
	SubmitFeedback(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, rating int, comment string) (*domain.Appointment, error)
}

type appointmentService struct {
	appointments repository.AppointmentRepository
	users        repository.UserRepository
	trainers     repository.TrainerProfileRepository
	log          logrus.FieldLogger
}

func NewAppointmentService(repos *repository.Repositories, log logrus.FieldLogger) AppointmentService {
	return &appointmentService{
		appointments: repos.Appointments,
		users:        repos.Users,
		trainers:     repos.Trainers,
		log:          log.WithField("component", "appointments"),
	}
}

func appointmentResource(a *domain.Appointment) authz.Resource {
	trainer := a.TrainerID
	return authz.Resource{Kind: authz.KindAppointment, OwnerID: a.UserID, TrainerID: &trainer}
}

func (s *appointmentService) Create(ctx context.Context, actor *authz.Actor, in AppointmentInput) (*domain.Appointment, error) {
	if in.TrainerID == nil || in.Date == nil {
		return nil, domain.Validationf("trainerId and date are required")
	}
	appt := &domain.Appointment{
		UserID:    ownerFor(actor, in.UserID),
		TrainerID: *in.TrainerID,
		Status:    domain.AppointmentPending,
	}
	if err := applyAppointmentInput(appt, in); err != nil {
		return nil, err
	}
	appt.Status = domain.AppointmentPending // initial status is never client-chosen

	if err := authz.Authorize(actor, appointmentResource(appt), authz.Write); err != nil {
		return nil, err
	}
	if _, err := loadUser(ctx, s.users, appt.UserID, "userId"); err != nil {
		return nil, err
	}
	if err := s.requireTrainer(ctx, appt.TrainerID); err != nil {
		return nil, err
	}

	if _, err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) Get(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, appointmentResource(appt), authz.Read); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) List(ctx context.Context, actor *authz.Actor, params url.Values) ([]domain.Appointment, error) {
	q, err := scopedList(actor, authz.KindAppointment, params, appointmentListOptions)
	if err != nil {
		return nil, err
	}
	return s.appointments.List(ctx, q)
}

// Update patches an appointment. Callers other than the owner and admins may
// change only the status.
func (s *appointmentService) Update(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, in AppointmentInput) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, appointmentResource(appt), authz.Write); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != appt.UserID && !in.onlyStatus() {
		return nil, ErrStatusOnlyForGuests
	}
	if in.TrainerID != nil && *in.TrainerID != appt.TrainerID {
		if err := s.requireTrainer(ctx, *in.TrainerID); err != nil {
			return nil, err
		}
	}
	if err := applyAppointmentInput(appt, in); err != nil {
		return nil, err
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, actor *authz.Actor, id primitive.ObjectID) error {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(actor, appointmentResource(appt), authz.Write); err != nil {
		return err
	}
	return s.appointments.Delete(ctx, appt.ID)
}

// Cancel closes an open appointment with a reason.
func (s *appointmentService) Cancel(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, reason string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(actor, appointmentResource(appt), authz.Write); err != nil {
		return nil, err
	}
	if appt.Status == domain.AppointmentCompleted || appt.Status == domain.AppointmentCanceled {
		return nil, ErrAppointmentClosed
	}

	now := time.Now().UTC()
	appt.Status = domain.AppointmentCanceled
	appt.CancelReason = strings.TrimSpace(reason)
	appt.CanceledAt = &now
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"appointment_id": appt.ID.Hex(), "actor_id": actor.ID.Hex()}).Info("appointment canceled")
	return appt, nil
}

// SubmitFeedback records the owner's rating of a completed session.
func (s *appointmentService) SubmitFeedback(ctx context.Context, actor *authz.Actor, id primitive.ObjectID, rating int, comment string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != appt.UserID {
		return nil, fmt.Errorf("%w: only the client can leave feedback", domain.ErrPermissionDenied)
	}
	if rating < 1 || rating > 5 {
		return nil, domain.Validationf("rating must be between 1 and 5")
	}
	if appt.Status != domain.AppointmentCompleted {
		return nil, ErrAppointmentNotDone
	}

	appt.Feedback = &domain.Feedback{
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// requireTrainer checks that userID has a trainer profile.
func (s *appointmentService) requireTrainer(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.trainers.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Validationf("trainerId does not reference a trainer")
	}
	return err
}

func applyAppointmentInput(a *domain.Appointment, in AppointmentInput) error {
	if in.TrainerID != nil {
		a.TrainerID = *in.TrainerID
	}
	if in.Date != nil {
		a.Date = in.Date.UTC()
	}
	if in.Duration != nil {
		if *in.Duration <= 0 {
			return domain.Validationf("duration must be positive")
		}
		a.Duration = *in.Duration
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.Location != nil {
		a.Location = *in.Location
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return domain.Validationf("price cannot be negative")
		}
		a.Price = *in.Price
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return domain.Validationf("unknown appointment status %q", *in.Status)
		}
		a.Status = *in.Status
	}
	return nil
}
