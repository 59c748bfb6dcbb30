package school

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core"
)

var (
	// errors
	ErrNotFound      = errors.New("school profile not found")
	ErrProfileExists = errors.New("school profile already submitted")
	ErrUdiseExists   = errors.New("a school with this UDISE code already exists")
)

type (
	Repository interface {
		CreateSchoolProfile(sp SchoolProfile) (SchoolProfile, error)
		GetSchoolProfileByID(id string) (SchoolProfile, error)
		GetSchoolProfileByUser(userID string) (SchoolProfile, error)
		GetSchoolProfileByUdise(udiseCode string) (SchoolProfile, error)
		// FilterSchoolProfiles applies AND operation on available QueryFilter
		// fields. QueryFilter.Search matches school name, city or UDISE code.
		FilterSchoolProfiles(filter QueryFilter, ordering ...core.DBOrdering) ([]SchoolProfile, error)
		UpdateSchoolProfile(sp SchoolProfile) (SchoolProfile, error)

		CountStudents(schoolID string) (int, error)
		CountTeachers(schoolID string) (int, error)
		RecentStudents(schoolID string, n int) ([]Student, error)
		RecentTeachers(schoolID string, n int) ([]Teacher, error)
		// AttendanceStats returns (present, total) attendance records for the
		// school's students since the given time.
		AttendanceStats(schoolID string, since time.Time) (int, int, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		logger  core.Logger
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		logger:  logger,
	}
}

// Onboard creates the caller's school profile. A user has at most one
// profile and UDISE codes are unique across profiles.
func (svc *Service) Onboard(userID string, ns NewSchoolProfile) (SchoolProfile, error) {
	if _, err := svc.repo.GetSchoolProfileByUser(userID); err == nil {
		return SchoolProfile{}, core.NewValidationError(ErrProfileExists)
	} else if errors.Cause(err) != ErrNotFound {
		return SchoolProfile{}, err
	}

	if ns.UdiseCode != "" {
		if _, err := svc.repo.GetSchoolProfileByUdise(ns.UdiseCode); err == nil {
			return SchoolProfile{}, core.NewValidationError(
				ErrUdiseExists, core.FieldError{Field: "udise_code", Error: ErrUdiseExists.Error()})
		} else if errors.Cause(err) != ErrNotFound {
			return SchoolProfile{}, err
		}
	}

	now := time.Now().UTC()
	sp := SchoolProfile{
		SchoolName:         ns.SchoolName,
		UdiseCode:          ns.UdiseCode,
		Address:            ns.Address,
		City:               ns.City,
		State:              ns.State,
		Pincode:            ns.Pincode,
		ContactPhone:       ns.ContactPhone,
		ContactEmail:       ns.ContactEmail,
		Website:            ns.Website,
		PrincipalName:      ns.PrincipalName,
		PrincipalEmail:     ns.PrincipalEmail,
		PrincipalPhone:     ns.PrincipalPhone,
		OnboardedByUserID:  userID,
		OnboardedByName:    ns.OnboardedByName,
		OnboardedByRole:    ns.OnboardedByRole,
		OnboardedByPhone:   ns.OnboardedByPhone,
		SchoolType:         ns.SchoolType,
		BoardAffiliation:   ns.BoardAffiliation,
		EstablishedYear:    ns.EstablishedYear,
		TotalStudents:      ns.TotalStudents,
		TotalTeachers:      ns.TotalTeachers,
		SubscriptionStatus: SubscriptionPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	sp, err := svc.repo.CreateSchoolProfile(sp)
	if err != nil {
		return SchoolProfile{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{svc.conf.AdminAddress()},
		Subject:      fmt.Sprintf("New school onboarded: %s", sp.SchoolName),
		TemplateName: "onboarding-alert",
		TemplateData: struct{ School SchoolProfile }{sp},
	})
	return sp, nil
}

// Verify applies an admin decision to a profile. Approve activates the
// subscription, reject cancels it; repeating a decision re-applies the same
// terminal state. The outcome mails never affect the transition.
func (svc *Service) Verify(vs VerifySchool, actor string) (SchoolProfile, error) {
	sp, err := svc.repo.GetSchoolProfileByID(vs.SchoolID)
	if err != nil {
		return SchoolProfile{}, err
	}

	now := time.Now().UTC()
	decision := "Rejected"
	sp.IsVerified = vs.Approve
	sp.SubscriptionStatus = SubscriptionCancelled
	if vs.Approve {
		decision = "Approved"
		sp.SubscriptionStatus = SubscriptionActive
	}
	sp.VerificationNotes = fmt.Sprintf("%s by %s on %s", decision, actor, now.Format(time.RFC3339))
	sp.UpdatedAt = now

	sp, err = svc.repo.UpdateSchoolProfile(sp)
	if err != nil {
		return SchoolProfile{}, err
	}

	svc.sendVerificationMails(sp, vs.Approve, actor)
	return sp, nil
}

func (svc *Service) GetByID(id string) (SchoolProfile, error) {
	return svc.repo.GetSchoolProfileByID(id)
}

func (svc *Service) GetByUser(userID string) (SchoolProfile, error) {
	return svc.repo.GetSchoolProfileByUser(userID)
}

func (svc *Service) Filter(filter QueryFilter, ordering ...core.DBOrdering) ([]SchoolProfile, error) {
	filter.Clean()
	return svc.repo.FilterSchoolProfiles(filter, ordering...)
}

// Dashboard assembles the caller's school view: counts, recent records and
// the 7-day attendance percentage.
func (svc *Service) Dashboard(userID string) (Dashboard, error) {
	sp, err := svc.repo.GetSchoolProfileByUser(userID)
	if err != nil {
		return Dashboard{}, err
	}

	dash := Dashboard{Profile: sp}
	if dash.StudentsCount, err = svc.repo.CountStudents(sp.ID); err != nil {
		return Dashboard{}, err
	}
	if dash.TeachersCount, err = svc.repo.CountTeachers(sp.ID); err != nil {
		return Dashboard{}, err
	}
	if dash.RecentStudents, err = svc.repo.RecentStudents(sp.ID, 5); err != nil {
		return Dashboard{}, err
	}
	if dash.RecentTeachers, err = svc.repo.RecentTeachers(sp.ID, 5); err != nil {
		return Dashboard{}, err
	}

	since := time.Now().UTC().AddDate(0, 0, -7)
	present, total, err := svc.repo.AttendanceStats(sp.ID, since)
	if err != nil {
		return Dashboard{}, err
	}
	if total > 0 {
		dash.AttendancePct = float64(present) / float64(total) * 100
	}
	return dash, nil
}

func (svc *Service) sendVerificationMails(sp SchoolProfile, approved bool, actor string) {
	tmpl := "school-rejected"
	subject := "Your Vidwanic school registration"
	if approved {
		tmpl = "school-approved"
		subject = "Welcome aboard! Your school has been verified"
	}
	data := struct {
		School   SchoolProfile
		Approved bool
		Actor    string
	}{sp, approved, actor}

	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: sp.SchoolName, Address: sp.ContactEmail}},
			Subject:      subject,
			TemplateName: tmpl,
			TemplateData: data,
		},
		&core.EmailMessage{
			To:           []mail.Address{svc.conf.AdminAddress()},
			Subject:      fmt.Sprintf("School verification: %s", sp.SchoolName),
			TemplateName: "verification-alert",
			TemplateData: data,
		},
	)
}
