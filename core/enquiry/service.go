package enquiry

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/user"
)

var ErrNotFound = errors.New("enquiry not found")

type (
	Repository interface {
		CreateEnquiry(enq Enquiry) (Enquiry, error)
		GetEnquiryByID(id string) (Enquiry, error)
		// FilterEnquiries returns a page of enquiries newest first with
		// submitter summaries, plus the total count for the filter.
		FilterEnquiries(filter QueryFilter) ([]Enquiry, int, error)
		UpdateEnquiryStatus(id, status string) (Enquiry, error)
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

// Create records an enquiry for the given user; the contact email is the
// account email. A best-effort alert goes to the admin address.
func (svc *Service) Create(usr user.User, ne NewEnquiry) (Enquiry, error) {
	enq := Enquiry{
		Name:         ne.Name,
		Email:        usr.Email,
		Organization: ne.Organization,
		Message:      ne.Message,
		ContactType:  ne.ContactType,
		Status:       StatusPending,
		UserID:       usr.ID,
		CreatedAt:    time.Now().UTC(),
	}
	enq, err := svc.repo.CreateEnquiry(enq)
	if err != nil {
		return Enquiry{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{svc.conf.AdminAddress()},
		Subject:      fmt.Sprintf("New %s enquiry from %s", enq.ContactType, enq.Name),
		TemplateName: "enquiry-alert",
		TemplateData: struct{ Enquiry Enquiry }{enq},
	})
	return enq, nil
}

func (svc *Service) GetByID(id string) (Enquiry, error) {
	return svc.repo.GetEnquiryByID(id)
}

func (svc *Service) Filter(filter QueryFilter) ([]Enquiry, int, error) {
	filter.Clean()
	return svc.repo.FilterEnquiries(filter)
}

func (svc *Service) UpdateStatus(id string, us UpdateEnquiryStatus) (Enquiry, error) {
	return svc.repo.UpdateEnquiryStatus(id, us.Status)
}
