package enquiry

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidwanic/backend/core"
)

// enquiry statuses
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusOther      = "other"
)

type (
	// Enquiry is a contact-form submission routed to admin review. The
	// email is taken from the submitting user, never from the form.
	Enquiry struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		Organization string    `json:"organization,omitempty"`
		Message      string    `json:"message"`
		ContactType  string    `json:"contact_type"`
		Status       string    `json:"status"`
		UserID       string    `json:"user_id"`
		CreatedAt    time.Time `json:"created_at"` // UTC

		Submitter Submitter `json:"submitter"`
	}

	// Submitter is the admin-facing summary of the submitting user.
	Submitter struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Image string `json:"image,omitempty"`
	}
)

// NewEnquiry contains information needed to create a new Enquiry.
type NewEnquiry struct {
	Name         string `json:"name" validate:"required"`
	Organization string `json:"organization"`
	Message      string `json:"message" validate:"required"`
	ContactType  string `json:"contact_type" validate:"required,oneof=school parent teacher student other"`
}

func (ne *NewEnquiry) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Organization = core.CleanString(ne.Organization)
	ne.Message = core.CleanString(ne.Message)
	ne.ContactType = core.CleanString(ne.ContactType, true /* lower */)
	return validate.Struct(ne)
}

// UpdateEnquiryStatus moves an enquiry through admin triage.
type UpdateEnquiryStatus struct {
	Status string `json:"status" validate:"required,oneof=pending in_progress resolved other"`
}

func (us *UpdateEnquiryStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	return validate.Struct(us)
}

type QueryFilter struct {
	Limit       int    `query:"limit"`
	Offset      int    `query:"offset" validate:"omitempty,gte=0"`
	Status      string `query:"status" validate:"omitempty,oneof=pending in_progress resolved other"`
	ContactType string `query:"contact_type"`
}

func (qf *QueryFilter) Clean() {
	if qf.Limit <= 0 {
		qf.Limit = 20
	}
	if qf.Offset < 0 {
		qf.Offset = 0
	}
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.ContactType = core.CleanString(qf.ContactType, true /* lower */)
}
