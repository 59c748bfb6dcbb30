package school

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidwanic/backend/core"
)

// subscription statuses
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

type (
	// SchoolProfile is a school's registration record. It is created once
	// per user and moved out of pending by an admin verification decision.
	SchoolProfile struct {
		ID         string `json:"id"`
		SchoolName string `json:"school_name"`
		UdiseCode  string `json:"udise_code,omitempty"`

		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
		Pincode string `json:"pincode"`

		ContactPhone string `json:"contact_phone"`
		ContactEmail string `json:"contact_email"`
		Website      string `json:"website,omitempty"`

		PrincipalName  string `json:"principal_name"`
		PrincipalEmail string `json:"principal_email,omitempty"`
		PrincipalPhone string `json:"principal_phone,omitempty"`

		OnboardedByUserID string `json:"onboarded_by_user_id"`
		OnboardedByName   string `json:"onboarded_by_name"`
		OnboardedByRole   string `json:"onboarded_by_role"`
		OnboardedByPhone  string `json:"onboarded_by_phone,omitempty"`

		SchoolType       string `json:"school_type"`
		BoardAffiliation string `json:"board_affiliation,omitempty"`
		EstablishedYear  *int   `json:"established_year,omitempty"`
		TotalStudents    *int   `json:"total_students,omitempty"`
		TotalTeachers    *int   `json:"total_teachers,omitempty"`

		IsVerified         bool   `json:"is_verified"`
		UdiseVerified      bool   `json:"udise_verified"`
		SubscriptionStatus string `json:"subscription_status"`
		VerificationNotes  string `json:"verification_notes,omitempty"`

		CreatedAt time.Time `json:"created_at"` // UTC
		UpdatedAt time.Time `json:"updated_at"` // UTC
	}

	Student struct {
		ID         string    `json:"id"`
		SchoolID   string    `json:"school_id"`
		Name       string    `json:"name"`
		Class      string    `json:"class"`
		Section    string    `json:"section,omitempty"`
		RollNumber string    `json:"roll_number,omitempty"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	Teacher struct {
		ID         string    `json:"id"`
		SchoolID   string    `json:"school_id"`
		Name       string    `json:"name"`
		Subject    string    `json:"subject,omitempty"`
		Experience *int      `json:"experience,omitempty"`
		CreatedAt  time.Time `json:"created_at"` // UTC
	}

	Attendance struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		Date      time.Time `json:"date"`
		Status    string    `json:"status"` // present, absent
	}

	// Dashboard aggregates a school's own view of its data. Order history
	// is attached at the API layer.
	Dashboard struct {
		Profile        SchoolProfile `json:"profile"`
		StudentsCount  int           `json:"students_count"`
		TeachersCount  int           `json:"teachers_count"`
		RecentStudents []Student     `json:"recent_students"`
		RecentTeachers []Teacher     `json:"recent_teachers"`
		// AttendancePct is the present percentage over the last 7 days,
		// 0 when no attendance was recorded.
		AttendancePct float64 `json:"attendance_pct"`
	}
)

// NewSchoolProfile contains information needed to onboard a school.
type NewSchoolProfile struct {
	SchoolName string `json:"school_name" validate:"required"`
	UdiseCode  string `json:"udise_code" validate:"omitempty,alphanum"`

	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,numeric,len=6"`

	ContactPhone string `json:"contact_phone" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	Website      string `json:"website" validate:"omitempty,url"`

	PrincipalName  string `json:"principal_name" validate:"required"`
	PrincipalEmail string `json:"principal_email" validate:"omitempty,email"`
	PrincipalPhone string `json:"principal_phone"`

	OnboardedByName  string `json:"onboarded_by_name" validate:"required"`
	OnboardedByRole  string `json:"onboarded_by_role" validate:"required"`
	OnboardedByPhone string `json:"onboarded_by_phone"`

	SchoolType       string `json:"school_type" validate:"required,oneof=government government_aided private international other"`
	BoardAffiliation string `json:"board_affiliation"`
	EstablishedYear  *int   `json:"established_year" validate:"omitempty,gte=1800,lte=2100"`
	TotalStudents    *int   `json:"total_students" validate:"omitempty,gte=0"`
	TotalTeachers    *int   `json:"total_teachers" validate:"omitempty,gte=0"`
}

func (ns *NewSchoolProfile) Validate(validate *validator.Validate) error {
	ns.SchoolName = core.CleanString(ns.SchoolName)
	ns.UdiseCode = core.CleanString(ns.UdiseCode, true /* lower */)
	ns.Address = core.CleanString(ns.Address)
	ns.City = core.CleanString(ns.City)
	ns.State = core.CleanString(ns.State)
	ns.Pincode = core.CleanString(ns.Pincode)
	ns.ContactPhone = core.CleanString(ns.ContactPhone)
	ns.ContactEmail = core.CleanString(ns.ContactEmail, true /* lower */)
	ns.PrincipalName = core.CleanString(ns.PrincipalName)
	ns.PrincipalEmail = core.CleanString(ns.PrincipalEmail, true /* lower */)
	ns.OnboardedByName = core.CleanString(ns.OnboardedByName)
	ns.OnboardedByRole = core.CleanString(ns.OnboardedByRole)
	return validate.Struct(ns)
}

// VerifySchool is an admin verification decision for a pending (or
// previously decided) school profile.
type VerifySchool struct {
	SchoolID string `json:"school_id" validate:"required"`
	Approve  bool   `json:"approve"`
}

func (vs VerifySchool) Validate(validate *validator.Validate) error { return validate.Struct(vs) }

type QueryFilter struct {
	Search     string `query:"search"`
	IsVerified *bool  `query:"is_verified"`
	Status     string `query:"status" validate:"omitempty,oneof=pending active cancelled"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
