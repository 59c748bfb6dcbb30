package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/school"
)

type schoolProfileRow struct {
	ID         string      `db:"id"`
	SchoolName string      `db:"school_name"`
	UdiseCode  null.String `db:"udise_code"`

	Address string `db:"address"`
	City    string `db:"city"`
	State   string `db:"state"`
	Pincode string `db:"pincode"`

	ContactPhone string      `db:"contact_phone"`
	ContactEmail string      `db:"contact_email"`
	Website      null.String `db:"website"`

	PrincipalName  string `db:"principal_name"`
	PrincipalEmail string `db:"principal_email"`
	PrincipalPhone string `db:"principal_phone"`

	OnboardedByUserID string `db:"onboarded_by_user_id"`
	OnboardedByName   string `db:"onboarded_by_name"`
	OnboardedByRole   string `db:"onboarded_by_role"`
	OnboardedByPhone  string `db:"onboarded_by_phone"`

	SchoolType       string      `db:"school_type"`
	BoardAffiliation null.String `db:"board_affiliation"`
	EstablishedYear  null.Int    `db:"established_year"`
	TotalStudents    null.Int    `db:"total_students"`
	TotalTeachers    null.Int    `db:"total_teachers"`

	IsVerified         bool        `db:"is_verified"`
	UdiseVerified      bool        `db:"udise_verified"`
	SubscriptionStatus string      `db:"subscription_status"`
	VerificationNotes  null.String `db:"verification_notes"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r schoolProfileRow) unpack() school.SchoolProfile {
	return school.SchoolProfile{
		ID:                 r.ID,
		SchoolName:         r.SchoolName,
		UdiseCode:          r.UdiseCode.String,
		Address:            r.Address,
		City:               r.City,
		State:              r.State,
		Pincode:            r.Pincode,
		ContactPhone:       r.ContactPhone,
		ContactEmail:       r.ContactEmail,
		Website:            r.Website.String,
		PrincipalName:      r.PrincipalName,
		PrincipalEmail:     r.PrincipalEmail,
		PrincipalPhone:     r.PrincipalPhone,
		OnboardedByUserID:  r.OnboardedByUserID,
		OnboardedByName:    r.OnboardedByName,
		OnboardedByRole:    r.OnboardedByRole,
		OnboardedByPhone:   r.OnboardedByPhone,
		SchoolType:         r.SchoolType,
		BoardAffiliation:   r.BoardAffiliation.String,
		EstablishedYear:    intPtr(r.EstablishedYear),
		TotalStudents:      intPtr(r.TotalStudents),
		TotalTeachers:      intPtr(r.TotalTeachers),
		IsVerified:         r.IsVerified,
		UdiseVerified:      r.UdiseVerified,
		SubscriptionStatus: r.SubscriptionStatus,
		VerificationNotes:  r.VerificationNotes.String,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func packSchoolProfile(sp school.SchoolProfile) schoolProfileRow {
	return schoolProfileRow{
		ID:                 sp.ID,
		SchoolName:         sp.SchoolName,
		UdiseCode:          null.NewString(sp.UdiseCode, sp.UdiseCode != ""),
		Address:            sp.Address,
		City:               sp.City,
		State:              sp.State,
		Pincode:            sp.Pincode,
		ContactPhone:       sp.ContactPhone,
		ContactEmail:       sp.ContactEmail,
		Website:            null.NewString(sp.Website, sp.Website != ""),
		PrincipalName:      sp.PrincipalName,
		PrincipalEmail:     sp.PrincipalEmail,
		PrincipalPhone:     sp.PrincipalPhone,
		OnboardedByUserID:  sp.OnboardedByUserID,
		OnboardedByName:    sp.OnboardedByName,
		OnboardedByRole:    sp.OnboardedByRole,
		OnboardedByPhone:   sp.OnboardedByPhone,
		SchoolType:         sp.SchoolType,
		BoardAffiliation:   null.NewString(sp.BoardAffiliation, sp.BoardAffiliation != ""),
		EstablishedYear:    nullIntPtr(sp.EstablishedYear),
		TotalStudents:      nullIntPtr(sp.TotalStudents),
		TotalTeachers:      nullIntPtr(sp.TotalTeachers),
		IsVerified:         sp.IsVerified,
		UdiseVerified:      sp.UdiseVerified,
		SubscriptionStatus: sp.SubscriptionStatus,
		VerificationNotes:  null.NewString(sp.VerificationNotes, sp.VerificationNotes != ""),
		CreatedAt:          sp.CreatedAt,
		UpdatedAt:          sp.UpdatedAt,
	}
}

func intPtr(n null.Int) *int {
	if !n.Valid {
		return nil
	}
	val := n.Int
	return &val
}

func nullIntPtr(p *int) null.Int {
	if p == nil {
		return null.Int{}
	}
	return null.IntFrom(*p)
}

type studentRow struct {
	ID         string      `db:"id"`
	SchoolID   string      `db:"school_id"`
	Name       string      `db:"name"`
	Class      string      `db:"class"`
	Section    null.String `db:"section"`
	RollNumber null.String `db:"roll_number"`
	CreatedAt  time.Time   `db:"created_at"`
}

type teacherRow struct {
	ID         string      `db:"id"`
	SchoolID   string      `db:"school_id"`
	Name       string      `db:"name"`
	Subject    null.String `db:"subject"`
	Experience null.Int    `db:"experience"`
	CreatedAt  time.Time   `db:"created_at"`
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

func (repo schoolRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return school.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo schoolRepository) CreateSchoolProfile(sp school.SchoolProfile) (school.SchoolProfile, error) {
	sp.ID = uuid.New().String()
	query := `
		INSERT INTO school_profile (
			id, school_name, udise_code, address, city, state, pincode,
			contact_phone, contact_email, website,
			principal_name, principal_email, principal_phone,
			onboarded_by_user_id, onboarded_by_name, onboarded_by_role, onboarded_by_phone,
			school_type, board_affiliation, established_year, total_students, total_teachers,
			is_verified, udise_verified, subscription_status, verification_notes,
			created_at, updated_at
		) VALUES (
			:id, :school_name, :udise_code, :address, :city, :state, :pincode,
			:contact_phone, :contact_email, :website,
			:principal_name, :principal_email, :principal_phone,
			:onboarded_by_user_id, :onboarded_by_name, :onboarded_by_role, :onboarded_by_phone,
			:school_type, :board_affiliation, :established_year, :total_students, :total_teachers,
			:is_verified, :udise_verified, :subscription_status, :verification_notes,
			:created_at, :updated_at
		)`
	if _, err := repo.db.NamedExec(query, packSchoolProfile(sp)); err != nil {
		return school.SchoolProfile{}, errors.Wrap(err, "inserting school profile")
	}
	return sp, nil
}

func (repo schoolRepository) getBy(where string, args ...interface{}) (school.SchoolProfile, error) {
	var row schoolProfileRow
	if err := repo.db.Get(&row, "SELECT * FROM school_profile WHERE "+where, args...); err != nil {
		return school.SchoolProfile{}, repo.trapNoRowsErr(err, "getting school profile")
	}
	return row.unpack(), nil
}

func (repo schoolRepository) GetSchoolProfileByID(id string) (school.SchoolProfile, error) {
	return repo.getBy("id = $1", id)
}

func (repo schoolRepository) GetSchoolProfileByUser(userID string) (school.SchoolProfile, error) {
	return repo.getBy("onboarded_by_user_id = $1", userID)
}

func (repo schoolRepository) GetSchoolProfileByUdise(udiseCode string) (school.SchoolProfile, error) {
	return repo.getBy("udise_code = $1", udiseCode)
}

func (repo schoolRepository) FilterSchoolProfiles(filter school.QueryFilter, ordering ...core.DBOrdering) ([]school.SchoolProfile, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, "(school_name ILIKE ? OR city ILIKE ? OR udise_code ILIKE ?)")
		args = append(args, val, val, val)
	}
	if filter.IsVerified != nil {
		conds = append(conds, "is_verified = ?")
		args = append(args, *filter.IsVerified)
	}
	if filter.Status != "" {
		conds = append(conds, "subscription_status = ?")
		args = append(args, filter.Status)
	}

	query := "SELECT * FROM school_profile"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + orderBy(ordering, "created_at DESC")

	var rows []schoolProfileRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "filtering school profiles")
	}
	profiles := make([]school.SchoolProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.unpack())
	}
	return profiles, nil
}

func (repo schoolRepository) UpdateSchoolProfile(sp school.SchoolProfile) (school.SchoolProfile, error) {
	query := `
		UPDATE school_profile
		SET is_verified = :is_verified, udise_verified = :udise_verified,
		    subscription_status = :subscription_status, verification_notes = :verification_notes,
		    updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, packSchoolProfile(sp))
	if err != nil {
		return school.SchoolProfile{}, errors.Wrap(err, "updating school profile")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return school.SchoolProfile{}, school.ErrNotFound
	}
	return sp, nil
}

func (repo schoolRepository) CountStudents(schoolID string) (int, error) {
	var count int
	if err := repo.db.Get(&count, "SELECT COUNT(*) FROM student WHERE school_id = $1", schoolID); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}

func (repo schoolRepository) CountTeachers(schoolID string) (int, error) {
	var count int
	if err := repo.db.Get(&count, "SELECT COUNT(*) FROM teacher WHERE school_id = $1", schoolID); err != nil {
		return 0, errors.Wrap(err, "counting teachers")
	}
	return count, nil
}

func (repo schoolRepository) RecentStudents(schoolID string, n int) ([]school.Student, error) {
	var rows []studentRow
	query := "SELECT * FROM student WHERE school_id = $1 ORDER BY created_at DESC LIMIT $2"
	if err := repo.db.Select(&rows, query, schoolID, n); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]school.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, school.Student{
			ID:         r.ID,
			SchoolID:   r.SchoolID,
			Name:       r.Name,
			Class:      r.Class,
			Section:    r.Section.String,
			RollNumber: r.RollNumber.String,
			CreatedAt:  r.CreatedAt,
		})
	}
	return students, nil
}

func (repo schoolRepository) RecentTeachers(schoolID string, n int) ([]school.Teacher, error) {
	var rows []teacherRow
	query := "SELECT * FROM teacher WHERE school_id = $1 ORDER BY created_at DESC LIMIT $2"
	if err := repo.db.Select(&rows, query, schoolID, n); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]school.Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, school.Teacher{
			ID:         r.ID,
			SchoolID:   r.SchoolID,
			Name:       r.Name,
			Subject:    r.Subject.String,
			Experience: intPtr(r.Experience),
			CreatedAt:  r.CreatedAt,
		})
	}
	return teachers, nil
}

func (repo schoolRepository) AttendanceStats(schoolID string, since time.Time) (int, int, error) {
	var stats struct {
		Present int `db:"present"`
		Total   int `db:"total"`
	}
	query := `
		SELECT COUNT(*) FILTER (WHERE a.status = 'present') AS present, COUNT(*) AS total
		FROM attendance a
		JOIN student s ON s.id = a.student_id
		WHERE s.school_id = $1 AND a.date >= $2`
	if err := repo.db.Get(&stats, query, schoolID, since); err != nil {
		return 0, 0, errors.Wrap(err, "querying attendance stats")
	}
	return stats.Present, stats.Total, nil
}
