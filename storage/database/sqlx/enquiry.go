package sqlxrepos

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidwanic/backend/core/enquiry"
)

type enquiryRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Email        string      `db:"email"`
	Organization null.String `db:"organization"`
	Message      string      `db:"message"`
	ContactType  string      `db:"contact_type"`
	Status       string      `db:"status"`
	UserID       string      `db:"user_id"`
	CreatedAt    time.Time   `db:"created_at"`

	SubmitterName  string      `db:"submitter_name"`
	SubmitterEmail string      `db:"submitter_email"`
	SubmitterImage null.String `db:"submitter_image"`
}

func (r enquiryRow) unpack() enquiry.Enquiry {
	return enquiry.Enquiry{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Organization: r.Organization.String,
		Message:      r.Message,
		ContactType:  r.ContactType,
		Status:       r.Status,
		UserID:       r.UserID,
		CreatedAt:    r.CreatedAt,
		Submitter: enquiry.Submitter{
			ID:    r.UserID,
			Name:  r.SubmitterName,
			Email: r.SubmitterEmail,
			Image: r.SubmitterImage.String,
		},
	}
}

const enquiryQuery = `
	SELECT e.*, u.name AS submitter_name, u.email AS submitter_email, u.image AS submitter_image
	FROM enquiry e
	JOIN "user" u ON u.id = e.user_id`

type enquiryRepository struct {
	db *sqlx.DB
}

var _ enquiry.Repository = (*enquiryRepository)(nil) // interface compliance check

func NewEnquiryRepository(db *sqlx.DB) *enquiryRepository {
	return &enquiryRepository{db: db}
}

func (repo enquiryRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return enquiry.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo enquiryRepository) CreateEnquiry(enq enquiry.Enquiry) (enquiry.Enquiry, error) {
	enq.ID = uuid.New().String()
	query := `
		INSERT INTO enquiry (id, name, email, organization, message, contact_type, status, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.Exec(query, enq.ID, enq.Name, enq.Email,
		null.NewString(enq.Organization, enq.Organization != ""), enq.Message, enq.ContactType,
		enq.Status, enq.UserID, enq.CreatedAt)
	if err != nil {
		return enquiry.Enquiry{}, errors.Wrap(err, "inserting enquiry")
	}
	return repo.GetEnquiryByID(enq.ID)
}

func (repo enquiryRepository) GetEnquiryByID(id string) (enquiry.Enquiry, error) {
	var row enquiryRow
	if err := repo.db.Get(&row, enquiryQuery+" WHERE e.id = $1", id); err != nil {
		return enquiry.Enquiry{}, repo.trapNoRowsErr(err, "getting enquiry")
	}
	return row.unpack(), nil
}

func (repo enquiryRepository) FilterEnquiries(filter enquiry.QueryFilter) ([]enquiry.Enquiry, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		conds = append(conds, "e.status = ?")
		args = append(args, filter.Status)
	}
	if filter.ContactType != "" {
		conds = append(conds, "e.contact_type = ?")
		args = append(args, filter.ContactType)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM enquiry e" + where
	if err := repo.db.Get(&total, repo.db.Rebind(countQuery), args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting enquiries")
	}

	query := enquiryQuery + where + " ORDER BY e.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	var rows []enquiryRow
	if err := repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering enquiries")
	}
	enqs := make([]enquiry.Enquiry, 0, len(rows))
	for _, r := range rows {
		enqs = append(enqs, r.unpack())
	}
	return enqs, total, nil
}

func (repo enquiryRepository) UpdateEnquiryStatus(id, status string) (enquiry.Enquiry, error) {
	res, err := repo.db.Exec("UPDATE enquiry SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return enquiry.Enquiry{}, errors.Wrap(err, "updating enquiry status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enquiry.Enquiry{}, enquiry.ErrNotFound
	}
	return repo.GetEnquiryByID(id)
}
