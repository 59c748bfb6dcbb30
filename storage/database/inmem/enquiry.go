package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/vidwanic/backend/core/enquiry"
)

type enquiryRepository struct {
	db *DB
}

var _ enquiry.Repository = (*enquiryRepository)(nil) // interface compliance check

func NewEnquiryRepository(db *DB) *enquiryRepository {
	return &enquiryRepository{db: db}
}

func (repo *enquiryRepository) withSubmitter(enq enquiry.Enquiry) enquiry.Enquiry {
	if usr, ok := repo.db.users[enq.UserID]; ok {
		enq.Submitter = enquiry.Submitter{ID: usr.ID, Name: usr.Name, Email: usr.Email, Image: usr.Image}
	}
	return enq
}

func (repo *enquiryRepository) CreateEnquiry(enq enquiry.Enquiry) (enquiry.Enquiry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enq.ID = uuid.New().String()
	repo.db.enquiries[enq.ID] = &enq
	repo.db.track(enq.ID)
	return repo.withSubmitter(enq), nil
}

func (repo *enquiryRepository) GetEnquiryByID(id string) (enquiry.Enquiry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if enq, ok := repo.db.enquiries[id]; ok {
		return repo.withSubmitter(*enq), nil
	}
	return enquiry.Enquiry{}, enquiry.ErrNotFound
}

func (repo *enquiryRepository) FilterEnquiries(filter enquiry.QueryFilter) ([]enquiry.Enquiry, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var enqs []enquiry.Enquiry
	for _, enq := range repo.db.enquiries {
		if filter.Status != "" && enq.Status != filter.Status {
			continue
		}
		if filter.ContactType != "" && enq.ContactType != filter.ContactType {
			continue
		}
		enqs = append(enqs, repo.withSubmitter(*enq))
	}
	sort.Slice(enqs, func(i, j int) bool { return repo.db.newestFirst(enqs[i].ID, enqs[j].ID) })

	total := len(enqs)
	if filter.Offset >= total {
		return []enquiry.Enquiry{}, total, nil
	}
	enqs = enqs[filter.Offset:]
	if filter.Limit < len(enqs) {
		enqs = enqs[:filter.Limit]
	}
	return enqs, total, nil
}

func (repo *enquiryRepository) UpdateEnquiryStatus(id, status string) (enquiry.Enquiry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enq, ok := repo.db.enquiries[id]
	if !ok {
		return enquiry.Enquiry{}, enquiry.ErrNotFound
	}
	enq.Status = status
	return repo.withSubmitter(*enq), nil
}
