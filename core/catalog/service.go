package catalog

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("publication not found")

type (
	Repository interface {
		CreateMagazine(mag Magazine) (Magazine, error)
		// QueryMagazines returns magazines newest first, with their
		// comments_count and purchases_count aggregates populated.
		QueryMagazines(filter QueryFilter) ([]Magazine, error)
		// GetMagazineByID populates aggregates and the comment list,
		// newest first, authors embedded.
		GetMagazineByID(id string) (Magazine, error)
		// GetMagazinesByID returns only the magazines that exist; the
		// caller detects missing ids by comparing lengths.
		GetMagazinesByID(ids ...string) ([]Magazine, error)
		UpdateMagazine(mag Magazine) (Magazine, error)
		DeleteMagazinesByID(ids ...string) error
		CreateComment(cmt Comment) (Comment, error)
		QueryCommentsByMagazine(magID string) ([]Comment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(nm NewMagazine) (Magazine, error) {
	now := time.Now().UTC()
	mag := Magazine{
		Title:       nm.Title,
		Description: nm.Description,
		ShortDesc:   nm.ShortDesc,
		CoverImage:  nm.CoverImage,
		Price:       nm.Price,
		SuitableFor: nm.SuitableFor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateMagazine(mag)
}

func (svc *Service) Filter(filter QueryFilter) ([]Magazine, error) {
	filter.Clean()
	return svc.repo.QueryMagazines(filter)
}

func (svc *Service) GetByID(id string) (Magazine, error) {
	return svc.repo.GetMagazineByID(id)
}

func (svc *Service) GetManyByID(ids ...string) ([]Magazine, error) {
	return svc.repo.GetMagazinesByID(ids...)
}

func (svc *Service) Update(id string, um UpdateMagazine) (Magazine, error) {
	mag := Magazine{
		ID:          id,
		Title:       um.Title,
		Description: um.Description,
		ShortDesc:   um.ShortDesc,
		CoverImage:  um.CoverImage,
		Price:       um.Price,
		SuitableFor: um.SuitableFor,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateMagazine(mag)
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteMagazinesByID(ids...)
}

// AddComment appends an immutable comment to a magazine.
func (svc *Service) AddComment(magID, userID string, nc NewComment) (Comment, error) {
	if _, err := svc.repo.GetMagazineByID(magID); err != nil {
		return Comment{}, err
	}
	cmt := Comment{
		Content:    nc.Content,
		UserID:     userID,
		MagazineID: magID,
		CreatedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateComment(cmt)
}

func (svc *Service) Comments(magID string) ([]Comment, error) {
	if _, err := svc.repo.GetMagazineByID(magID); err != nil {
		return nil, err
	}
	return svc.repo.QueryCommentsByMagazine(magID)
}
