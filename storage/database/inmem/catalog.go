package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/vidwanic/backend/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

// aggregates recomputes the flattened counts for a magazine. Callers hold
// the db mutex.
func (repo *catalogRepository) aggregates(mag *catalog.Magazine) catalog.Magazine {
	res := *mag
	res.CommentsCount = 0
	for _, cmt := range repo.db.comments {
		if cmt.MagazineID == mag.ID {
			res.CommentsCount++
		}
	}
	res.PurchasesCount = 0
	for _, ord := range repo.db.orders {
		for _, item := range ord.Items {
			if item.MagazineID == mag.ID {
				res.PurchasesCount++
			}
		}
	}
	return res
}

func (repo *catalogRepository) comments(magID string) []catalog.Comment {
	var cmts []catalog.Comment
	for _, cmt := range repo.db.comments {
		if cmt.MagazineID == magID {
			cmts = append(cmts, repo.withAuthor(*cmt))
		}
	}
	sort.Slice(cmts, func(i, j int) bool { return repo.db.newestFirst(cmts[i].ID, cmts[j].ID) })
	return cmts
}

func (repo *catalogRepository) withAuthor(cmt catalog.Comment) catalog.Comment {
	if usr, ok := repo.db.users[cmt.UserID]; ok {
		cmt.Author = catalog.CommentAuthor{ID: usr.ID, Name: usr.Name, Image: usr.Image}
	}
	return cmt
}

func (repo *catalogRepository) CreateMagazine(mag catalog.Magazine) (catalog.Magazine, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	mag.ID = uuid.New().String()
	repo.db.magazines[mag.ID] = &mag
	repo.db.track(mag.ID)
	return mag, nil
}

func (repo *catalogRepository) QueryMagazines(filter catalog.QueryFilter) ([]catalog.Magazine, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	mags := make([]catalog.Magazine, 0, len(repo.db.magazines))
	for _, mag := range repo.db.magazines {
		mags = append(mags, repo.aggregates(mag))
	}
	sort.Slice(mags, func(i, j int) bool { return repo.db.newestFirst(mags[i].ID, mags[j].ID) })

	if filter.Offset >= len(mags) {
		return []catalog.Magazine{}, nil
	}
	mags = mags[filter.Offset:]
	if filter.Limit < len(mags) {
		mags = mags[:filter.Limit]
	}
	return mags, nil
}

func (repo *catalogRepository) GetMagazineByID(id string) (catalog.Magazine, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	mag, ok := repo.db.magazines[id]
	if !ok {
		return catalog.Magazine{}, catalog.ErrNotFound
	}
	res := repo.aggregates(mag)
	res.Comments = repo.comments(id)
	return res, nil
}

func (repo *catalogRepository) GetMagazinesByID(ids ...string) ([]catalog.Magazine, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	seen := make(map[string]struct{}, len(ids))
	mags := make([]catalog.Magazine, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if mag, ok := repo.db.magazines[id]; ok {
			mags = append(mags, *mag)
		}
	}
	return mags, nil
}

func (repo *catalogRepository) UpdateMagazine(mag catalog.Magazine) (catalog.Magazine, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.magazines[mag.ID]
	if !ok {
		return catalog.Magazine{}, catalog.ErrNotFound
	}
	orig.Title = mag.Title
	orig.Description = mag.Description
	orig.ShortDesc = mag.ShortDesc
	orig.CoverImage = mag.CoverImage
	orig.Price = mag.Price
	orig.SuitableFor = mag.SuitableFor
	orig.UpdatedAt = mag.UpdatedAt
	return repo.aggregates(orig), nil
}

func (repo *catalogRepository) DeleteMagazinesByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.magazines, id)
		// cascade
		for cid, cmt := range repo.db.comments {
			if cmt.MagazineID == id {
				delete(repo.db.comments, cid)
			}
		}
	}
	return nil
}

func (repo *catalogRepository) CreateComment(cmt catalog.Comment) (catalog.Comment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cmt.ID = uuid.New().String()
	repo.db.comments[cmt.ID] = &cmt
	repo.db.track(cmt.ID)
	return repo.withAuthor(cmt), nil
}

func (repo *catalogRepository) QueryCommentsByMagazine(magID string) ([]catalog.Comment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.comments(magID), nil
}
