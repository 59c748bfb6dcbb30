package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/vidwanic/backend/core/catalog"
)

type magazineRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	Description     string      `db:"description"`
	ShortDesc       null.String `db:"short_desc"`
	CoverImage      null.String `db:"cover_image"`
	Price           int         `db:"price"`
	SuitableFor     string      `db:"suitable_for"`
	TotalPurchases  int         `db:"total_purchases"`
	SchoolPurchases int         `db:"school_purchases"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`

	CommentsCount  int `db:"comments_count"`
	PurchasesCount int `db:"purchases_count"`
}

func (r magazineRow) unpack() catalog.Magazine {
	return catalog.Magazine{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		ShortDesc:       r.ShortDesc.String,
		CoverImage:      r.CoverImage.String,
		Price:           r.Price,
		SuitableFor:     r.SuitableFor,
		TotalPurchases:  r.TotalPurchases,
		SchoolPurchases: r.SchoolPurchases,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		CommentsCount:   r.CommentsCount,
		PurchasesCount:  r.PurchasesCount,
	}
}

type commentRow struct {
	ID          string      `db:"id"`
	Content     string      `db:"content"`
	UserID      string      `db:"user_id"`
	MagazineID  string      `db:"magazine_id"`
	CreatedAt   time.Time   `db:"created_at"`
	AuthorName  string      `db:"author_name"`
	AuthorImage null.String `db:"author_image"`
}

func (r commentRow) unpack() catalog.Comment {
	return catalog.Comment{
		ID:         r.ID,
		Content:    r.Content,
		UserID:     r.UserID,
		MagazineID: r.MagazineID,
		CreatedAt:  r.CreatedAt,
		Author: catalog.CommentAuthor{
			ID:    r.UserID,
			Name:  r.AuthorName,
			Image: r.AuthorImage.String,
		},
	}
}

// magazineQuery flattens the comment and school-order aggregates onto each row.
const magazineQuery = `
	SELECT m.*,
	       (SELECT COUNT(*) FROM comment c WHERE c.magazine_id = m.id) AS comments_count,
	       (SELECT COUNT(*) FROM school_order_item i WHERE i.magazine_id = m.id) AS purchases_count
	FROM magazine m`

const commentQuery = `
	SELECT c.*, u.name AS author_name, u.image AS author_image
	FROM comment c
	JOIN "user" u ON u.id = c.user_id`

type catalogRepository struct {
	db *sqlx.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *sqlx.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo catalogRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return catalog.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo catalogRepository) CreateMagazine(mag catalog.Magazine) (catalog.Magazine, error) {
	mag.ID = uuid.New().String()
	query := `
		INSERT INTO magazine (id, title, description, short_desc, cover_image, price, suitable_for, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := repo.db.Exec(query, mag.ID, mag.Title, mag.Description,
		null.NewString(mag.ShortDesc, mag.ShortDesc != ""), null.NewString(mag.CoverImage, mag.CoverImage != ""),
		mag.Price, mag.SuitableFor, mag.CreatedAt, mag.UpdatedAt)
	if err != nil {
		return catalog.Magazine{}, errors.Wrap(err, "inserting magazine")
	}
	return mag, nil
}

func (repo catalogRepository) QueryMagazines(filter catalog.QueryFilter) ([]catalog.Magazine, error) {
	var rows []magazineRow
	query := magazineQuery + " ORDER BY m.created_at DESC LIMIT $1 OFFSET $2"
	if err := repo.db.Select(&rows, query, filter.Limit, filter.Offset); err != nil {
		return nil, errors.Wrap(err, "querying magazines")
	}
	mags := make([]catalog.Magazine, 0, len(rows))
	for _, r := range rows {
		mags = append(mags, r.unpack())
	}
	return mags, nil
}

func (repo catalogRepository) GetMagazineByID(id string) (catalog.Magazine, error) {
	var row magazineRow
	if err := repo.db.Get(&row, magazineQuery+" WHERE m.id = $1", id); err != nil {
		return catalog.Magazine{}, repo.trapNoRowsErr(err, "getting magazine")
	}
	mag := row.unpack()

	cmts, err := repo.QueryCommentsByMagazine(id)
	if err != nil {
		return catalog.Magazine{}, err
	}
	mag.Comments = cmts
	return mag, nil
}

func (repo catalogRepository) GetMagazinesByID(ids ...string) ([]catalog.Magazine, error) {
	if len(ids) == 0 {
		return []catalog.Magazine{}, nil
	}
	query, args, err := sqlx.In("SELECT * FROM magazine WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying magazines")
	}
	var rows []magazineRow
	if err = repo.db.Select(&rows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying magazines")
	}
	mags := make([]catalog.Magazine, 0, len(rows))
	for _, r := range rows {
		mags = append(mags, r.unpack())
	}
	return mags, nil
}

func (repo catalogRepository) UpdateMagazine(mag catalog.Magazine) (catalog.Magazine, error) {
	// counters are deliberately left alone; only order creation moves them
	query := `
		UPDATE magazine
		SET title = $1, description = $2, short_desc = $3, cover_image = $4,
		    price = $5, suitable_for = $6, updated_at = $7
		WHERE id = $8`
	res, err := repo.db.Exec(query, mag.Title, mag.Description,
		null.NewString(mag.ShortDesc, mag.ShortDesc != ""), null.NewString(mag.CoverImage, mag.CoverImage != ""),
		mag.Price, mag.SuitableFor, mag.UpdatedAt, mag.ID)
	if err != nil {
		return catalog.Magazine{}, errors.Wrap(err, "updating magazine")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Magazine{}, catalog.ErrNotFound
	}
	return repo.GetMagazineByID(mag.ID)
}

func (repo catalogRepository) DeleteMagazinesByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	// comments cascade
	query, args, err := sqlx.In("DELETE FROM magazine WHERE id IN (?)", ids)
	if err != nil {
		return errors.Wrap(err, "deleting magazines")
	}
	if _, err = repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting magazines")
	}
	return nil
}

func (repo catalogRepository) CreateComment(cmt catalog.Comment) (catalog.Comment, error) {
	cmt.ID = uuid.New().String()
	query := `INSERT INTO comment (id, content, user_id, magazine_id, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.Exec(query, cmt.ID, cmt.Content, cmt.UserID, cmt.MagazineID, cmt.CreatedAt); err != nil {
		return catalog.Comment{}, errors.Wrap(err, "inserting comment")
	}

	var row commentRow
	if err := repo.db.Get(&row, commentQuery+" WHERE c.id = $1", cmt.ID); err != nil {
		return catalog.Comment{}, errors.Wrap(err, "getting comment")
	}
	return row.unpack(), nil
}

func (repo catalogRepository) QueryCommentsByMagazine(magID string) ([]catalog.Comment, error) {
	var rows []commentRow
	query := commentQuery + " WHERE c.magazine_id = $1 ORDER BY c.created_at DESC"
	if err := repo.db.Select(&rows, query, magID); err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	cmts := make([]catalog.Comment, 0, len(rows))
	for _, r := range rows {
		cmts = append(cmts, r.unpack())
	}
	return cmts, nil
}
