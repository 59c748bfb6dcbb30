package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vidwanic/backend/core"
)

type (
	// Magazine is a catalog publication. The purchase counters only move
	// forward, and only as part of successful order creation.
	Magazine struct {
		ID              string    `json:"id"`
		Title           string    `json:"title"`
		Description     string    `json:"description"`
		ShortDesc       string    `json:"short_desc,omitempty"`
		CoverImage      string    `json:"cover_image,omitempty"`
		Price           int       `json:"price"`
		SuitableFor     string    `json:"suitable_for"`
		TotalPurchases  int       `json:"total_purchases"`
		SchoolPurchases int       `json:"school_purchases"`
		CreatedAt       time.Time `json:"created_at"` // UTC
		UpdatedAt       time.Time `json:"updated_at"` // UTC

		// aggregates, populated on reads
		CommentsCount  int       `json:"comments_count"`
		PurchasesCount int       `json:"purchases_count"`
		Comments       []Comment `json:"comments,omitempty"`
	}

	Comment struct {
		ID         string        `json:"id"`
		Content    string        `json:"content"`
		UserID     string        `json:"user_id"`
		MagazineID string        `json:"magazine_id"`
		CreatedAt  time.Time     `json:"created_at"` // UTC
		Author     CommentAuthor `json:"author"`
	}

	// CommentAuthor is the public summary of a commenter.
	CommentAuthor struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Image string `json:"image,omitempty"`
	}
)

// NewMagazine contains information needed to create a new Magazine.
type NewMagazine struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ShortDesc   string `json:"short_desc"`
	CoverImage  string `json:"cover_image" validate:"omitempty,url"`
	Price       int    `json:"price" validate:"required,gt=0"`
	SuitableFor string `json:"suitable_for" validate:"required"`
}

func (nm *NewMagazine) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.ShortDesc = core.CleanString(nm.ShortDesc)
	nm.SuitableFor = core.CleanString(nm.SuitableFor)
	return validate.Struct(nm)
}

// UpdateMagazine defines what information may be provided to modify an
// existing Magazine. Zero-valued fields keep their current value; the
// counters are not updatable here.
type UpdateMagazine struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ShortDesc   string `json:"short_desc"`
	CoverImage  string `json:"cover_image" validate:"omitempty,url"`
	Price       int    `json:"price" validate:"omitempty,gt=0"`
	SuitableFor string `json:"suitable_for"`
}

func (um *UpdateMagazine) Validate(orig Magazine, validate *validator.Validate) error {
	if title := core.CleanString(um.Title); title != "" {
		um.Title = title
	} else {
		um.Title = orig.Title
	}
	if desc := core.CleanString(um.Description); desc != "" {
		um.Description = desc
	} else {
		um.Description = orig.Description
	}
	if sd := core.CleanString(um.ShortDesc); sd != "" {
		um.ShortDesc = sd
	} else {
		um.ShortDesc = orig.ShortDesc
	}
	if um.CoverImage == "" {
		um.CoverImage = orig.CoverImage
	}
	if um.Price == 0 {
		um.Price = orig.Price
	}
	if sf := core.CleanString(um.SuitableFor); sf != "" {
		um.SuitableFor = sf
	} else {
		um.SuitableFor = orig.SuitableFor
	}
	return validate.Struct(um)
}

// NewComment contains information needed to append a Comment to a Magazine.
type NewComment struct {
	Content string `json:"content" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Content = core.CleanString(nc.Content)
	return validate.Struct(nc)
}

type QueryFilter struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset" validate:"omitempty,gte=0"`
}

func (qf *QueryFilter) Clean() {
	if qf.Limit <= 0 {
		qf.Limit = 20
	}
	if qf.Offset < 0 {
		qf.Offset = 0
	}
}
