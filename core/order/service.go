package order

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/catalog"
	"github.com/vidwanic/backend/core/school"
)

var (
	// errors
	ErrNotFound          = errors.New("order not found")
	ErrSchoolNotVerified = errors.New("a verified school profile is required to place orders")
	ErrUnknownMagazines  = errors.New("one or more magazines do not exist")
	ErrDuplicateItems    = errors.New("the same magazine appears more than once in the order")
	ErrPriceMismatch     = errors.New("unit price does not match the current catalog price")
)

type (
	Repository interface {
		// CreateOrder persists the order, its items, and the magazine
		// counter increments (total_purchases by quantity, school_purchases
		// by 1 per item) as one atomic write.
		CreateOrder(ord Order) (Order, error)
		GetOrderByID(id string) (Order, error)
		// QueryOrdersBySchool returns the school's orders newest first,
		// items populated.
		QueryOrdersBySchool(schoolID string) ([]Order, error)
	}

	Service struct {
		repo       Repository
		catalogSvc *catalog.Service
		schoolSvc  *school.Service
		mailSvc    core.EmailService
		conf       *core.Config
		logger     core.Logger
	}
)

func NewService(repo Repository, catalogSvc *catalog.Service, schoolSvc *school.Service,
	mailSvc core.EmailService, conf *core.Config, logger core.Logger) *Service {

	return &Service{
		repo:       repo,
		catalogSvc: catalogSvc,
		schoolSvc:  schoolSvc,
		mailSvc:    mailSvc,
		conf:       conf,
		logger:     logger,
	}
}

// Create converts the caller's cart into a durable order. Validation runs
// before any write: the caller must own a verified school profile, every
// magazine must exist, and every unit price must match the catalog exactly.
func (svc *Service) Create(userID string, no NewOrder) (Order, error) {
	sp, err := svc.schoolSvc.GetByUser(userID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return Order{}, ErrSchoolNotVerified
		}
		return Order{}, err
	}
	if !sp.IsVerified {
		return Order{}, ErrSchoolNotVerified
	}

	ids := make([]string, len(no.Items))
	seen := make(map[string]struct{}, len(no.Items))
	for i, item := range no.Items {
		if _, dup := seen[item.MagazineID]; dup {
			return Order{}, core.NewValidationError(ErrDuplicateItems, core.FieldError{
				Field: "items",
				Error: ErrDuplicateItems.Error(),
			})
		}
		seen[item.MagazineID] = struct{}{}
		ids[i] = item.MagazineID
	}
	mags, err := svc.catalogSvc.GetManyByID(ids...)
	if err != nil {
		return Order{}, err
	}
	if len(mags) != len(ids) {
		return Order{}, ErrUnknownMagazines
	}
	magByID := make(map[string]catalog.Magazine, len(mags))
	for _, mag := range mags {
		magByID[mag.ID] = mag
	}

	now := time.Now().UTC()
	ord := Order{
		OrderNumber:     newOrderNumber(),
		SchoolID:        sp.ID,
		Status:          StatusPending,
		OrderType:       TypeMagazine,
		DeliveryAddress: no.DeliveryAddress,
		DeliveryContact: no.DeliveryContact,
		PaymentStatus:   PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]OrderItem, 0, len(no.Items)),
	}
	for _, item := range no.Items {
		mag := magByID[item.MagazineID]
		if item.UnitPrice != mag.Price {
			return Order{}, core.NewValidationError(ErrPriceMismatch, core.FieldError{
				Field: "items",
				Error: fmt.Sprintf("unit price for %q does not match the current catalog price", mag.Title),
			})
		}
		ord.Items = append(ord.Items, OrderItem{
			MagazineID:    mag.ID,
			MagazineTitle: mag.Title,
			Quantity:      item.Quantity,
			UnitPrice:     item.UnitPrice,
			TotalPrice:    item.Quantity * item.UnitPrice,
		})
		ord.TotalAmount += item.Quantity * item.UnitPrice
	}

	ord, err = svc.repo.CreateOrder(ord)
	if err != nil {
		return Order{}, err
	}

	svc.sendOrderMails(ord, sp)
	return ord, nil
}

func (svc *Service) GetByID(id string) (Order, error) {
	return svc.repo.GetOrderByID(id)
}

func (svc *Service) QueryBySchool(schoolID string) ([]Order, error) {
	return svc.repo.QueryOrdersBySchool(schoolID)
}

func (svc *Service) sendOrderMails(ord Order, sp school.SchoolProfile) {
	data := struct {
		Order  Order
		School school.SchoolProfile
	}{ord, sp}

	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: sp.SchoolName, Address: sp.ContactEmail}},
			Subject:      fmt.Sprintf("Order Confirmation - %s", ord.OrderNumber),
			TemplateName: "order-confirmation",
			TemplateData: data,
		},
		&core.EmailMessage{
			To:           []mail.Address{svc.conf.AdminAddress()},
			Subject:      fmt.Sprintf("New school order %s from %s", ord.OrderNumber, sp.SchoolName),
			TemplateName: "order-alert",
			TemplateData: data,
		},
	)
}
