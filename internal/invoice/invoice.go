// Package invoice runs the invoice wizard: customer details, line items,
// review, then issue with a sequential number.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wizard"
)

const (
	StepCustomer  wizard.Step = "customer"
	StepLineItems wizard.Step = "line_items"
	StepReview    wizard.Step = "review"
	StepIssued    wizard.Step = "issued"
)

var ErrNotFound = errors.New("invoice not found")

var definition = wizard.New("invoice",
	[]wizard.Step{StepCustomer, StepLineItems, StepReview, StepIssued},
	map[wizard.Step]wizard.Validator[models.Invoice]{
		StepCustomer:  validateCustomer,
		StepLineItems: validateLines,
	},
)

func Steps() []wizard.Step {
	return definition.Steps()
}

func validateCustomer(inv *models.Invoice) error {
	if strings.TrimSpace(inv.CustomerName) == "" {
		return errors.New("customer name is required")
	}
	if inv.CustomerEmail != "" {
		if _, err := mail.ParseAddress(inv.CustomerEmail); err != nil {
			return fmt.Errorf("customer email: %w", err)
		}
	}
	return nil
}

func validateLines(inv *models.Invoice) error {
	if len(inv.Lines) == 0 {
		return errors.New("add at least one line item")
	}
	for n, l := range inv.Lines {
		switch {
		case strings.TrimSpace(l.Description) == "":
			return fmt.Errorf("line %d: description is required", n+1)
		case l.Quantity <= 0:
			return fmt.Errorf("line %d: quantity must be positive", n+1)
		case l.UnitPrice < 0:
			return fmt.Errorf("line %d: unit price cannot be negative", n+1)
		}
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Totals recomputes subtotal, VAT and total from the lines.
func Totals(inv *models.Invoice) {
	var subtotal float64
	for _, l := range inv.Lines {
		subtotal += round2(l.Quantity * l.UnitPrice)
	}
	inv.Subtotal = round2(subtotal)
	inv.VAT = round2(inv.Subtotal * inv.VATRate)
	inv.Total = round2(inv.Subtotal + inv.VAT)
}

// Input holds the editable fields. Nil fields are left alone.
type Input struct {
	CustomerName  *string              `json:"customer_name"`
	CustomerEmail *string              `json:"customer_email"`
	JobReference  *string              `json:"job_reference"`
	Lines         []models.InvoiceLine `json:"lines"`
}

func (in Input) apply(inv *models.Invoice) {
	if in.CustomerName != nil {
		inv.CustomerName = *in.CustomerName
	}
	if in.CustomerEmail != nil {
		inv.CustomerEmail = strings.TrimSpace(*in.CustomerEmail)
	}
	if in.JobReference != nil {
		inv.JobReference = *in.JobReference
	}
	if in.Lines != nil {
		inv.Lines = in.Lines
	}
	Totals(inv)
}

type Service struct {
	db      *gorm.DB
	vatRate float64
	prefix  string
	now     func() time.Time
}

// NewService returns a Service billing at vatRate and numbering invoices with prefix.
func NewService(db *gorm.DB, vatRate float64, prefix string) *Service {
	return &Service{db: db, vatRate: vatRate, prefix: prefix, now: time.Now}
}

// Start opens a draft invoice.
func (s *Service) Start(ctx context.Context, createdBy uint) (models.Invoice, error) {
	inv := models.Invoice{CreatedBy: createdBy, Step: string(definition.First()), VATRate: s.vatRate}
	if err := s.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return models.Invoice{}, err
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inv, ErrNotFound
		}
		return inv, err
	}
	return inv, nil
}

func (s *Service) List(ctx context.Context) ([]models.Invoice, error) {
	var out []models.Invoice
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (models.Invoice, error) {
	return s.run(ctx, id, &in, nil)
}

func (s *Service) Advance(ctx context.Context, id uuid.UUID, in Input) (models.Invoice, error) {
	return s.run(ctx, id, &in, (*wizard.Machine[models.Invoice]).Next)
}

func (s *Service) Back(ctx context.Context, id uuid.UUID, to wizard.Step) (models.Invoice, error) {
	return s.run(ctx, id, nil, func(m *wizard.Machine[models.Invoice]) error {
		return m.Back(to)
	})
}

func (s *Service) run(ctx context.Context, id uuid.UUID, in *Input, move func(*wizard.Machine[models.Invoice]) error) (models.Invoice, error) {
	var out models.Invoice
	var moveErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.First(&inv, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		m, err := definition.Resume(wizard.Step(inv.Step), &inv)
		if err != nil {
			return err
		}
		if in != nil {
			if err := m.Edit(func(inv *models.Invoice) { in.apply(inv) }); err != nil {
				return err
			}
		}
		if move != nil {
			if err := move(m); err != nil {
				var stepErr *wizard.StepError
				if !errors.As(err, &stepErr) {
					return err
				}
				moveErr = err
			}
		}

		inv.Step = string(m.Step())
		if m.Done() {
			if err := s.issue(tx, &inv); err != nil {
				return err
			}
		}
		if err := tx.Save(&inv).Error; err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return models.Invoice{}, err
	}
	return out, moveErr
}

// issue assigns the next number of the month, e.g. INV-202603-0007.
func (s *Service) issue(tx *gorm.DB, inv *models.Invoice) error {
	now := s.now()
	period := fmt.Sprintf("%s-%s-", s.prefix, now.Format("200601"))
	var count int64
	if err := tx.Model(&models.Invoice{}).Where("number LIKE ?", period+"%").Count(&count).Error; err != nil {
		return err
	}
	number := fmt.Sprintf("%s%04d", period, count+1)
	inv.Number = &number
	inv.IssuedAt = &now
	Totals(inv)
	logrus.WithFields(logrus.Fields{
		"invoice_id": inv.ID,
		"number":     number,
		"total":      inv.Total,
	}).Info("Invoice issued")
	return nil
}
