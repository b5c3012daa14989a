// Package inspection runs the vehicle walk-around inspection wizard.
package inspection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wizard"
)

const (
	StepVehicle   wizard.Step = "vehicle"
	StepMileage   wizard.Step = "mileage"
	StepChecklist wizard.Step = "checklist"
	StepPhotos    wizard.Step = "photos"
	StepSignature wizard.Step = "signature"
	StepReview    wizard.Step = "review"
	StepSubmitted wizard.Step = "submitted"
)

// DefaultChecklist is the walk-around every inspection must answer.
var DefaultChecklist = []string{"tyres", "lights", "brakes", "mirrors", "fluids", "wipers", "horn", "bodywork"}

var (
	ErrNotFound = errors.New("inspection not found")
	ErrNotOwner = errors.New("inspection belongs to another driver")
)

// draft is what the wizard validates: the inspection and the vehicle it is for.
type draft struct {
	inspection *models.Inspection
	vehicle    *models.Vehicle
}

var definition = wizard.New("inspection",
	[]wizard.Step{StepVehicle, StepMileage, StepChecklist, StepPhotos, StepSignature, StepReview, StepSubmitted},
	map[wizard.Step]wizard.Validator[draft]{
		StepVehicle:   validateVehicle,
		StepMileage:   validateMileage,
		StepChecklist: validateChecklist,
		StepSignature: validateSignature,
	},
)

// Steps returns the wizard steps in order.
func Steps() []wizard.Step {
	return definition.Steps()
}

func validateVehicle(d *draft) error {
	if d.vehicle == nil || d.inspection.VehicleID == 0 {
		return errors.New("select a vehicle")
	}
	return nil
}

// ParseMileage reads an odometer value as entered by the driver.
func ParseMileage(raw string) (int, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, errors.New("mileage is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("mileage %q is not a number", raw)
	}
	if n < 0 {
		return 0, errors.New("mileage cannot be negative")
	}
	return n, nil
}

func validateMileage(d *draft) error {
	n, err := ParseMileage(d.inspection.Mileage)
	if err != nil {
		return err
	}
	if d.vehicle != nil && n < d.vehicle.Mileage {
		return fmt.Errorf("mileage %d is below the last recorded %d", n, d.vehicle.Mileage)
	}
	return nil
}

func validateChecklist(d *draft) error {
	answered := make(map[string]models.ChecklistItem, len(d.inspection.Checklist))
	for _, item := range d.inspection.Checklist {
		answered[item.Code] = item
	}
	var missing []string
	for _, code := range DefaultChecklist {
		item, ok := answered[code]
		if !ok || item.Passed == nil {
			missing = append(missing, code)
			continue
		}
		if !*item.Passed && strings.TrimSpace(item.Note) == "" {
			return fmt.Errorf("describe the defect found on %s", code)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unanswered checks: %s", strings.Join(missing, ", "))
	}
	return nil
}

func validateSignature(d *draft) error {
	if strings.TrimSpace(d.inspection.SignedBy) == "" {
		return errors.New("the inspection must be signed")
	}
	return nil
}

func defects(items []models.ChecklistItem) int {
	n := 0
	for _, item := range items {
		if item.Passed != nil && !*item.Passed {
			n++
		}
	}
	return n
}

// Input holds the fields a driver can fill in. Nil fields are left alone.
type Input struct {
	VehicleID    *uint                  `json:"vehicle_id"`
	Mileage      *string                `json:"mileage"`
	Checklist    []models.ChecklistItem `json:"checklist"`
	PhotoRefs    []string               `json:"photo_refs"`
	SignatureRef *string                `json:"signature_ref"`
	SignedBy     *string                `json:"signed_by"`
	Location     *string                `json:"location"`
}

func (in Input) apply(i *models.Inspection) {
	if in.VehicleID != nil {
		i.VehicleID = *in.VehicleID
	}
	if in.Mileage != nil {
		i.Mileage = *in.Mileage
	}
	if in.Checklist != nil {
		i.Checklist = in.Checklist
	}
	if in.PhotoRefs != nil {
		i.PhotoRefs = in.PhotoRefs
	}
	if in.SignatureRef != nil {
		i.SignatureRef = *in.SignatureRef
	}
	if in.SignedBy != nil {
		i.SignedBy = *in.SignedBy
	}
	if in.Location != nil {
		i.Location = *in.Location
	}
	i.Defects = defects(i.Checklist)
}

// Service stores inspections and applies a submitted one to its vehicle.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Start opens a new inspection for the driver, on their assigned vehicle if any.
func (s *Service) Start(ctx context.Context, driverID uint, vehicleID *uint) (models.Inspection, error) {
	i := models.Inspection{DriverID: driverID, Step: string(definition.First())}
	if vehicleID != nil {
		i.VehicleID = *vehicleID
	}
	if err := s.db.WithContext(ctx).Create(&i).Error; err != nil {
		return models.Inspection{}, err
	}
	return i, nil
}

func (s *Service) Get(ctx context.Context, driverID uint, id uuid.UUID) (models.Inspection, error) {
	var i models.Inspection
	if err := s.db.WithContext(ctx).First(&i, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return i, ErrNotFound
		}
		return i, err
	}
	if driverID != 0 && i.DriverID != driverID {
		return i, ErrNotOwner
	}
	return i, nil
}

// List returns the inspections of a vehicle, newest first.
func (s *Service) List(ctx context.Context, vehicleID uint) ([]models.Inspection, error) {
	var out []models.Inspection
	err := s.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID).Order("created_at desc").Find(&out).Error
	return out, err
}

// Update saves input without moving the wizard.
func (s *Service) Update(ctx context.Context, driverID uint, id uuid.UUID, in Input) (models.Inspection, error) {
	return s.run(ctx, driverID, id, &in, nil)
}

// Advance saves input and moves to the next step.
func (s *Service) Advance(ctx context.Context, driverID uint, id uuid.UUID, in Input) (models.Inspection, error) {
	return s.run(ctx, driverID, id, &in, (*wizard.Machine[draft]).Next)
}

// Back returns to an earlier step.
func (s *Service) Back(ctx context.Context, driverID uint, id uuid.UUID, to wizard.Step) (models.Inspection, error) {
	return s.run(ctx, driverID, id, nil, func(m *wizard.Machine[draft]) error {
		return m.Back(to)
	})
}

func (s *Service) run(ctx context.Context, driverID uint, id uuid.UUID, in *Input, move func(*wizard.Machine[draft]) error) (models.Inspection, error) {
	var out models.Inspection
	var moveErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var i models.Inspection
		if err := tx.First(&i, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if i.DriverID != driverID {
			return ErrNotOwner
		}

		d := &draft{inspection: &i}
		m, err := definition.Resume(wizard.Step(i.Step), d)
		if err != nil {
			return err
		}
		if in != nil {
			if err := m.Edit(func(d *draft) { in.apply(d.inspection) }); err != nil {
				return err
			}
		}
		if err := s.loadVehicle(tx, d); err != nil {
			return err
		}
		if move != nil {
			if err := move(m); err != nil {
				var stepErr *wizard.StepError
				if !errors.As(err, &stepErr) {
					return err
				}
				// Keep what was entered; the driver corrects it and tries again.
				moveErr = err
			}
		}

		i.Step = string(m.Step())
		if m.Done() {
			if err := s.submit(tx, d); err != nil {
				return err
			}
		}
		if err := tx.Save(&i).Error; err != nil {
			return err
		}
		out = i
		return nil
	})
	if err != nil {
		return models.Inspection{}, err
	}
	return out, moveErr
}

func (s *Service) loadVehicle(tx *gorm.DB, d *draft) error {
	d.vehicle = nil
	if d.inspection.VehicleID == 0 {
		return nil
	}
	var v models.Vehicle
	err := tx.First(&v, d.inspection.VehicleID).Error
	switch {
	case err == nil:
		d.vehicle = &v
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	return nil
}

// submit stamps the inspection and carries its results over to the vehicle.
// A vehicle with defects is taken out of service until a clean inspection.
func (s *Service) submit(tx *gorm.DB, d *draft) error {
	now := s.now()
	d.inspection.SubmittedAt = &now
	mileage, _ := ParseMileage(d.inspection.Mileage)
	inService := d.inspection.Defects == 0
	err := tx.Model(d.vehicle).Updates(map[string]interface{}{
		"mileage":    mileage,
		"in_service": inService,
	}).Error
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"inspection_id": d.inspection.ID,
		"vehicle_id":    d.vehicle.ID,
		"defects":       d.inspection.Defects,
		"in_service":    inService,
	}).Info("Inspection submitted")
	return nil
}
