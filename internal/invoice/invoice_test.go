package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet_tracker/internal/config"
	"fleet_tracker/internal/models"
	"fleet_tracker/internal/wizard"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := config.Open(config.DBSettings{Driver: "sqlite", Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	svc := NewService(db, 0.2, "INV")
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	return svc
}

func str(s string) *string { return &s }

func TestTotals(t *testing.T) {
	inv := models.Invoice{VATRate: 0.2, Lines: []models.InvoiceLine{
		{Description: "Haulage", Quantity: 3, UnitPrice: 120.5},
		{Description: "Waiting time", Quantity: 2, UnitPrice: 15.25},
	}}
	Totals(&inv)
	assert.Equal(t, 392.0, inv.Subtotal)
	assert.Equal(t, 78.4, inv.VAT)
	assert.Equal(t, 470.4, inv.Total)
}

func issue(t *testing.T, svc *Service, customer string) models.Invoice {
	t.Helper()
	ctx := context.Background()
	inv, err := svc.Start(ctx, 1)
	require.NoError(t, err)
	inv, err = svc.Advance(ctx, inv.ID, Input{CustomerName: str(customer), CustomerEmail: str("ap@acme.test")})
	require.NoError(t, err)
	inv, err = svc.Advance(ctx, inv.ID, Input{Lines: []models.InvoiceLine{{Description: "Delivery", Quantity: 2, UnitPrice: 50}}})
	require.NoError(t, err)
	inv, err = svc.Advance(ctx, inv.ID, Input{})
	require.NoError(t, err)
	return inv
}

func TestInvoice_IssueNumbersSequentially(t *testing.T) {
	svc := newService(t)

	first := issue(t, svc, "Acme")
	assert.Equal(t, string(StepIssued), first.Step)
	require.NotNil(t, first.Number)
	assert.Equal(t, "INV-202603-0001", *first.Number)
	assert.Equal(t, 120.0, first.Total)
	require.NotNil(t, first.IssuedAt)

	second := issue(t, svc, "Globex")
	assert.Equal(t, "INV-202603-0002", *second.Number)

	_, err := svc.Update(context.Background(), first.ID, Input{CustomerName: str("changed")})
	assert.ErrorIs(t, err, wizard.ErrTerminal)
}

func TestInvoice_StepValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	inv, err := svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = svc.Advance(ctx, inv.ID, Input{CustomerEmail: str("not-an-email")})
	var stepErr *wizard.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCustomer, stepErr.Step)

	inv, err = svc.Advance(ctx, inv.ID, Input{CustomerName: str("Acme"), CustomerEmail: str("")})
	require.NoError(t, err)
	assert.Equal(t, string(StepLineItems), inv.Step)

	_, err = svc.Advance(ctx, inv.ID, Input{})
	require.ErrorAs(t, err, &stepErr)
	_, err = svc.Advance(ctx, inv.ID, Input{Lines: []models.InvoiceLine{{Description: "x", Quantity: 0, UnitPrice: 1}}})
	require.ErrorAs(t, err, &stepErr)

	inv, err = svc.Back(ctx, inv.ID, StepCustomer)
	require.NoError(t, err)
	assert.Equal(t, string(StepCustomer), inv.Step)
	assert.Nil(t, inv.Number)
}

func TestInvoice_NotFound(t *testing.T) {
	svc := newService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
