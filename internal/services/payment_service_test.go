package services_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Marketplace/internal/models"
	"Marketplace/internal/services"
	"Marketplace/internal/testutil"
)

type paymentFixture struct {
	db      *gorm.DB
	svc     *services.PaymentService
	mailer  *testutil.RecordingMailer
	buyer   models.User
	seller  models.User
	listing models.Listing
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	db := testutil.NewDB(t)
	cipher, err := services.NewFieldCipher("test-app-key", "card_details")
	require.NoError(t, err)
	mailer := testutil.NewRecordingMailer()
	seller := testutil.CreateUser(t, db, "Seller", models.RoleSeller)
	return paymentFixture{
		db:     db,
		svc:    services.NewPaymentService(db, cipher, mailer),
		mailer: mailer,
		buyer:  testutil.CreateUser(t, db, "Buyer", models.RoleBuyer),
		seller: seller,
		listing: testutil.CreateListing(t, db, seller, func(l *models.Listing) {
			l.Price = decimal.RequireFromString("999.99")
		}),
	}
}

func (f paymentFixture) payments(t *testing.T) []models.Payment {
	t.Helper()
	var out []models.Payment
	require.NoError(t, f.db.Order("id").Find(&out).Error)
	return out
}

func TestRecordCardPaymentCompletes(t *testing.T) {
	f := newPaymentFixture(t)

	res, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
		ListingID:     f.listing.ID,
		PaymentMethod: "card",
		Amount:        ptr(decimal.RequireFromString("999.99")),
		PaymentDetails: map[string]any{
			"number": "4111 1111 1111 1234", "expiry": "12/29", "cvv": "123", "name": "B. Buyer",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment successful", res.Message)
	assert.Equal(t, models.PaymentCompleted, res.Payment.PaymentStatus)
	assert.Regexp(t, `^TRX-[0-9A-F]{16}$`, res.Payment.TransactionReference)

	stored := f.payments(t)
	require.Len(t, stored, 1)
	p := stored[0]
	assert.Equal(t, models.PaymentCompleted, p.PaymentStatus)
	assert.NotContains(t, p.PaymentDetails, "number")
	assert.NotContains(t, p.PaymentDetails, "cvv")
	assert.Equal(t, "B. Buyer", p.PaymentDetails["name"])
	require.NotNil(t, p.CardDetails)
	assert.NotContains(t, *p.CardDetails, "1234")

	card, err := f.svc.CardDetails(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"last_four": "1234", "expiry": "12/29"}, card)

	require.Len(t, f.mailer.Receipts[f.buyer.Email], 1)
	assert.Equal(t, "999.99", f.mailer.Receipts[f.buyer.Email][0].Amount)
}

func TestRecordBankPaymentStaysPending(t *testing.T) {
	f := newPaymentFixture(t)

	res, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
		ListingID:      f.listing.ID,
		PaymentMethod:  "bank",
		Amount:         ptr(decimal.RequireFromString("999.99")),
		PaymentDetails: map[string]any{"reference": "BANK-778"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bank transfer initiated", res.Message)

	p := f.payments(t)[0]
	assert.Equal(t, models.PaymentPending, p.PaymentStatus)
	require.NotNil(t, p.BankReference)
	assert.Equal(t, "BANK-778", *p.BankReference)
	assert.Nil(t, p.CardDetails)
}

func TestRecordAmountMismatchCreatesNothing(t *testing.T) {
	f := newPaymentFixture(t)

	for _, amount := range []string{"999.98", "1000", "0"} {
		_, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
			ListingID:      f.listing.ID,
			PaymentMethod:  "card",
			Amount:         ptr(decimal.RequireFromString(amount)),
			PaymentDetails: map[string]any{"number": "4111111111111111", "expiry": "12/29", "cvv": "123"},
		})
		assert.ErrorIs(t, err, services.ErrAmountMismatch, amount)
	}
	assert.Empty(t, f.payments(t))
}

func TestRecordEquivalentDecimalIsAccepted(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
		ListingID:      f.listing.ID,
		PaymentMethod:  "bank",
		Amount:         ptr(decimal.RequireFromString("999.990")),
		PaymentDetails: map[string]any{"reference": "R1"},
	})
	assert.NoError(t, err)
}

func TestRecordValidation(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
		ListingID:     9999,
		PaymentMethod: "crypto",
		Amount:        ptr(decimal.NewFromInt(-5)),
	})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "listing_id")
	assert.Contains(t, verr.Fields, "payment_method")
	assert.Contains(t, verr.Fields, "amount")
	assert.Contains(t, verr.Fields, "payment_details")
	assert.Empty(t, f.payments(t))
}

func TestRecordInvalidCardMarksPaymentFailed(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Record(context.Background(), f.buyer, services.PaymentInput{
		ListingID:      f.listing.ID,
		PaymentMethod:  "card",
		Amount:         ptr(decimal.RequireFromString("999.99")),
		PaymentDetails: map[string]any{"number": "4111111111111111", "expiry": "12/29", "cvv": "12"},
	})

	var rejected *services.PaymentRejectedError
	require.True(t, errors.As(err, &rejected))
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "payment_details.cvv")

	stored := f.payments(t)
	require.Len(t, stored, 1)
	assert.Equal(t, models.PaymentFailed, stored[0].PaymentStatus)
	assert.Equal(t, rejected.Reference, stored[0].TransactionReference)
	assert.Empty(t, f.mailer.Receipts)
}

func TestParseInstrument(t *testing.T) {
	inst, err := services.ParseInstrument(models.PaymentCard, map[string]any{"number": "4242 4242", "expiry": "01/30", "cvv": "1234"})
	require.NoError(t, err)
	assert.Equal(t, services.CardInstrument{Number: "42424242", Expiry: "01/30", CVV: "1234"}, inst)

	inst, err = services.ParseInstrument(models.PaymentBank, map[string]any{"reference": "REF"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentBank, inst.Method())

	_, err = services.ParseInstrument(models.PaymentBank, map[string]any{"ref": "REF"})
	assert.Error(t, err)

	_, err = services.ParseInstrument(models.PaymentCard, map[string]any{"number": 4242, "expiry": "01/30", "cvv": "123"})
	assert.Error(t, err)
}

func TestVerifyPayment(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, f.db, "Admin", models.RoleAdmin)

	res, err := f.svc.Record(ctx, f.buyer, services.PaymentInput{
		ListingID:      f.listing.ID,
		PaymentMethod:  "bank",
		Amount:         ptr(decimal.RequireFromString("999.99")),
		PaymentDetails: map[string]any{"reference": "BANK-1"},
	})
	require.NoError(t, err)

	byTrx, err := f.svc.Verify(ctx, f.buyer, res.Payment.TransactionReference)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, byTrx.Status)
	assert.Equal(t, models.PaymentBank, byTrx.Method)
	assert.Equal(t, "999.99", byTrx.Amount.StringFixed(2))

	byBank, err := f.svc.Verify(ctx, admin, "BANK-1")
	require.NoError(t, err)
	assert.Equal(t, res.Payment.TransactionReference, byBank.Reference)

	_, err = f.svc.Verify(ctx, f.seller, "BANK-1")
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = f.svc.Verify(ctx, f.buyer, "TRX-NOPE")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestListPayments(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Record(ctx, f.buyer, services.PaymentInput{
			ListingID:      f.listing.ID,
			PaymentMethod:  "bank",
			Amount:         ptr(decimal.RequireFromString("999.99")),
			PaymentDetails: map[string]any{"reference": "R"},
		})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, f.buyer.ID, services.PageRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Greater(t, page.Data[0].ID, page.Data[1].ID)

	page, err = f.svc.List(ctx, f.seller.ID, services.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	page, err = f.svc.List(ctx, f.buyer.ID, services.PageRequest{Page: math.MaxInt, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Nil(t, page.Pagination.From)
	assert.Nil(t, page.Pagination.To)
}

func TestGenerateTransactionReferenceIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ref := services.GenerateTransactionReference()
		assert.Len(t, ref, 20)
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}
