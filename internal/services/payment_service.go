package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"Marketplace/internal/models"
)

type PaymentInput struct {
	ListingID      uint             `json:"listing_id" validate:"required"`
	PaymentMethod  string           `json:"payment_method" validate:"required,oneof=card bank"`
	Amount         *decimal.Decimal `json:"amount"`
	PaymentDetails map[string]any   `json:"payment_details"`
}

// PaymentInstrument is the parsed form of payment_details for one method.
type PaymentInstrument interface {
	Method() models.PaymentMethod
}

type CardInstrument struct {
	Number string `json:"number" validate:"required"`
	Expiry string `json:"expiry" validate:"required"`
	CVV    string `json:"cvv" validate:"required,min=3,max=4"`
}

func (CardInstrument) Method() models.PaymentMethod { return models.PaymentCard }

type BankInstrument struct {
	Reference string `json:"reference" validate:"required"`
}

func (BankInstrument) Method() models.PaymentMethod { return models.PaymentBank }

// ParseInstrument decodes details into the instrument for method.
func ParseInstrument(method models.PaymentMethod, details map[string]any) (PaymentInstrument, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode payment details: %w", err)
	}

	switch method {
	case models.PaymentCard:
		var card CardInstrument
		if err := decodeDetails(raw, &card); err != nil {
			return nil, err
		}
		card.Number = strings.ReplaceAll(strings.TrimSpace(card.Number), " ", "")
		return card, nil
	case models.PaymentBank:
		var bank BankInstrument
		if err := decodeDetails(raw, &bank); err != nil {
			return nil, err
		}
		return bank, nil
	default:
		return nil, NewValidationError("payment_method", "The selected payment method is invalid.")
	}
}

func decodeDetails(raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewValidationError("payment_details", "The payment details are malformed.")
	}
	verr, err := collect(Validate(dst))
	if err != nil {
		return err
	}
	if len(verr.Fields) == 0 {
		return nil
	}
	prefixed := &ValidationError{}
	for field, msgs := range verr.Fields {
		for _, m := range msgs {
			prefixed.Add("payment_details."+field, m)
		}
	}
	return prefixed
}

// PaymentRejectedError reports a payment that was recorded as failed because
// its details could not be used.
type PaymentRejectedError struct {
	Reference string
	Cause     error
}

func (e *PaymentRejectedError) Error() string {
	return fmt.Sprintf("payment %s failed: %v", e.Reference, e.Cause)
}

func (e *PaymentRejectedError) Unwrap() error {
	return e.Cause
}

type PaymentResult struct {
	Payment models.Payment
	Message string
}

type PaymentVerification struct {
	Reference     string               `json:"transaction_reference"`
	Status        models.PaymentStatus `json:"status"`
	Amount        decimal.Decimal      `json:"amount"`
	Method        models.PaymentMethod `json:"method"`
	BankReference *string              `json:"bank_reference"`
}

type PaymentPage struct {
	Data       []models.Payment `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type PaymentService struct {
	db     *gorm.DB
	cipher *FieldCipher
	mailer Mailer
}

func NewPaymentService(db *gorm.DB, cipher *FieldCipher, mailer Mailer) *PaymentService {
	return &PaymentService{db: db, cipher: cipher, mailer: mailer}
}

func GenerateTransactionReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRX-" + strings.ToUpper(id[:16])
}

var sensitiveDetailKeys = map[string]bool{"number": true, "card_number": true, "cvv": true, "cvc": true}

func sanitizeDetails(details map[string]any) map[string]any {
	out := make(map[string]any, len(details))
	for k, v := range details {
		if sensitiveDetailKeys[strings.ToLower(k)] {
			continue
		}
		out[k] = v
	}
	return out
}

// Record creates a payment for one attempt and settles it by instrument:
// cards complete immediately, bank transfers stay pending.
func (s *PaymentService) Record(ctx context.Context, payer models.User, in PaymentInput) (PaymentResult, error) {
	verr, err := collect(Validate(in))
	if err != nil {
		return PaymentResult{}, err
	}
	if in.Amount == nil {
		verr.Add("amount", "The amount field is required.")
	} else if in.Amount.IsNegative() {
		verr.Add("amount", "The amount field must be at least 0.")
	}
	if len(in.PaymentDetails) == 0 {
		verr.Add("payment_details", "The payment details field is required.")
	}

	db := s.db.WithContext(ctx)
	var listing models.Listing
	if in.ListingID != 0 {
		err := db.First(&listing, in.ListingID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("listing_id", "The selected listing id is invalid.")
		} else if err != nil {
			return PaymentResult{}, fmt.Errorf("find listing: %w", err)
		}
	}
	if len(verr.Fields) > 0 {
		return PaymentResult{}, verr
	}

	if !in.Amount.Equal(listing.Price) {
		return PaymentResult{}, ErrAmountMismatch
	}

	payment := models.Payment{
		ListingID:            listing.ID,
		UserID:               payer.ID,
		Amount:               listing.Price,
		PaymentMethod:        models.PaymentMethod(in.PaymentMethod),
		PaymentStatus:        models.PaymentPending,
		TransactionReference: GenerateTransactionReference(),
		PaymentDetails:       sanitizeDetails(in.PaymentDetails),
	}
	if err := db.Create(&payment).Error; err != nil {
		return PaymentResult{}, fmt.Errorf("failed to record payment: %w", err)
	}

	instrument, err := ParseInstrument(payment.PaymentMethod, in.PaymentDetails)
	if err != nil {
		if uerr := s.setStatus(db, &payment, models.PaymentFailed, nil); uerr != nil {
			return PaymentResult{}, uerr
		}
		return PaymentResult{}, &PaymentRejectedError{Reference: payment.TransactionReference, Cause: err}
	}

	var result PaymentResult
	switch inst := instrument.(type) {
	case CardInstrument:
		result, err = s.chargeCard(db, &payment, inst)
	case BankInstrument:
		result, err = s.startBankTransfer(db, &payment, inst)
	}
	if err != nil {
		return PaymentResult{}, err
	}

	s.sendReceipt(ctx, payer, listing, result.Payment)
	return result, nil
}

// chargeCard simulates an immediate gateway approval.
func (s *PaymentService) chargeCard(db *gorm.DB, payment *models.Payment, card CardInstrument) (PaymentResult, error) {
	lastFour := card.Number
	if len(lastFour) > 4 {
		lastFour = lastFour[len(lastFour)-4:]
	}
	plain, err := json.Marshal(map[string]string{"last_four": lastFour, "expiry": card.Expiry})
	if err != nil {
		return PaymentResult{}, err
	}
	sealed, err := s.cipher.Encrypt(plain)
	if err != nil {
		return PaymentResult{}, fmt.Errorf("encrypt card details: %w", err)
	}

	payment.CardDetails = &sealed
	if err := s.setStatus(db, payment, models.PaymentCompleted, map[string]any{"card_details": sealed}); err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Payment: *payment, Message: "Payment successful"}, nil
}

func (s *PaymentService) startBankTransfer(db *gorm.DB, payment *models.Payment, bank BankInstrument) (PaymentResult, error) {
	ref := strings.TrimSpace(bank.Reference)
	payment.BankReference = &ref
	if err := s.setStatus(db, payment, models.PaymentPending, map[string]any{"bank_reference": ref}); err != nil {
		return PaymentResult{}, err
	}
	return PaymentResult{Payment: *payment, Message: "Bank transfer initiated"}, nil
}

// setStatus only moves pending payments; completed and failed are final.
func (s *PaymentService) setStatus(db *gorm.DB, payment *models.Payment, status models.PaymentStatus, extra map[string]any) error {
	updates := map[string]any{"payment_status": status}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.Model(&models.Payment{}).
		Where("id = ? AND payment_status = ?", payment.ID, models.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update payment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payment %s is no longer pending", payment.TransactionReference)
	}
	payment.PaymentStatus = status
	return nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, payer models.User, listing models.Listing, p models.Payment) {
	if s.mailer == nil || payer.Email == "" {
		return
	}
	err := s.mailer.SendPaymentReceipt(ctx, payer.Email, Receipt{
		Name:        payer.Name,
		ListingName: listing.Name,
		Amount:      p.Amount.StringFixed(2),
		Method:      string(p.PaymentMethod),
		Status:      string(p.PaymentStatus),
		Reference:   p.TransactionReference,
	})
	if err != nil {
		log.Printf("⚠️  Failed to send receipt for %s: %v", p.TransactionReference, err)
	}
}

// CardDetails decrypts the stored last four digits and expiry.
func (s *PaymentService) CardDetails(p models.Payment) (map[string]string, error) {
	if p.CardDetails == nil {
		return nil, nil
	}
	plain, err := s.cipher.Decrypt(*p.CardDetails)
	if err != nil {
		return nil, fmt.Errorf("decrypt card details: %w", err)
	}
	out := map[string]string{}
	if err := json.Unmarshal(plain, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Verify finds a payment by transaction or bank reference. Only the payer and
// roles allowed to view any payment may see it.
func (s *PaymentService) Verify(ctx context.Context, caller models.User, reference string) (PaymentVerification, error) {
	reference = strings.TrimSpace(reference)
	var payment models.Payment
	err := s.db.WithContext(ctx).
		Where("transaction_reference = ? OR bank_reference = ?", reference, reference).
		Order("id DESC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentVerification{}, fmt.Errorf("payment %q: %w", reference, ErrNotFound)
	}
	if err != nil {
		return PaymentVerification{}, fmt.Errorf("find payment: %w", err)
	}

	if payment.UserID != caller.ID && !caller.Role.Can(models.CapViewAnyPayment) {
		return PaymentVerification{}, fmt.Errorf("payment %q: %w", reference, ErrForbidden)
	}

	return PaymentVerification{
		Reference:     payment.TransactionReference,
		Status:        payment.PaymentStatus,
		Amount:        payment.Amount,
		Method:        payment.PaymentMethod,
		BankReference: payment.BankReference,
	}, nil
}

// List returns the caller's payments, newest first.
func (s *PaymentService) List(ctx context.Context, userID uint, p PageRequest) (PaymentPage, error) {
	p = p.normalize()
	q := s.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return PaymentPage{}, fmt.Errorf("count payments: %w", err)
	}

	var payments []models.Payment
	err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Order("id DESC").
		Offset((p.Page - 1) * p.PerPage).
		Limit(p.PerPage).
		Find(&payments).Error
	if err != nil {
		return PaymentPage{}, fmt.Errorf("fetch payments: %w", err)
	}
	return PaymentPage{Data: payments, Pagination: newPagination(p, total, len(payments))}, nil
}
