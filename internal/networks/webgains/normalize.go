package webgains

import (
	"fmt"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

// fixedPointDigits is the implicit fractional width of Webgains monetary
// strings: "1234567" means 123.4567.
const fixedPointDigits = 4

// statusPaid is the one status that also means the commission has been
// paid out.
const statusPaid = "10"

// statusMap covers every transaction status the platform documents.
// 10 paid, 20 approved, 30-60 the pending/notification stages, 70
// cancelled.
var statusMap = affiliate.StatusMap{
	"10": affiliate.StatusConfirmed,
	"20": affiliate.StatusConfirmed,
	"30": affiliate.StatusPending,
	"40": affiliate.StatusPending,
	"50": affiliate.StatusPending,
	"60": affiliate.StatusPending,
	"70": affiliate.StatusDeclined,
}

// transactionFields binds the canonical transaction shape to the raw keys
// of the transaction report records.
var transactionFields = affiliate.FieldMap{
	affiliate.FieldUniqueID:     "id",
	affiliate.FieldMerchantID:   "program.id",
	affiliate.FieldMerchantName: "program.name",
	affiliate.FieldDate:         "date",
	affiliate.FieldCustomID:     "click_reference",
	affiliate.FieldStatus:       "status",
	affiliate.FieldCurrency:     "commission.currency_code",
	affiliate.FieldAmount:       "value.amount",
	affiliate.FieldCommission:   "commission.amount",
}

// campaignFields binds the campaign listing records; campaigns reuse the
// merchant id/name slots.
var campaignFields = affiliate.FieldMap{
	affiliate.FieldMerchantID:   "id",
	affiliate.FieldMerchantName: "name",
}

var merchantFields = affiliate.FieldMap{
	affiliate.FieldMerchantID:   "id",
	affiliate.FieldMerchantName: "name",
	affiliate.FieldInfo:         "homepage_url",
	affiliate.FieldDate:         "create_date",
}

func normalizeTransaction(rec affiliate.Record) (affiliate.Transaction, error) {
	var tx affiliate.Transaction

	code, err := transactionFields.String(rec, affiliate.FieldStatus)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	status, err := statusMap.Map(networkName, code)
	if err != nil {
		return tx, err
	}

	uniqueID, err := transactionFields.String(rec, affiliate.FieldUniqueID)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	merchantID, err := transactionFields.String(rec, affiliate.FieldMerchantID)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	date, err := transactionFields.EpochTime(rec, affiliate.FieldDate)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	currency, err := transactionFields.String(rec, affiliate.FieldCurrency)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}

	amountRaw, err := transactionFields.String(rec, affiliate.FieldAmount)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	amount, err := affiliate.ParseFixedPoint(amountRaw, fixedPointDigits)
	if err != nil {
		return tx, fmt.Errorf("webgains: transaction %s amount: %w", uniqueID, err)
	}
	commissionRaw, err := transactionFields.String(rec, affiliate.FieldCommission)
	if err != nil {
		return tx, fmt.Errorf("webgains: %w", err)
	}
	commission, err := affiliate.ParseFixedPoint(commissionRaw, fixedPointDigits)
	if err != nil {
		return tx, fmt.Errorf("webgains: transaction %s commission: %w", uniqueID, err)
	}

	tx = affiliate.Transaction{
		UniqueID:     uniqueID,
		MerchantID:   merchantID,
		MerchantName: transactionFields.OptionalString(rec, affiliate.FieldMerchantName),
		Date:         date,
		CustomID:     transactionFields.OptionalString(rec, affiliate.FieldCustomID),
		Status:       status,
		Currency:     currency,
		Amount:       amount,
		Commission:   commission,
		Paid:         code == statusPaid,
	}
	return tx, nil
}

func normalizeMerchant(rec affiliate.Record) (affiliate.Merchant, error) {
	id, err := merchantFields.Int(rec, affiliate.FieldMerchantID)
	if err != nil {
		return affiliate.Merchant{}, err
	}
	launch, err := merchantFields.EpochTime(rec, affiliate.FieldDate)
	if err != nil {
		return affiliate.Merchant{}, err
	}
	return affiliate.Merchant{
		ID:         int(id),
		Name:       merchantFields.OptionalString(rec, affiliate.FieldMerchantName),
		URL:        merchantFields.OptionalString(rec, affiliate.FieldInfo),
		LaunchDate: launch,
	}, nil
}

// Vouchers and offers have a fixed, shallow shape, so they decode into
// typed records directly instead of going through a field table.
type voucherRecord struct {
	ID             int    `json:"id"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	DestinationURL string `json:"destination_url"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

func (r voucherRecord) toVoucher() affiliate.Voucher {
	return affiliate.Voucher{
		ID:             r.ID,
		Code:           r.Code,
		Description:    r.Description,
		DestinationURL: r.DestinationURL,
		StartsAt:       affiliate.ParseTimeOrZero(r.StartDate),
		EndsAt:         affiliate.ParseTimeOrZero(r.EndDate),
	}
}

type offerRecord struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	DestinationURL string `json:"destination_url"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

func (r offerRecord) toOffer() affiliate.Offer {
	return affiliate.Offer{
		ID:             r.ID,
		Title:          r.Title,
		Description:    r.Description,
		DestinationURL: r.DestinationURL,
		StartsAt:       affiliate.ParseTimeOrZero(r.StartDate),
		EndsAt:         affiliate.ParseTimeOrZero(r.EndDate),
	}
}
