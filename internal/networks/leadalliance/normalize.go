package leadalliance

import (
	"fmt"

	"github.com/dvloznov/affiliate-tracker/internal/affiliate"
)

// statusMap covers the three codes the partner API emits.
var statusMap = affiliate.StatusMap{
	"2": affiliate.StatusConfirmed,
	"1": affiliate.StatusPending,
	"0": affiliate.StatusDeclined,
}

// transactionFields binds the canonical transaction shape to the raw keys
// of the partner transaction records.
var transactionFields = affiliate.FieldMap{
	affiliate.FieldUniqueID:      "transaction_id",
	affiliate.FieldMerchantID:    "program_id",
	affiliate.FieldMerchantName:  "program",
	affiliate.FieldDate:          "date_of_origin",
	affiliate.FieldClickDate:     "time_click",
	affiliate.FieldUpdateDate:    "date_edit",
	affiliate.FieldCustomID:      "adspace_sub_id",
	affiliate.FieldStatus:        "status",
	affiliate.FieldCurrency:      "currency",
	affiliate.FieldAmount:        "value",
	affiliate.FieldCommission:    "commission",
	affiliate.FieldInfo:          "info",
	affiliate.FieldStatusComment: "status_comment",
	affiliate.FieldPaymentDate:   "datepayment",
	affiliate.FieldCategory:      "category_identifier",
	affiliate.FieldLeadType:      "leadtype",
	affiliate.FieldAdspaceID:     "adspace_id",
}

func normalizeTransaction(rec affiliate.Record) (affiliate.Transaction, error) {
	var tx affiliate.Transaction

	code, err := transactionFields.String(rec, affiliate.FieldStatus)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	status, err := statusMap.Map(networkName, code)
	if err != nil {
		return tx, err
	}

	uniqueID, err := transactionFields.String(rec, affiliate.FieldUniqueID)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	merchantID, err := transactionFields.String(rec, affiliate.FieldMerchantID)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	date, err := transactionFields.Time(rec, affiliate.FieldDate)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	currency, err := transactionFields.String(rec, affiliate.FieldCurrency)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}

	amountRaw, err := transactionFields.String(rec, affiliate.FieldAmount)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	amount, err := affiliate.ParseDecimal(amountRaw)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: transaction %s amount: %w", uniqueID, err)
	}
	commissionRaw, err := transactionFields.String(rec, affiliate.FieldCommission)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: %w", err)
	}
	commission, err := affiliate.ParseDecimal(commissionRaw)
	if err != nil {
		return tx, fmt.Errorf("leadalliance: transaction %s commission: %w", uniqueID, err)
	}

	tx = affiliate.Transaction{
		UniqueID:      uniqueID,
		MerchantID:    merchantID,
		MerchantName:  transactionFields.OptionalString(rec, affiliate.FieldMerchantName),
		Date:          date,
		ClickDate:     transactionFields.OptionalTime(rec, affiliate.FieldClickDate),
		UpdateDate:    transactionFields.OptionalTime(rec, affiliate.FieldUpdateDate),
		PaymentDate:   transactionFields.OptionalTime(rec, affiliate.FieldPaymentDate),
		CustomID:      transactionFields.OptionalString(rec, affiliate.FieldCustomID),
		Status:        status,
		Currency:      currency,
		Amount:        amount,
		Commission:    commission,
		Info:          transactionFields.OptionalString(rec, affiliate.FieldInfo),
		StatusComment: transactionFields.OptionalString(rec, affiliate.FieldStatusComment),
		Category:      transactionFields.OptionalString(rec, affiliate.FieldCategory),
		LeadType:      transactionFields.OptionalString(rec, affiliate.FieldLeadType),
		AdspaceID:     transactionFields.OptionalString(rec, affiliate.FieldAdspaceID),
	}
	return tx, nil
}
