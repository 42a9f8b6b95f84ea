package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/affiliate-tracker/internal/infra/bigquery"
)

// TransactionToNotionProperties converts a warehouse TransactionRow to Notion
// properties. The Notion transaction database schema:
// Transaction ID (title), Network, Merchant, Merchant ID, Date, Click Date,
// Amount, Commission, Currency, Status, Paid, Custom ID, Lead Type, Synced At.
func TransactionToNotionProperties(tx *bigquery.TransactionRow) notionapi.Properties {
	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.UniqueID,
					},
				},
			},
		},
		"Network": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Network,
			},
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						tx.TransactionDate.Year,
						tx.TransactionDate.Month,
						tx.TransactionDate.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Amount": notionapi.NumberProperty{
			Number: func() float64 {
				if tx.Amount != nil {
					f, _ := tx.Amount.Float64()
					return f
				}
				return 0
			}(),
		},
		"Commission": notionapi.NumberProperty{
			Number: func() float64 {
				if tx.Commission != nil {
					f, _ := tx.Commission.Float64()
					return f
				}
				return 0
			}(),
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Status,
			},
		},
		"Paid": notionapi.CheckboxProperty{
			Checkbox: tx.Paid,
		},
	}

	// Currency
	if tx.Currency != "" {
		props["Currency"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.Currency,
			},
		}
	}

	// Merchant
	if tx.MerchantName.Valid && tx.MerchantName.StringVal != "" {
		props["Merchant"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.MerchantName.StringVal,
			},
		}
	}

	// Merchant ID
	if tx.MerchantID != "" {
		props["Merchant ID"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.MerchantID,
					},
				},
			},
		}
	}

	// Click Date
	if tx.ClickTS.Valid {
		props["Click Date"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&tx.ClickTS.Timestamp),
			},
		}
	}

	// Custom ID
	if tx.CustomID.Valid && tx.CustomID.StringVal != "" {
		props["Custom ID"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: tx.CustomID.StringVal,
					},
				},
			},
		}
	}

	// Lead Type
	if tx.LeadType.Valid && tx.LeadType.StringVal != "" {
		props["Lead Type"] = notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: tx.LeadType.StringVal,
			},
		}
	}

	// Synced At - use CreatedTS
	props["Synced At"] = notionapi.DateProperty{
		Date: &notionapi.DateObject{
			Start: (*notionapi.Date)(&tx.CreatedTS),
		},
	}

	return props
}

// MerchantToNotionProperties converts a warehouse MerchantRow to Notion
// properties for the Merchants database.
func MerchantToNotionProperties(m *bigquery.MerchantRow) notionapi.Properties {
	props := notionapi.Properties{
		"Merchant ID": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: m.MerchantID,
					},
				},
			},
		},
		"Network": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: m.Network,
			},
		},
	}

	// Name
	if m.Name != "" {
		props["Name"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: m.Name,
					},
				},
			},
		}
	}

	// Website
	if m.URL.Valid && m.URL.StringVal != "" {
		props["Website"] = notionapi.URLProperty{
			URL: m.URL.StringVal,
		}
	}

	// Launched
	if m.LaunchDate.Valid {
		props["Launched"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						m.LaunchDate.Date.Year,
						m.LaunchDate.Date.Month,
						m.LaunchDate.Date.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		}
	}

	return props
}
