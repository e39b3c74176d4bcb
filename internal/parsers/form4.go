package parsers

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/edgar-profiler/internal/model"
)

// ownershipDocument mirrors the Form 4 XML an insider files. Numeric leaves
// sit under <value> wrappers; footnote-only leaves have no value child.
type ownershipDocument struct {
	PeriodOfReport string `xml:"periodOfReport"`
	ReportingOwner struct {
		ID struct {
			Name string `xml:"rptOwnerName"`
		} `xml:"reportingOwnerId"`
		Relationship struct {
			IsDirector   string `xml:"isDirector"`
			IsOfficer    string `xml:"isOfficer"`
			OfficerTitle string `xml:"officerTitle"`
		} `xml:"reportingOwnerRelationship"`
	} `xml:"reportingOwner"`
	NonDerivative struct {
		Transactions []form4Transaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	Derivative struct {
		Transactions []form4Transaction `xml:"derivativeTransaction"`
	} `xml:"derivativeTable"`
}

type form4Transaction struct {
	Date struct {
		Value string `xml:"value"`
	} `xml:"transactionDate"`
	Coding struct {
		Code string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares struct {
			Value string `xml:"value"`
		} `xml:"transactionShares"`
		Price struct {
			Value string `xml:"value"`
		} `xml:"transactionPricePerShare"`
		AcquiredDisposed struct {
			Value string `xml:"value"`
		} `xml:"transactionAcquiredDisposedCode"`
	} `xml:"transactionAmounts"`
	PostAmounts struct {
		SharesOwned struct {
			Value string `xml:"value"`
		} `xml:"sharesOwnedFollowingTransaction"`
	} `xml:"postTransactionAmounts"`
}

// transactionKind maps SEC transaction codes onto the engine's categories.
func transactionKind(code string) model.TransactionKind {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "P":
		return model.TxPurchase
	case "S":
		return model.TxSale
	case "M":
		return model.TxOptionExercise
	case "A":
		return model.TxAward
	default:
		return model.TxOther
	}
}

// ParseForm4 parses one Form 4 XML document into the insider's activity.
// Returns nil when the document is not parseable as an ownership filing.
func ParseForm4(data []byte) *model.InsiderActivity {
	var doc ownershipDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	name := NormalizePersonName(doc.ReportingOwner.ID.Name)
	if name == "" {
		return nil
	}

	activity := &model.InsiderActivity{
		InsiderName:  name,
		InsiderTitle: strings.TrimSpace(doc.ReportingOwner.Relationship.OfficerTitle),
		IsDirector:   doc.ReportingOwner.Relationship.IsDirector == "1" || strings.EqualFold(doc.ReportingOwner.Relationship.IsDirector, "true"),
		IsOfficer:    doc.ReportingOwner.Relationship.IsOfficer == "1" || strings.EqualFold(doc.ReportingOwner.Relationship.IsOfficer, "true"),
		FiledDate:    strings.TrimSpace(doc.PeriodOfReport),
	}

	all := append(doc.NonDerivative.Transactions, doc.Derivative.Transactions...)
	for _, tx := range all {
		shares := parseNum(tx.Amounts.Shares.Value)
		if shares == 0 {
			continue
		}
		price := parseNum(tx.Amounts.Price.Value)
		kind := transactionKind(tx.Coding.Code)

		sign := 1.0
		if strings.EqualFold(strings.TrimSpace(tx.Amounts.AcquiredDisposed.Value), "D") {
			sign = -1
		}

		value := sign * shares * price
		// Option exercises move shares, not cash, unless a price is attached.
		if kind == model.TxOptionExercise && price == 0 {
			value = 0
		}

		activity.Transactions = append(activity.Transactions, model.InsiderTransaction{
			Date:             strings.TrimSpace(tx.Date.Value),
			Kind:             kind,
			Shares:           shares,
			PricePerShare:    price,
			TotalValue:       value,
			SharesOwnedAfter: parseNum(tx.PostAmounts.SharesOwned.Value),
		})
		activity.NetShares += sign * shares
		activity.NetValue += value
	}

	activity.Signal = SignalForNetValue(activity.NetValue)
	return activity
}

// SignalForNetValue classifies net traded value into the insider signal bands.
func SignalForNetValue(netValue float64) model.InsiderSignal {
	switch {
	case netValue > 1_000_000:
		return model.SignalStrongBullish
	case netValue > 100_000:
		return model.SignalBullish
	case netValue < -1_000_000:
		return model.SignalStrongBearish
	case netValue < -100_000:
		return model.SignalBearish
	default:
		return model.SignalNeutral
	}
}

// AggregateInsiderTrading rolls per-filing activity up to the company level.
// parsed and total report how many of the supplied Form 4 bodies parsed.
func AggregateInsiderTrading(activity []model.InsiderActivity, parsed, total int) *model.InsiderTrading {
	out := &model.InsiderTrading{Activity: activity}
	if total == 0 {
		out.Warn("no Form 4 filings in window")
		out.OverallSignal = model.SignalNeutral
		return out
	}
	if parsed < total {
		out.Warn(fmt.Sprintf("%d of %d Form 4 documents unparseable", total-parsed, total))
	}
	if parsed == 0 {
		out.OverallSignal = model.SignalNeutral
		return out
	}

	for _, a := range activity {
		out.NetShares += a.NetShares
		out.NetValue += a.NetValue
	}
	out.OverallSignal = SignalForNetValue(out.NetValue)
	out.Available = true
	return out
}

func parseNum(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
