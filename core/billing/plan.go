package billing

import (
	"github.com/pkg/errors"

	"github.com/trezcool/lopay/core"
)

// FeeType selects how many installment periods follow the activation deposit.
type FeeType string

const (
	FeeTypeTerm       FeeType = "term"        // one academic term
	FeeTypeFullPeriod FeeType = "full_period" // a full academic session
)

// Plan frequencies
const (
	PlanWeekly  = "Weekly"
	PlanMonthly = "Monthly"
)

const (
	termPeriods       = 3
	fullPeriodPeriods = 7
	weeksPerPeriod    = 4
)

var (
	errInvalidFee     = errors.New("total fee must be positive")
	errInvalidFeeType = errors.New("unknown fee type")
)

type (
	// PlanOption is one way of spreading the remaining balance over time.
	PlanOption struct {
		Type             string  `json:"type"`
		Amount           float64 `json:"amount"`
		FrequencyLabel   string  `json:"frequency_label"`
		NumberOfPayments int     `json:"number_of_payments"`
	}

	// Quote prices an activation deposit plus the installment plan options for
	// a total fee. depositAmount + platformFeeAmount is due up front; the
	// remaining balance is spread over each option's payments.
	Quote struct {
		TotalFee            float64      `json:"total_fee"`
		FeeType             FeeType      `json:"fee_type"`
		DepositAmount       float64      `json:"deposit_amount"`
		PlatformFeeAmount   float64      `json:"platform_fee_amount"`
		TotalInitialPayment float64      `json:"total_initial_payment"`
		RemainingBalance    float64      `json:"remaining_balance"`
		Plans               []PlanOption `json:"plans"`
	}
)

// periodCount returns the number of installment periods for a fee type.
func periodCount(feeType FeeType) (int, error) {
	switch feeType {
	case FeeTypeTerm:
		return termPeriods, nil
	case FeeTypeFullPeriod:
		return fullPeriodPeriods, nil
	}
	return 0, errInvalidFeeType
}

// QuotePlan computes the activation payment and installment plan options for
// totalFee. It never mutates shared state and is safe to call speculatively.
func QuotePlan(totalFee float64, feeType FeeType, conf core.BillingConfig) (Quote, error) {
	if totalFee <= 0 {
		return Quote{}, core.NewValidationError(errInvalidFee,
			core.FieldError{Field: "total_fee", Error: errInvalidFee.Error()})
	}
	periods, err := periodCount(feeType)
	if err != nil {
		return Quote{}, core.NewValidationError(err,
			core.FieldError{Field: "fee_type", Error: err.Error()})
	}

	deposit := totalFee * conf.DepositFraction
	platformFee := totalFee * conf.PlatformFeeFraction
	remaining := totalFee * (1 - conf.DepositFraction)

	weeklyCount := periods * weeksPerPeriod
	monthlyCount := periods

	return Quote{
		TotalFee:            totalFee,
		FeeType:             feeType,
		DepositAmount:       deposit,
		PlatformFeeAmount:   platformFee,
		TotalInitialPayment: deposit + platformFee,
		RemainingBalance:    remaining,
		Plans: []PlanOption{
			{
				Type:             PlanWeekly,
				Amount:           remaining / float64(weeklyCount),
				FrequencyLabel:   "/ week",
				NumberOfPayments: weeklyCount,
			},
			{
				Type:             PlanMonthly,
				Amount:           remaining / float64(monthlyCount),
				FrequencyLabel:   "/ month",
				NumberOfPayments: monthlyCount,
			},
		},
	}, nil
}
