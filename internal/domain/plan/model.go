package plan

import (
	"errors"
	"strings"
)

// Billing type constants
const (
	BillingMonthly   = "MONTHLY"
	BillingQuarterly = "QUARTERLY"
	BillingYearly    = "YEARLY"
	BillingPackage   = "PACKAGE"
)

// ValidBillingTypes contains all valid billing types.
var ValidBillingTypes = []string{BillingMonthly, BillingQuarterly, BillingYearly, BillingPackage}

// Domain errors
var (
	ErrEmptyName          = errors.New("plan name cannot be empty")
	ErrNegativePrice      = errors.New("plan price cannot be negative")
	ErrInvalidBillingType = errors.New("billing type must be MONTHLY, QUARTERLY, YEARLY or PACKAGE")
)

// Plan is a billing plan that grants access to a set of courses.
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PriceCents  int64  `json:"priceCents"`
	BillingType string `json:"billingType"`
	IsActive    bool   `json:"isActive"`
}

// Validate checks if the Plan has valid data.
// PRE: Plan struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Plan) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.PriceCents < 0 {
		return ErrNegativePrice
	}
	if !isValidBillingType(p.BillingType) {
		return ErrInvalidBillingType
	}
	return nil
}

func isValidBillingType(t string) bool {
	for _, v := range ValidBillingTypes {
		if v == t {
			return true
		}
	}
	return false
}
