package sellers

import (
	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
)

// IndividualProfile holds the fields that only apply to individual sellers.
type IndividualProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CompanyProfile holds the fields that only apply to company sellers.
type CompanyProfile struct {
	CompanyName string `json:"company_name"`
	TaxID       string `json:"tax_id,omitempty"`
}

// Profile is the API shape for a seller. Exactly one of Individual or
// Company is set, keyed by Type.
type Profile struct {
	ID             uuid.UUID          `json:"id"`
	Type           enums.SellerType   `json:"type"`
	DisplayName    string             `json:"display_name"`
	Email          string             `json:"email"`
	Status         enums.SellerStatus `json:"status"`
	CommissionRate *float64           `json:"commission_rate,omitempty"`
	Individual     *IndividualProfile `json:"individual,omitempty"`
	Company        *CompanyProfile    `json:"company,omitempty"`
}

// BuildProfile serializes a seller row into its tagged subtype shape.
func BuildProfile(seller *models.Seller) (*Profile, error) {
	profile := &Profile{
		ID:             seller.ID,
		Type:           seller.Type,
		DisplayName:    seller.DisplayName,
		Email:          seller.Email,
		Status:         seller.Status,
		CommissionRate: seller.CommissionRate,
	}

	switch seller.Type {
	case enums.SellerTypeIndividual:
		individual := &IndividualProfile{}
		if seller.FirstName != nil {
			individual.FirstName = *seller.FirstName
		}
		if seller.LastName != nil {
			individual.LastName = *seller.LastName
		}
		profile.Individual = individual
	case enums.SellerTypeCompany:
		company := &CompanyProfile{}
		if seller.CompanyName != nil {
			company.CompanyName = *seller.CompanyName
		}
		if seller.TaxID != nil {
			company.TaxID = *seller.TaxID
		}
		profile.Company = company
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown seller type")
	}
	return profile, nil
}
