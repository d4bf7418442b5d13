package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// Seller is the marketplace seller registry row. Individual and company
// sellers share one table; Type discriminates which profile columns apply.
type Seller struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type           enums.SellerType   `gorm:"column:type;type:seller_type;not null"`
	DisplayName    string             `gorm:"column:display_name;not null"`
	Email          string             `gorm:"column:email;not null"`
	FirstName      *string            `gorm:"column:first_name"`
	LastName       *string            `gorm:"column:last_name"`
	CompanyName    *string            `gorm:"column:company_name"`
	TaxID          *string            `gorm:"column:tax_id"`
	CommissionRate *float64           `gorm:"column:commission_rate;type:numeric(6,5)"`
	APIKeyHash     *string            `gorm:"column:api_key_hash"`
	Status         enums.SellerStatus `gorm:"column:status;type:seller_status;not null;default:'onboarding'"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
