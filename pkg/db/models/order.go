package models

import (
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a finalized purchase placed through the bot.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null;index" json:"customer_phone"`
	CustomerName    *string           `gorm:"column:customer_name" json:"customer_name,omitempty"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	DeliveryAddress *string           `gorm:"column:delivery_address" json:"delivery_address,omitempty"`
	Notes           *string           `gorm:"column:notes" json:"notes,omitempty"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null" json:"total_amount"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	DeliveredAt     *time.Time        `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName pins the table name so sqlite and postgres agree.
func (Order) TableName() string {
	return "orders"
}

// IsPickup reports whether the order has no delivery address.
func (o Order) IsPickup() bool {
	return o.DeliveryAddress == nil
}

// IDSuffix returns the short reference shown to customers.
func (o Order) IDSuffix() string {
	id := o.ID.String()
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
