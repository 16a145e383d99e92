package model

import "time"

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// User 用户表
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(190);not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Name         string    `gorm:"type:varchar(120)" json:"name"`
	Role         Role      `gorm:"type:varchar(16);not null" json:"role"`
	CustomerID   *uint     `gorm:"index" json:"customerId"`
	IsDisabled   bool      `gorm:"not null" json:"isDisabled"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
