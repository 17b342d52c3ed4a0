package models

import "time"

type UserRole string

const (
	RoleClient    UserRole = "client"
	RoleCashier   UserRole = "cashier"
	RoleWarehouse UserRole = "warehouse"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	ID           uint     `gorm:"primaryKey"`
	FirstName    string   `gorm:"size:100;not null"`
	LastName     string   `gorm:"size:100"`
	Email        string   `gorm:"size:100;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null;default:client"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Value receiver so templates can call it on ranged values.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
