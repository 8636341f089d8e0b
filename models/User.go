package models

// User represents an application account that can authenticate with the platform.
type User struct {
	Record
	Email        string   `gorm:"uniqueIndex;not null"`
	PasswordHash string   `gorm:"not null"`
	Name         string
	KitchenID    string   `gorm:"type:varchar(36);index;not null"`
	Kitchen      *Kitchen `gorm:"foreignKey:KitchenID"`
}
