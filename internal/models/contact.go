package models

import "time"

// Contact is an address book entry created by its owner.
type Contact struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	FirstName      string    `json:"first_name" gorm:"type:varchar(100)"`
	LastName       string    `json:"last_name" gorm:"type:varchar(100)"`
	Email          string    `json:"email" gorm:"type:varchar(255)"`
	Phone          string    `json:"phone" gorm:"type:varchar(50)"`
	Birthday       Date      `json:"birthday"`
	AdditionalInfo string    `json:"additional_info"`
	OwnerID        uint      `json:"owner_id" gorm:"not null;index"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// ContactPatch carries a partial update; nil fields are left untouched.
// The owner is deliberately absent: ownership never changes after creation.
type ContactPatch struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Email          *string `json:"email"`
	Phone          *string `json:"phone"`
	Birthday       *Date   `json:"birthday"`
	AdditionalInfo *string `json:"additional_info"`
}

// Columns returns the supplied fields keyed by column name.
func (p ContactPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.FirstName != nil {
		cols["first_name"] = *p.FirstName
	}
	if p.LastName != nil {
		cols["last_name"] = *p.LastName
	}
	if p.Email != nil {
		cols["email"] = *p.Email
	}
	if p.Phone != nil {
		cols["phone"] = *p.Phone
	}
	if p.Birthday != nil {
		cols["birthday"] = *p.Birthday
	}
	if p.AdditionalInfo != nil {
		cols["additional_info"] = *p.AdditionalInfo
	}
	return cols
}

// Apply overwrites the supplied fields on c.
func (p ContactPatch) Apply(c *Contact) {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Birthday != nil {
		c.Birthday = *p.Birthday
	}
	if p.AdditionalInfo != nil {
		c.AdditionalInfo = *p.AdditionalInfo
	}
}
