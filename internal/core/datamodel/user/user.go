package user

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type User struct {
	ID               string        `gorm:"primaryKey;column:id"`
	Username         string        `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash     string        `gorm:"column:password_hash"`
	FirstName        string        `gorm:"column:first_name"`
	LastName         string        `gorm:"column:last_name"`
	Gender           string        `gorm:"column:gender"`
	DateOfBirth      *time.Time    `gorm:"column:date_of_birth"`
	PermanentCountry string        `gorm:"column:permanent_country"`
	IsEnterpriseUser bool          `gorm:"column:is_enterprise_user;default:false"`
	Permissions      PermissionSet `gorm:"column:permissions;type:text"`
	Version          int64         `gorm:"column:version;not null;default:1"`
	Emails           []Email       `gorm:"foreignKey:UserID"`
	PhoneNumbers     []PhoneNumber `gorm:"foreignKey:UserID"`
	CreatedAt        time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

type Email struct {
	ID       int64  `gorm:"primaryKey"`
	UserID   string `gorm:"column:user_id;index;not null"`
	Address  string `gorm:"column:address;uniqueIndex;not null"`
	Type     string `gorm:"column:type;not null;default:secondary"`
	Verified bool   `gorm:"column:verified;default:false"`
}

func (Email) TableName() string { return "user_emails" }

type PhoneNumber struct {
	ID          int64  `gorm:"primaryKey"`
	UserID      string `gorm:"column:user_id;index;not null"`
	CountryCode string `gorm:"column:country_code"`
	Number      string `gorm:"column:number;not null"`
	Verified    bool   `gorm:"column:verified;default:false"`
	Position    int    `gorm:"column:position;default:0"`
}

func (PhoneNumber) TableName() string { return "user_phone_numbers" }

type Permission struct {
	AppID string   `json:"appId"`
	Roles []string `json:"roles"`
}

// PermissionSet is stored as a JSON array in a single column. It implements
// driver.Valuer so it can be written through map-based updates as well.
type PermissionSet []Permission

func (p PermissionSet) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PermissionSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PermissionSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("permission set: unsupported column type %T", src)
	}
	if len(raw) == 0 {
		*p = PermissionSet{}
		return nil
	}
	var out PermissionSet
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("permission set: %w", err)
	}
	if out == nil {
		out = PermissionSet{}
	}
	*p = out
	return nil
}
