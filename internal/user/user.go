package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/account-hub/internal/core/datamodel/user"
	"github.com/frahmantamala/account-hub/internal/permission"
)

const EmailTypePrimary = "primary"

type User struct {
	ID               string          `json:"id"`
	Username         string          `json:"username"`
	PasswordHash     string          `json:"-"` // Never expose password hash
	ContactInfo      ContactInfo     `json:"contactInfo"`
	PersonalData     PersonalData    `json:"personalData"`
	IsEnterpriseUser bool            `json:"isEnterpriseUser"`
	Permissions      permission.List `json:"permissions"`
	Version          int64           `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type ContactInfo struct {
	Email       []Email       `json:"email"`
	PhoneNumber []PhoneNumber `json:"phoneNumber"`
}

type Email struct {
	Address  string `json:"address"`
	Type     string `json:"type"`
	Verified bool   `json:"verified"`
}

type PhoneNumber struct {
	CountryCode string `json:"countryCode"`
	Number      string `json:"number"`
	Verified    bool   `json:"verified"`
}

// String returns the dialable form, country code immediately followed by the number.
func (p PhoneNumber) String() string {
	return p.CountryCode + p.Number
}

type PersonalData struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Gender      string     `json:"gender"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Address     Address    `json:"address"`
}

type Address struct {
	Permanent Location `json:"permanent"`
}

type Location struct {
	Country string `json:"country"`
}

// PrimaryEmail returns the first email marked as primary.
func (u *User) PrimaryEmail() (Email, bool) {
	for _, e := range u.ContactInfo.Email {
		if e.Type == EmailTypePrimary {
			return e, true
		}
	}
	return Email{}, false
}

// FirstPhoneNumber returns the first listed phone number.
func (u *User) FirstPhoneNumber() (PhoneNumber, bool) {
	if len(u.ContactInfo.PhoneNumber) == 0 {
		return PhoneNumber{}, false
	}
	return u.ContactInfo.PhoneNumber[0], true
}

var ErrNotFound = errors.New("user not found")

func ToDataModel(u *User) *userDatamodel.User {
	dm := &userDatamodel.User{
		ID:               u.ID,
		Username:         u.Username,
		PasswordHash:     u.PasswordHash,
		FirstName:        u.PersonalData.FirstName,
		LastName:         u.PersonalData.LastName,
		Gender:           u.PersonalData.Gender,
		DateOfBirth:      u.PersonalData.DateOfBirth,
		PermanentCountry: u.PersonalData.Address.Permanent.Country,
		IsEnterpriseUser: u.IsEnterpriseUser,
		Permissions:      PermissionsToDataModel(u.Permissions),
		Version:          u.Version,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	for _, e := range u.ContactInfo.Email {
		dm.Emails = append(dm.Emails, userDatamodel.Email{
			UserID:   u.ID,
			Address:  e.Address,
			Type:     e.Type,
			Verified: e.Verified,
		})
	}
	for i, p := range u.ContactInfo.PhoneNumber {
		dm.PhoneNumbers = append(dm.PhoneNumbers, userDatamodel.PhoneNumber{
			UserID:      u.ID,
			CountryCode: p.CountryCode,
			Number:      p.Number,
			Verified:    p.Verified,
			Position:    i,
		})
	}
	return dm
}

func FromDataModel(u *userDatamodel.User) *User {
	out := &User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		ContactInfo: ContactInfo{
			Email:       make([]Email, 0, len(u.Emails)),
			PhoneNumber: make([]PhoneNumber, 0, len(u.PhoneNumbers)),
		},
		PersonalData: PersonalData{
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			Gender:      u.Gender,
			DateOfBirth: u.DateOfBirth,
			Address:     Address{Permanent: Location{Country: u.PermanentCountry}},
		},
		IsEnterpriseUser: u.IsEnterpriseUser,
		Permissions:      PermissionsFromDataModel(u.Permissions),
		Version:          u.Version,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
	for _, e := range u.Emails {
		out.ContactInfo.Email = append(out.ContactInfo.Email, Email{
			Address:  e.Address,
			Type:     e.Type,
			Verified: e.Verified,
		})
	}
	for _, p := range u.PhoneNumbers {
		out.ContactInfo.PhoneNumber = append(out.ContactInfo.PhoneNumber, PhoneNumber{
			CountryCode: p.CountryCode,
			Number:      p.Number,
			Verified:    p.Verified,
		})
	}
	return out
}

func PermissionsToDataModel(l permission.List) userDatamodel.PermissionSet {
	out := make(userDatamodel.PermissionSet, len(l))
	for i, e := range l {
		out[i] = userDatamodel.Permission{AppID: e.AppID, Roles: e.Roles}
	}
	return out
}

func PermissionsFromDataModel(s userDatamodel.PermissionSet) permission.List {
	out := make(permission.List, len(s))
	for i, p := range s {
		out[i] = permission.Entry{AppID: p.AppID, Roles: p.Roles}
	}
	return out.Clone()
}
