package user

import "github.com/frahmantamala/account-hub/internal/permission"

// ProfileResponse is the public view of a user.
type ProfileResponse struct {
	ID               string          `json:"id"`
	Username         string          `json:"username"`
	ContactInfo      ContactInfo     `json:"contactInfo"`
	PersonalData     PersonalData    `json:"personalData"`
	IsEnterpriseUser bool            `json:"isEnterpriseUser"`
	Permissions      permission.List `json:"permissions"`
}

func ToProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:               u.ID,
		Username:         u.Username,
		ContactInfo:      u.ContactInfo,
		PersonalData:     u.PersonalData,
		IsEnterpriseUser: u.IsEnterpriseUser,
		Permissions:      u.Permissions.Clone(),
	}
}
