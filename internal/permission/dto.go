package permission

type GrantRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

type ReplaceRequest struct {
	UserID  string `json:"user_id" validate:"required"`
	NewRole string `json:"new_role" validate:"required"`
	OldRole string `json:"old_role" validate:"required"`
}

type ListQuery struct {
	Authorization string `json:"authorization" validate:"required"`
	UserID        string `json:"user_id" validate:"required"`
}

type RevokeQuery struct {
	Authorization string `json:"authorization" validate:"required"`
	UserID        string `json:"user_id" validate:"required"`
	Role          string `json:"role" validate:"required"`
}
