package models

import "time"

// Profile is the per-user record kept in the profile store. There is exactly
// one Profile per UserIdentity.ID; Username is unique and lowercase.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	Bio         *string
	AvatarURL   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	DisplayName *string `validate:"omitnil,min=1,max=64"`
	Bio         *string `validate:"omitempty,max=280"`
}

// AvatarUpload is an image picked by the user for their profile.
type AvatarUpload struct {
	Data        []byte `validate:"required"`
	ContentType string `validate:"required,startswith=image/"`
}
