package domain

import (
	"crypto/subtle"
	"regexp"
)

var (
	phoneNumberRegexp = regexp.MustCompile(`^\+?[\s\-\d]+$`)
	emailRegexp       = regexp.MustCompile(`(?i)^[^@]+@[^.]+\..+$`)
)

// SecuredPassword is the one-way representation of a raw password.
// It is only ever compared, never decoded.
type SecuredPassword string

// Equal reports whether both secured passwords are the same, in constant time.
func (p SecuredPassword) Equal(other SecuredPassword) bool {
	return subtle.ConstantTimeCompare([]byte(p), []byte(other)) == 1
}

type User struct {
	Email       string
	Fullname    string
	PhoneNumber string
	Photo       string // opaque blob, base64 or reference as provided by the client
	Password    SecuredPassword
	Admin       bool
}

// NewUser validates email and phone number before building the user.
func NewUser(email, fullname, phoneNumber, photo string, password SecuredPassword, admin bool) (*User, error) {
	if !emailRegexp.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	u := &User{
		Email:    email,
		Fullname: fullname,
		Photo:    photo,
		Password: password,
		Admin:    admin,
	}
	if err := u.SetPhoneNumber(phoneNumber); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) SetPhoneNumber(phoneNumber string) error {
	if !phoneNumberRegexp.MatchString(phoneNumber) {
		return ErrInvalidPhoneNumber
	}
	u.PhoneNumber = phoneNumber
	return nil
}

func (u *User) SetPassword(password SecuredPassword) { u.Password = password }

func (u *User) SetFullname(fullname string) { u.Fullname = fullname }

func (u *User) SetPhoto(photo string) { u.Photo = photo }

func (u *User) PasswordMatch(candidate SecuredPassword) bool {
	return u.Password.Equal(candidate)
}

// CanAccess reports whether u may read or modify the profile identified by email.
func (u *User) CanAccess(email string) bool {
	return u.Admin || u.Email == email
}
