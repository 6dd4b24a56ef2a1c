package authsdk

import (
	"regexp"
	"strings"
)

const (
	requiredReason = "required"
	onlyAlphanum   = "must only contain a-z, A-Z, 0-9, _ or -"
)

var (
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	reEmail    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone    = regexp.MustCompile(`^\+?[0-9][0-9 -]{5,19}$`)
)

// Validate checks the registration fields. It returns a map of field names to
// error messages, or nil if all fields are valid.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" && strings.TrimSpace(r.Phone) == "" && strings.TrimSpace(r.Username) == "" {
		errs["identity"] = "one of email, phone or username is required"
	}

	r.validateEmail(errs)
	r.validatePhone(errs)
	r.validateUsername(errs)
	r.validateFullName(errs)
	r.validateSecret(errs)
	r.validateRole(errs)

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (r RegisterRequest) validateEmail(errs map[string]string) {
	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
	case len(email) > 254:
		errs["email"] = "too long (max 254)"
	case !reEmail.MatchString(email):
		errs["email"] = "must be a valid email address"
	}
}

func (r RegisterRequest) validatePhone(errs map[string]string) {
	phone := strings.TrimSpace(r.Phone)
	if phone != "" && !rePhone.MatchString(phone) {
		errs["phone"] = "must be a valid phone number"
	}
}

func (r RegisterRequest) validateUsername(errs map[string]string) {
	username := strings.TrimSpace(r.Username)
	switch {
	case username == "":
	case len(username) < 3 || len(username) > 32:
		errs["username"] = "must be 3-32 characters"
	case !reUsername.MatchString(username):
		errs["username"] = onlyAlphanum
	}
}

func (r RegisterRequest) validateFullName(errs map[string]string) {
	if len(strings.TrimSpace(r.FullName)) > 64 {
		errs["fullName"] = "too long (max 64)"
	}
}

func (r RegisterRequest) validateSecret(errs map[string]string) {
	switch {
	case r.Secret == "":
		errs["secret"] = requiredReason
	case len(r.Secret) < 8:
		errs["secret"] = "too short (min 8)"
	case len(r.Secret) > 128:
		errs["secret"] = "too long (max 128)"
	}
}

func (r RegisterRequest) validateRole(errs map[string]string) {
	switch r.RequestedRole {
	case "", RoleAdmin, RoleSuperAdmin:
	default:
		errs["requestedRole"] = "must be ADMIN or SUPER_ADMIN"
	}
}
