package identity

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinLoginLen    = 3
	MaxLoginLen    = 32
	MinPasswordLen = 8
	MaxPasswordLen = 128
)

var reservedLogins = map[string]struct{}{
	"admin": {}, "root": {}, "system": {}, "support": {}, "null": {}, "none": {},
	"me": {}, "self": {}, "api": {}, "auth": {}, "login": {}, "logout": {},
	"register": {}, "user": {}, "users": {}, "test": {},
}

var commonPasswords = map[string]struct{}{
	"password": {}, "12345678": {}, "qwertyui": {}, "abcdefgh": {}, "11111111": {}, "password1": {},
}

func loginChar(r rune) bool {
	return r < utf8.RuneSelf && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-')
}

// ValidateLogin reports the first rule the login breaks.
func ValidateLogin(login string) error {
	fail := func(format string, a ...any) error {
		return &ValidationError{Kind: ErrInvalidLogin, Problems: []string{fmt.Sprintf(format, a...)}}
	}
	n := utf8.RuneCountInString(login)
	switch {
	case n == 0:
		return fail("login must not be empty")
	case n < MinLoginLen:
		return fail("login must be at least %d characters", MinLoginLen)
	case n > MaxLoginLen:
		return fail("login must be at most %d characters", MaxLoginLen)
	case strings.IndexFunc(login, func(r rune) bool { return !loginChar(r) }) >= 0:
		return fail("login may contain only latin letters, digits, '_' and '-'")
	case strings.ContainsAny(login[:1], "_-"):
		return fail("login must not start with '_' or '-'")
	case strings.ContainsAny(login[len(login)-1:], "_-"):
		return fail("login must not end with '_' or '-'")
	case strings.Contains(login, "__") || strings.Contains(login, "--"):
		return fail("login must not contain '__' or '--'")
	}
	if _, ok := reservedLogins[strings.ToLower(login)]; ok {
		return fail("login is reserved")
	}
	return nil
}

// ValidateEmail checks syntax only; deliverability is not checked.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return &ValidationError{Kind: ErrInvalidEmail, Problems: []string{"malformed email address"}}
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return &ValidationError{Kind: ErrInvalidEmail, Problems: []string{"email domain must contain a dot"}}
	}
	return nil
}

// ValidatePassword reports every rule the password breaks.
func ValidatePassword(password, login string) error {
	if password == "" {
		return &ValidationError{Kind: ErrWeakPassword, Problems: []string{"password must not be empty"}}
	}

	var digits, letters, lower, upper, unprintable int
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
		if unicode.IsLower(r) {
			lower++
		}
		if unicode.IsUpper(r) {
			upper++
		}
		if !unicode.IsPrint(r) {
			unprintable++
		}
	}
	total := utf8.RuneCountInString(password)

	var problems []string
	if total < MinPasswordLen {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	if total > MaxPasswordLen {
		problems = append(problems, fmt.Sprintf("password must be at most %d characters", MaxPasswordLen))
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		problems = append(problems, "password is too common")
	}
	if digits == total {
		problems = append(problems, "password must not consist of digits only")
	}
	if letters == total {
		problems = append(problems, "password must not consist of letters only")
	}
	if (lower > 0) != (upper > 0) {
		problems = append(problems, "use both upper and lower case letters")
	}
	if digits == 0 {
		problems = append(problems, "add at least one digit")
	}
	if letters == 0 {
		problems = append(problems, "add at least one letter")
	}
	if unprintable > 0 {
		problems = append(problems, "password contains unprintable characters")
	}
	if login != "" && strings.Contains(strings.ToLower(password), strings.ToLower(login)) {
		problems = append(problems, "password must not contain the login")
	}

	if len(problems) > 0 {
		return &ValidationError{Kind: ErrWeakPassword, Problems: problems}
	}
	return nil
}
