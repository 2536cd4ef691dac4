// Package identity keeps registered users and the interactive session.
package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"password_hash"`
	First        string    `json:"first"`
	Last         string    `json:"last"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSink persists the whole user collection.
type UserSink interface {
	Save(ctx context.Context, users []User) error
}

type RegisterInput struct {
	Email, Login, Password string
	First, Last            string
}

type Directory struct {
	mu     sync.RWMutex
	users  []User
	sink   UserSink
	params Params
	now    func() time.Time
}

// NewDirectory takes ownership of users. sink may be nil.
func NewDirectory(users []User, sink UserSink) *Directory {
	return &Directory{users: users, sink: sink, params: DefaultParams, now: time.Now}
}

// WithParams overrides the password hashing cost.
func (d *Directory) WithParams(p Params) *Directory {
	d.params = p
	return d
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

func (d *Directory) ByID(id int64) (User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (d *Directory) byLogin(login string) (User, bool) {
	for _, u := range d.users {
		if strings.EqualFold(u.Login, login) {
			return u, true
		}
	}
	return User{}, false
}

// Register validates in, stores a new user and flushes the directory.
// Logins and emails are unique case-insensitively.
func (d *Directory) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.TrimSpace(in.Email)
	login := strings.TrimSpace(in.Login)
	if email == "" || login == "" || in.Password == "" {
		return User{}, fmt.Errorf("register needs email, login and password: %w", ErrMissingField)
	}
	if err := ValidateLogin(login); err != nil {
		return User{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return User{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := int64(0)
	for _, u := range d.users {
		if strings.EqualFold(u.Login, login) {
			return User{}, ErrLoginTaken
		}
		if strings.EqualFold(u.Email, email) {
			return User{}, ErrEmailTaken
		}
		next = max(next, u.ID+1)
	}
	if err := ValidatePassword(in.Password, login); err != nil {
		return User{}, err
	}

	hash, err := HashPassword(in.Password, d.params)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           next,
		Email:        email,
		Login:        login,
		PasswordHash: hash,
		First:        strings.TrimSpace(in.First),
		Last:         strings.TrimSpace(in.Last),
		CreatedAt:    d.now().UTC().Truncate(time.Second),
	}

	users := append(d.users[:len(d.users):len(d.users)], u)
	if d.sink != nil {
		if err := d.sink.Save(ctx, users); err != nil {
			return User{}, fmt.Errorf("save users: %w", err)
		}
	}
	d.users = users

	log.Info().Int64("user", u.ID).Str("login", u.Login).Msg("user registered")
	return u, nil
}

// Login checks credentials. Unknown logins and wrong passwords are
// indistinguishable to the caller.
func (d *Directory) Login(login, password string) (User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return User{}, fmt.Errorf("login needs login and password: %w", ErrMissingField)
	}
	d.mu.RLock()
	u, ok := d.byLogin(login)
	d.mu.RUnlock()
	if !ok || !VerifyPassword(password, u.PasswordHash) {
		return User{}, ErrBadCredentials
	}
	return u, nil
}
