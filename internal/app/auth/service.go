// Package auth verifies usernames and passwords against a fixed set of
// bcrypt-hashed credentials. It issues no sessions or tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials maps a username to the bcrypt hash of its password.
// Usernames are matched case-insensitively.
type Credentials map[string][]byte

// Usernames returns the configured usernames, sorted.
func (c Credentials) Usernames() []string {
	out := make([]string, 0, len(c))
	for u := range c {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// DefaultUsers is the association's built-in account table, used when no
// credentials file is configured.
func DefaultUsers() map[string]string {
	return map[string]string{
		"admin":          "admin123",
		"ثروت_شرقاوى":    "president2024",
		"شرف_اسماعيل":    "vice2024",
		"محمد_مسعود":     "finance2024",
		"مليسة_مصطفى":    "member2024",
		"نيفين_الديباغ":  "secretary2024",
	}
}

// HashCredentials hashes every plaintext password with the given bcrypt cost.
func HashCredentials(plain map[string]string, cost int) (Credentials, error) {
	out := make(Credentials, len(plain))
	for user, pw := range plain {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", user, err)
		}
		out[user] = h
	}
	return out, nil
}

type Service struct {
	creds Credentials
}

func NewService(creds Credentials) *Service {
	folded := make(Credentials, len(creds))
	for user, hash := range creds {
		folded[foldUsername(user)] = hash
	}
	return &Service{creds: folded}
}

func foldUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// Login returns the trimmed username when the password matches.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	_ = ctx
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return "", &Error{
			Status:  400,
			Code:    CodeValidation,
			Message: "الرجاء إدخال اسم المستخدم وكلمة المرور",
		}
	}

	hash, ok := s.creds[foldUsername(username)]
	if !ok {
		return "", invalidCredentials()
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", invalidCredentials()
		}
		return "", fmt.Errorf("verify password for %q: %w", username, err)
	}
	return username, nil
}

func invalidCredentials() *Error {
	return &Error{
		Status:  401,
		Code:    CodeInvalidCredentials,
		Message: "اسم المستخدم أو كلمة المرور غير صحيحة",
	}
}
