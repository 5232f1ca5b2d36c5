package core

import (
	"fmt"
	"strings"
	"time"
)

// DisplayProfile is the Kakao Talk profile shown for a linked account
type DisplayProfile struct {
	Nickname     string
	DisplayID    string  // email or phone number linked to the account
	ThumbnailURL *string // optional
}

// AccountRecord is one Kakao Talk account known to the device-wide agent.
// Records are immutable once fetched.
type AccountRecord struct {
	AccountID            string
	AccessToken          string
	RefreshToken         string
	LastLoginTime        time.Time
	IsUnifiedTermsAgreed bool
	Profile              DisplayProfile
}

// Snapshot is one point-in-time read of all linked account records,
// in the order the external agent stored them.
type Snapshot struct {
	Records []AccountRecord
}

func (s Snapshot) Len() int {
	return len(s.Records)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Records) == 0
}

// Active returns the most recently logged-in account.
// Equal login times resolve to the record that comes first in store order.
func (s Snapshot) Active() (AccountRecord, bool) {
	if s.IsEmpty() {
		return AccountRecord{}, false
	}
	best := 0
	for i := 1; i < len(s.Records); i++ {
		if s.Records[i].LastLoginTime.After(s.Records[best].LastLoginTime) {
			best = i
		}
	}
	return s.Records[best], true
}

// Main returns the first account in store order, regardless of login time
func (s Snapshot) Main() (AccountRecord, bool) {
	if s.IsEmpty() {
		return AccountRecord{}, false
	}
	return s.Records[0], true
}

// Select picks an account according to the given policy
func (s Snapshot) Select(loginType LoginType) (AccountRecord, bool) {
	if loginType == LoginTypeActive {
		return s.Active()
	}
	return s.Main()
}

func (s Snapshot) Find(accountID string) (AccountRecord, bool) {
	for _, r := range s.Records {
		if r.AccountID == accountID {
			return r, true
		}
	}
	return AccountRecord{}, false
}

func (s Snapshot) FindByRefreshToken(refreshToken string) (AccountRecord, bool) {
	if refreshToken == "" {
		return AccountRecord{}, false
	}
	for _, r := range s.Records {
		if r.RefreshToken == refreshToken {
			return r, true
		}
	}
	return AccountRecord{}, false
}

// LoginType is the account selection policy for multi-account devices
type LoginType int

const (
	// LoginTypeMain selects the first account logged in after Kakao Talk was launched
	LoginTypeMain LoginType = iota
	// LoginTypeActive selects the account currently active in Kakao Talk
	LoginTypeActive
)

func (t LoginType) String() string {
	switch t {
	case LoginTypeActive:
		return "active"
	default:
		return "main"
	}
}

func ParseLoginType(s string) (LoginType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main":
		return LoginTypeMain, nil
	case "active":
		return LoginTypeActive, nil
	}
	return LoginTypeMain, fmt.Errorf("unknown login type %q", s)
}

// LoginTarget names the account to log in with: either a selection policy
// or an explicit account id.
type LoginTarget struct {
	Policy    LoginType
	AccountID string
}

func TargetPolicy(loginType LoginType) LoginTarget {
	return LoginTarget{Policy: loginType}
}

func TargetAccount(accountID string) LoginTarget {
	return LoginTarget{AccountID: accountID}
}

// IsExplicit reports whether the target names an account id
func (t LoginTarget) IsExplicit() bool {
	return t.AccountID != ""
}

func (t LoginTarget) String() string {
	if t.IsExplicit() {
		return "account:" + t.AccountID
	}
	return "policy:" + t.Policy.String()
}

// AccountSummary is the public projection of an AccountRecord used by
// account choosers. It never carries credential material.
type AccountSummary struct {
	AccountID            string  `json:"account_id"`
	Nickname             string  `json:"nickname"`
	DisplayID            string  `json:"display_id"`
	ThumbnailURL         *string `json:"thumbnail_url,omitempty"`
	IsUnifiedTermsAgreed bool    `json:"is_unified_terms_agreed"`
	IsValid              bool    `json:"is_valid"`
}

func NewAccountSummary(r AccountRecord, valid bool) AccountSummary {
	return AccountSummary{
		AccountID:            r.AccountID,
		Nickname:             r.Profile.Nickname,
		DisplayID:            r.Profile.DisplayID,
		ThumbnailURL:         r.Profile.ThumbnailURL,
		IsUnifiedTermsAgreed: r.IsUnifiedTermsAgreed,
		IsValid:              valid,
	}
}

// TokenPair is the result of exchanging a group refresh token
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	TokenType             string `json:"token_type"`
	Scope                 string `json:"scope,omitempty"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}
