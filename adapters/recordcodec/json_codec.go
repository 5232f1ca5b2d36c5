// Package recordcodec converts the account records written by the Kakao Talk
// agent to and from core snapshots.
package recordcodec

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kakao/partnersso/core"
	"github.com/kakao/partnersso/ports"
)

type recordsJSON struct {
	Infos []recordJSON `json:"infos" validate:"required,dive"`
}

type recordJSON struct {
	UserID               string     `json:"userId" validate:"required"`
	AccessToken          string     `json:"accessToken" validate:"required"`
	RefreshToken         string     `json:"refreshToken" validate:"required"`
	LastLoginDate        *epochTime `json:"lastLoginDate" validate:"required"`
	IsUnifiedTermsAgreed *bool      `json:"isUnifiedTermsAgreed" validate:"required"`
	User                 *userJSON  `json:"user" validate:"required"`
}

// Profile strings may be empty but must be present
type userJSON struct {
	NickName     *string `json:"nickName" validate:"required"`
	DisplayID    *string `json:"displayId" validate:"required"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// JSONCodec implements the RecordCodec interface for the agent's JSON format
type JSONCodec struct {
	validate *validator.Validate
}

var _ ports.RecordCodec = (*JSONCodec)(nil)

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{validate: validator.New()}
}

// Decode parses a full record set. A single invalid record fails the whole
// decode with core.ErrDecode.
func (c *JSONCodec) Decode(data []byte) (core.Snapshot, error) {
	var doc recordsJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %w", core.ErrDecode, err)
	}
	if err := c.validate.Struct(&doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %w", core.ErrDecode, err)
	}

	seen := make(map[string]struct{}, len(doc.Infos))
	records := make([]core.AccountRecord, 0, len(doc.Infos))
	for _, info := range doc.Infos {
		if _, dup := seen[info.UserID]; dup {
			return core.Snapshot{}, fmt.Errorf("%w: duplicate account %q", core.ErrDecode, info.UserID)
		}
		seen[info.UserID] = struct{}{}

		records = append(records, core.AccountRecord{
			AccountID:            info.UserID,
			AccessToken:          info.AccessToken,
			RefreshToken:         info.RefreshToken,
			LastLoginTime:        info.LastLoginDate.t,
			IsUnifiedTermsAgreed: *info.IsUnifiedTermsAgreed,
			Profile: core.DisplayProfile{
				Nickname:     *info.User.NickName,
				DisplayID:    *info.User.DisplayID,
				ThumbnailURL: info.User.ThumbnailURL,
			},
		})
	}
	return core.Snapshot{Records: records}, nil
}

// Encode writes a snapshot in the agent's format
func (c *JSONCodec) Encode(snapshot core.Snapshot) ([]byte, error) {
	doc := recordsJSON{Infos: make([]recordJSON, 0, snapshot.Len())}
	for _, r := range snapshot.Records {
		agreed, nickname, displayID := r.IsUnifiedTermsAgreed, r.Profile.Nickname, r.Profile.DisplayID
		doc.Infos = append(doc.Infos, recordJSON{
			UserID:               r.AccountID,
			AccessToken:          r.AccessToken,
			RefreshToken:         r.RefreshToken,
			LastLoginDate:        &epochTime{t: r.LastLoginTime},
			IsUnifiedTermsAgreed: &agreed,
			User: &userJSON{
				NickName:     &nickname,
				DisplayID:    &displayID,
				ThumbnailURL: r.Profile.ThumbnailURL,
			},
		})
	}
	if err := c.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// maxEpochSeconds bounds lastLoginDate so the millisecond value fits in an int64
const maxEpochSeconds = math.MaxInt64 / 1000

// epochTime is a timestamp written either as seconds since the Unix epoch
// or as an RFC 3339 string. Millisecond precision is kept.
type epochTime struct {
	t time.Time
}

func (e *epochTime) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid lastLoginDate: %w", err)
		}
		e.t = t.UTC()
		return nil
	}

	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid lastLoginDate: %w", err)
	}
	if math.IsNaN(secs) || math.IsInf(secs, 0) || math.Abs(secs) >= maxEpochSeconds {
		return fmt.Errorf("invalid lastLoginDate %s", data)
	}
	e.t = time.UnixMilli(int64(math.Round(secs * 1000))).UTC()
	return nil
}

func (e epochTime) MarshalJSON() ([]byte, error) {
	secs := float64(e.t.UnixMilli()) / 1000
	return []byte(strconv.FormatFloat(secs, 'f', -1, 64)), nil
}
