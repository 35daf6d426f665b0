// Package token encodes navigation and selection state into the short
// textual callback identifiers carried by inline keyboard buttons.
package token

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/errors"
)

// Kind discriminates the callback token variants. The kind fully
// determines which payload fields are meaningful.
type Kind string

const (
	KindShowGoals        Kind = "show_goals"          // Page
	KindGoals            Kind = "goals"               // Page
	KindGoal             Kind = "goal"                // GoalUID, Offset
	KindBatch            Kind = "batch"               // BatchUID
	KindRequest          Kind = "req"                 // BatchUID
	KindAdd              Kind = "add"                 // BatchUID
	KindCopy             Kind = "copy"                // BatchUID
	KindUpdateMenu       Kind = "batches_update_menu" // no payload
	KindAutoUpdateMenu   Kind = "auto_update_menu"    // no payload
	KindToggleAutoUpdate Kind = "toggle_auto_update"  // no payload
	KindManualUpdate     Kind = "manual_update"       // no payload
)

// MaxEncodedLen is the Telegram callback-data size limit. The encoder
// refuses to produce anything longer; the caller drops the button.
const MaxEncodedLen = 64

// Token is a decoded callback value. Only the fields named by Kind are set.
type Token struct {
	Kind     Kind
	Page     int
	GoalUID  string
	Offset   int
	BatchUID string
}

func ShowGoals(page int) Token { return Token{Kind: KindShowGoals, Page: page} }
func Goals(page int) Token { return Token{Kind: KindGoals, Page: page} }
func Goal(uid string, offset int) Token {
	return Token{Kind: KindGoal, GoalUID: uid, Offset: offset}
}
func Batch(uid string) Token { return Token{Kind: KindBatch, BatchUID: uid} }
func Request(uid string) Token { return Token{Kind: KindRequest, BatchUID: uid} }
func Add(uid string) Token { return Token{Kind: KindAdd, BatchUID: uid} }
func Copy(uid string) Token { return Token{Kind: KindCopy, BatchUID: uid} }
func UpdateMenu() Token { return Token{Kind: KindUpdateMenu} }
func AutoUpdateMenu() Token { return Token{Kind: KindAutoUpdateMenu} }
func ToggleAutoUpdate() Token { return Token{Kind: KindToggleAutoUpdate} }
func ManualUpdate() Token { return Token{Kind: KindManualUpdate} }

// Encode renders the token in the fixed underscore-joined wire format.
// It fails instead of emitting anything malformed or over the transport
// size limit.
func (t Token) Encode() (string, error) {
	var encoded string

	switch t.Kind {
	case KindShowGoals, KindGoals:
		if t.Page < 0 {
			return "", errors.Decode(fmt.Sprintf("negative page %d", t.Page))
		}
		encoded = string(t.Kind) + "_" + strconv.Itoa(t.Page)
	case KindGoal:
		if err := validateUID(t.GoalUID); err != nil {
			return "", err
		}
		if t.Offset < 0 {
			return "", errors.Decode(fmt.Sprintf("negative offset %d", t.Offset))
		}
		encoded = "goal_" + t.GoalUID + "_" + strconv.Itoa(t.Offset)
	case KindBatch, KindRequest, KindAdd, KindCopy:
		if err := validateUID(t.BatchUID); err != nil {
			return "", err
		}
		encoded = string(t.Kind) + "_" + t.BatchUID
	case KindUpdateMenu, KindAutoUpdateMenu, KindToggleAutoUpdate, KindManualUpdate:
		encoded = string(t.Kind)
	default:
		return "", errors.Decode("unknown token kind: " + string(t.Kind))
	}

	if len(encoded) > MaxEncodedLen {
		return "", errors.Decode(fmt.Sprintf("token %q exceeds %d bytes", encoded, MaxEncodedLen))
	}
	return encoded, nil
}

// Decode parses callback data back into a Token. Anything the system
// would not itself produce is rejected with a decode error.
func Decode(data string) (Token, error) {
	switch Kind(data) {
	case KindUpdateMenu, KindAutoUpdateMenu, KindToggleAutoUpdate, KindManualUpdate:
		return Token{Kind: Kind(data)}, nil
	}

	// Longer prefixes first: "show_goals_" shadows "goals_" shadows "goal_".
	switch {
	case strings.HasPrefix(data, "show_goals_"):
		page, err := parsePage(strings.TrimPrefix(data, "show_goals_"))
		if err != nil {
			return Token{}, err
		}
		return ShowGoals(page), nil

	case strings.HasPrefix(data, "goals_"):
		page, err := parsePage(strings.TrimPrefix(data, "goals_"))
		if err != nil {
			return Token{}, err
		}
		return Goals(page), nil

	case strings.HasPrefix(data, "goal_"):
		rest := strings.TrimPrefix(data, "goal_")
		idx := strings.LastIndex(rest, "_")
		if idx <= 0 || idx == len(rest)-1 {
			return Token{}, errors.Decode("goal token wants uid and offset: " + data)
		}
		uid := rest[:idx]
		offset, err := parsePage(rest[idx+1:])
		if err != nil {
			return Token{}, err
		}
		if err := validateUID(uid); err != nil {
			return Token{}, err
		}
		return Goal(uid, offset), nil

	case strings.HasPrefix(data, "batch_"):
		return uidToken(KindBatch, strings.TrimPrefix(data, "batch_"), data)
	case strings.HasPrefix(data, "req_"):
		return uidToken(KindRequest, strings.TrimPrefix(data, "req_"), data)
	case strings.HasPrefix(data, "add_"):
		return uidToken(KindAdd, strings.TrimPrefix(data, "add_"), data)
	case strings.HasPrefix(data, "copy_"):
		return uidToken(KindCopy, strings.TrimPrefix(data, "copy_"), data)
	}

	return Token{}, errors.Decode("unrecognized token: " + data)
}

func uidToken(kind Kind, uid string, data string) (Token, error) {
	if err := validateUID(uid); err != nil {
		return Token{}, errors.Wrap(err, "token "+data)
	}
	return Token{Kind: kind, BatchUID: uid}, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Decode("not an integer: " + s)
	}
	if n < 0 {
		return 0, errors.Decode("negative argument: " + s)
	}
	return n, nil
}

// validateUID rejects uids the codec cannot round-trip. Catalog uids are
// alphanumeric, so an underscore means corrupted input.
func validateUID(uid string) error {
	if uid == "" {
		return errors.Decode("empty uid")
	}
	if strings.Contains(uid, "_") {
		return errors.Decode("uid contains delimiter: " + uid)
	}
	return nil
}
