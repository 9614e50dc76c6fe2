package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type AlertID string

func (x AlertID) String() string {
	return string(x)
}

func NewAlertID() AlertID {
	id, err := uuid.NewV7()
	if err != nil {
		panic(err)
	}
	return AlertID(id.String())
}

func (x AlertID) Validate() error {
	if x == EmptyAlertID {
		return goerr.New("empty alert ID")
	}
	if _, err := uuid.Parse(string(x)); err != nil {
		return goerr.Wrap(err, "invalid alert ID format", goerr.V("id", x))
	}
	return nil
}

const (
	EmptyAlertID AlertID = ""
)

// UserID identifies a registered identity, either as sender or as receiver.
type UserID string

func (x UserID) String() string {
	return string(x)
}

const EmptyUserID UserID = ""

// PlateHash is the lookup key of a licence plate in the plate registry. Plates
// never leave the device in clear text.
type PlateHash string

func (x PlateHash) String() string {
	return string(x)
}

// NormalizePlate upper-cases a plate and drops separators so "abc-123" and
// "ABC 123" resolve to the same owner.
func NormalizePlate(plate string) string {
	var b strings.Builder
	for _, r := range plate {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

func HashPlate(plate string) PlateHash {
	sum := sha256.Sum256([]byte(NormalizePlate(plate)))
	return PlateHash(hex.EncodeToString(sum[:]))
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

var urgencyLabels = map[Urgency]string{
	UrgencyLow:    "🟢 Low",
	UrgencyNormal: "🟡 Normal",
	UrgencyHigh:   "🔴 High",
	UrgencyUrgent: "🚨 Urgent",
}

func (x Urgency) Label() string {
	return urgencyLabels[x]
}

func (x Urgency) String() string {
	return string(x)
}

func (x Urgency) Validate() error {
	switch x {
	case UrgencyLow, UrgencyNormal, UrgencyHigh, UrgencyUrgent:
		return nil
	}
	return goerr.New("invalid urgency", goerr.V("urgency", x))
}

// ResponseCode is the receiver's answer to an alert.
type ResponseCode string

const (
	ResponseMovingNow   ResponseCode = "moving_now"
	ResponseFiveMinutes ResponseCode = "five_minutes"
	ResponseCantMove    ResponseCode = "cant_move"
	ResponseWrongCar    ResponseCode = "wrong_car"
)

var responseLabels = map[ResponseCode]string{
	ResponseMovingNow:   "🚗 Moving now",
	ResponseFiveMinutes: "⏱️ Five minutes",
	ResponseCantMove:    "🚫 Can't move",
	ResponseWrongCar:    "❓ Wrong car",
}

func (x ResponseCode) Label() string {
	return responseLabels[x]
}

func (x ResponseCode) String() string {
	return string(x)
}

func (x ResponseCode) Validate() error {
	switch x {
	case ResponseMovingNow, ResponseFiveMinutes, ResponseCantMove, ResponseWrongCar:
		return nil
	}
	return goerr.New("invalid response code", goerr.V("response", x))
}

// AutoResolves reports whether the sender side can close the alert as soon as
// this response is observed. The other codes need a follow-up.
func (x ResponseCode) AutoResolves() bool {
	return x == ResponseMovingNow || x == ResponseWrongCar
}
