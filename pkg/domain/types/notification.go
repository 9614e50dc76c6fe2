package types

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/m-mizutani/goerr/v2"
)

// NotificationChannelID is the platform channel every alert notification is
// posted to.
const NotificationChannelID = "yuh_blockin_alerts"

// NotificationID is the platform notification identity of an alert. Posting
// twice with the same id replaces the existing notification.
type NotificationID int32

func (x NotificationID) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// NotificationIDOf derives the notification id from the alert id. Every
// process computes the same value, which is what collapses duplicate
// presentations from different delivery surfaces.
func NotificationIDOf(id AlertID) NotificationID {
	return NotificationID(int32(xxhash.Sum64String(string(id)) & 0x7fffffff))
}

// SoundSlot is one of the three user-configurable sound selections.
type SoundSlot string

const (
	SoundSlotLow    SoundSlot = "low"
	SoundSlotNormal SoundSlot = "normal"
	SoundSlotHigh   SoundSlot = "high"
)

func (x SoundSlot) String() string {
	return string(x)
}

func (x SoundSlot) Validate() error {
	switch x {
	case SoundSlotLow, SoundSlotNormal, SoundSlotHigh:
		return nil
	}
	return goerr.New("invalid sound slot", goerr.V("slot", x))
}

// SlotFor maps an urgency onto its sound slot. urgent shares the high slot.
func SlotFor(u Urgency) SoundSlot {
	switch u {
	case UrgencyLow:
		return SoundSlotLow
	case UrgencyHigh, UrgencyUrgent:
		return SoundSlotHigh
	default:
		return SoundSlotNormal
	}
}

// Surface names a delivery path that can present a notification.
type Surface string

const (
	SurfaceForeground Surface = "foreground"
	SurfaceBackground Surface = "background"
	SurfacePush       Surface = "push"
)

func (x Surface) String() string {
	return string(x)
}
