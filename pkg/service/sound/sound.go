// Package sound stores the user's notification sound for each slot.
package sound

import (
	"context"
	"slices"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Catalog lists the selectable sounds per slot. The first entry is the default.
var Catalog = map[types.SoundSlot][]string{
	types.SoundSlotLow: {
		"sounds/low/soft_chime.mp3",
		"sounds/low/gentle_bell.mp3",
		"sounds/low/whisper.mp3",
	},
	types.SoundSlotNormal: {
		"sounds/normal/classic_horn.mp3",
		"sounds/normal/double_beep.mp3",
		"sounds/normal/steel_pan.mp3",
	},
	types.SoundSlotHigh: {
		"sounds/high/air_horn.mp3",
		"sounds/high/siren.mp3",
		"sounds/high/alarm_clock.mp3",
	},
}

func Default(slot types.SoundSlot) string {
	return Catalog[slot][0]
}

func keyFor(slot types.SoundSlot) string {
	return "sound:" + slot.String()
}

// Preferences implements interfaces.SoundPreferences on top of local storage.
type Preferences struct {
	kv interfaces.KVStore
}

var _ interfaces.SoundPreferences = &Preferences{}

func New(kv interfaces.KVStore) *Preferences {
	return &Preferences{kv: kv}
}

// GetSoundForLevel returns the selected sound for urgency's slot, or the
// slot's default when nothing valid is stored.
func (x *Preferences) GetSoundForLevel(ctx context.Context, urgency types.Urgency) (string, error) {
	slot := types.SlotFor(urgency)
	return x.GetSound(ctx, slot)
}

func (x *Preferences) GetSound(ctx context.Context, slot types.SoundSlot) (string, error) {
	if err := slot.Validate(); err != nil {
		return "", goerr.Wrap(err, "unknown sound slot", goerr.T(errs.TagValidation))
	}

	raw, err := x.kv.Get(ctx, keyFor(slot))
	if err != nil {
		return Default(slot), goerr.Wrap(err, "failed to read sound preference", goerr.V("slot", slot))
	}
	if raw == nil || !slices.Contains(Catalog[slot], string(raw)) {
		return Default(slot), nil
	}
	return string(raw), nil
}

func (x *Preferences) SetSound(ctx context.Context, slot types.SoundSlot, path string) error {
	if err := slot.Validate(); err != nil {
		return goerr.Wrap(err, "unknown sound slot", goerr.T(errs.TagValidation))
	}
	if !slices.Contains(Catalog[slot], path) {
		return goerr.New("sound is not in the catalog for this slot",
			goerr.T(errs.TagValidation),
			goerr.V("slot", slot),
			goerr.V("path", path))
	}
	if err := x.kv.Put(ctx, keyFor(slot), []byte(path)); err != nil {
		return goerr.Wrap(err, "failed to save sound preference", goerr.V("slot", slot))
	}
	return nil
}

// All returns the current selection for every slot.
func (x *Preferences) All(ctx context.Context) (map[types.SoundSlot]string, error) {
	out := make(map[types.SoundSlot]string, len(Catalog))
	for _, slot := range []types.SoundSlot{types.SoundSlotLow, types.SoundSlotNormal, types.SoundSlotHigh} {
		path, err := x.GetSound(ctx, slot)
		if err != nil {
			return nil, err
		}
		out[slot] = path
	}
	return out, nil
}
