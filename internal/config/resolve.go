package config

import (
	"fmt"
	"regexp"

	"github.com/verte-zerg/splitclock/internal/model"
)

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}([0-9a-fA-F]{2})?$`)

// DefaultKeys returns the bindings for an input backend. The xinput backend
// names keys by X keycode (numpad 1-5), the terminal backend by key name.
func DefaultKeys(backend string) model.Keybindings {
	if backend == "xinput" {
		return model.Keybindings{
			Split: model.KeyBinding{Key: "87"},
			Reset: model.KeyBinding{Key: "88"},
			Undo:  model.KeyBinding{Key: "89"},
			Redo:  model.KeyBinding{Key: "83"},
			Lock:  model.KeyBinding{Key: "84"},
		}
	}
	return model.Keybindings{
		Split: model.KeyBinding{Key: "space"},
		Reset: model.KeyBinding{Key: "r"},
		Undo:  model.KeyBinding{Key: "u"},
		Redo:  model.KeyBinding{Key: "i"},
		Lock:  model.KeyBinding{Key: "l"},
	}
}

// DefaultColors returns the built-in palette.
func DefaultColors() model.Colors {
	return model.Colors{
		Base:          "#e6e6e6",
		AheadGaining:  "#00cc36",
		AheadLosing:   "#52cc73",
		BehindGaining: "#cc5c52",
		BehindLosing:  "#cc1200",
		Best:          "#d8af1f",
		Separator:     "#4a4a4a",
		DetailedTimer: "#9a9a9a",
	}
}

// ResolveKeys overlays configured bindings on the backend defaults.
func ResolveKeys(cfg KeysConfig, backend string) model.Keybindings {
	keys := DefaultKeys(backend)
	applyKey(&keys.Split, cfg.Split)
	applyKey(&keys.Reset, cfg.Reset)
	applyKey(&keys.Undo, cfg.Undo)
	applyKey(&keys.Redo, cfg.Redo)
	applyKey(&keys.Lock, cfg.Lock)
	return keys
}

func applyKey(target *model.KeyBinding, value *KeyConfig) {
	if value == nil {
		return
	}
	if value.Key != nil {
		target.Key = *value.Key
	}
	if value.Shift != nil {
		target.RequiresShift = *value.Shift
	}
}

// ResolveColors overlays configured colours on the defaults and validates them.
func ResolveColors(cfg ColorsConfig) (model.Colors, error) {
	colors := DefaultColors()
	fields := []struct {
		name   string
		target *string
		value  *string
	}{
		{"base", &colors.Base, cfg.Base},
		{"ahead-gaining", &colors.AheadGaining, cfg.AheadGaining},
		{"ahead-losing", &colors.AheadLosing, cfg.AheadLosing},
		{"behind-gaining", &colors.BehindGaining, cfg.BehindGaining},
		{"behind-losing", &colors.BehindLosing, cfg.BehindLosing},
		{"best", &colors.Best, cfg.Best},
		{"separator", &colors.Separator, cfg.Separator},
		{"detailed-timer", &colors.DetailedTimer, cfg.DetailedTimer},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if !ValidHexColor(*f.value) {
			return model.Colors{}, fmt.Errorf("colors.%s: %q is not #rrggbb or #rrggbbaa", f.name, *f.value)
		}
		*f.target = *f.value
	}
	return colors, nil
}

// ValidHexColor reports whether s is #rrggbb or #rrggbbaa.
func ValidHexColor(s string) bool {
	return hexColorRe.MatchString(s)
}
