package theme

import "testing"

func TestApplySwitchesPalette(t *testing.T) {
	Apply("dark")
	dark := Primary

	Apply("light")
	if Primary == dark {
		t.Error("expected light palette to change the primary color")
	}
	if Primary != palettes["light"].Primary {
		t.Error("active primary should come from the light palette")
	}

	Apply("dark")
}

func TestApplyUnknownFallsBackToDark(t *testing.T) {
	Apply("neon")
	if Primary != palettes["dark"].Primary {
		t.Error("unknown theme id should fall back to dark")
	}
}

func TestValidAndNames(t *testing.T) {
	for _, id := range Names() {
		if !Valid(id) {
			t.Errorf("listed theme %q should be valid", id)
		}
	}
	if Valid("neon") {
		t.Error("unlisted theme should be invalid")
	}
}
