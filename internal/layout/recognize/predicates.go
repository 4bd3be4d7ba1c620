package recognize

import (
	"fmt"
	"strings"

	"github.com/banshee-data/gridsnap/internal/layout"
)

// CategoryMatch holds when both objects have the same category.
func CategoryMatch(ref, cand *layout.Object) bool {
	return ref.Category() == cand.Category()
}

// SizeAtLeast holds when the size match score reaches th.
func SizeAtLeast(th float64) PredicateFunc {
	return func(ref, cand *layout.Object) bool {
		return layout.SizeMatchScore(ref, cand) >= th
	}
}

// DiceAtLeast holds when the Dice overlap reaches th.
func DiceAtLeast(th float64) PredicateFunc {
	return func(ref, cand *layout.Object) bool {
		return layout.Dice(ref, cand) >= th
	}
}

// SizeCorrectedDiceAtLeast holds when the size-corrected Dice score reaches th.
func SizeCorrectedDiceAtLeast(th float64) PredicateFunc {
	return func(ref, cand *layout.Object) bool {
		return layout.SizeCorrectedDice(ref, cand) >= th
	}
}

// ExactSize holds when the size match score is exactly 1.
func ExactSize(ref, cand *layout.Object) bool {
	return layout.SizeMatchScore(ref, cand) == 1
}

// ExactDice holds when the Dice overlap is exactly 1, i.e. the rectangles
// coincide.
func ExactDice(ref, cand *layout.Object) bool {
	return layout.Dice(ref, cand) == 1
}

// Preset names accepted by FromPreset.
const (
	PresetSize          = "size"
	PresetDice          = "dice"
	PresetSizeWithDice  = "size_dice"
	PresetSizeCorrected = "size_corrected"
	PresetExactSize     = "exact_size"
	PresetExactDice     = "exact_dice"
	PresetExact         = "exact"
)

// Presets lists the preset names.
func Presets() []string {
	return []string{PresetSize, PresetDice, PresetSizeWithDice, PresetSizeCorrected, PresetExactSize, PresetExactDice, PresetExact}
}

// SizeRecognizer matches same-category objects of similar size.
func SizeRecognizer(th float64) *Recognizer {
	return New().
		mustRegister("category", CategoryMatch).
		mustRegister(fmt.Sprintf("size>=%g", th), SizeAtLeast(th))
}

// DiceRecognizer matches same-category objects that overlap.
func DiceRecognizer(th float64) *Recognizer {
	return New().
		mustRegister("category", CategoryMatch).
		mustRegister(fmt.Sprintf("dice>=%g", th), DiceAtLeast(th))
}

// SizeWithDiceRecognizer requires both similar size and overlap.
func SizeWithDiceRecognizer(sizeTh, diceTh float64) *Recognizer {
	return New().
		mustRegister("category", CategoryMatch).
		mustRegister(fmt.Sprintf("size>=%g", sizeTh), SizeAtLeast(sizeTh)).
		mustRegister(fmt.Sprintf("dice>=%g", diceTh), DiceAtLeast(diceTh))
}

// SizeCorrectedRecognizer uses the size-corrected Dice score.
func SizeCorrectedRecognizer(th float64) *Recognizer {
	return New().
		mustRegister("category", CategoryMatch).
		mustRegister(fmt.Sprintf("size_corrected_dice>=%g", th), SizeCorrectedDiceAtLeast(th))
}

func ExactSizeRecognizer() *Recognizer {
	return New().mustRegister("category", CategoryMatch).mustRegister("exact_size", ExactSize)
}

func ExactDiceRecognizer() *Recognizer {
	return New().mustRegister("category", CategoryMatch).mustRegister("exact_dice", ExactDice)
}

// ExactRecognizer requires identical category, size and position.
func ExactRecognizer() *Recognizer {
	return New().
		mustRegister("category", CategoryMatch).
		mustRegister("exact_size", ExactSize).
		mustRegister("exact_dice", ExactDice)
}

// FromPreset builds a preset recognizer by name. Thresholds are ignored by
// presets that do not use them.
func FromPreset(name string, sizeTh, diceTh float64) (*Recognizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PresetSize:
		return SizeRecognizer(sizeTh), nil
	case PresetDice:
		return DiceRecognizer(diceTh), nil
	case PresetSizeWithDice:
		return SizeWithDiceRecognizer(sizeTh, diceTh), nil
	case PresetSizeCorrected:
		return SizeCorrectedRecognizer(diceTh), nil
	case PresetExactSize:
		return ExactSizeRecognizer(), nil
	case PresetExactDice:
		return ExactDiceRecognizer(), nil
	case PresetExact:
		return ExactRecognizer(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
