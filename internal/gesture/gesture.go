// Package gesture classifies hand poses and rate-limits their confirmation.
package gesture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownGesture is returned when a name does not denote a known gesture.
var ErrUnknownGesture = errors.New("unknown gesture")

// ID identifies a gesture from the closed set the classifier recognizes.
type ID string

const (
	// None means no gesture was recognized.
	None ID = ""
	// TwoFingerSign is index and middle fingers raised, ring and pinky curled.
	TwoFingerSign ID = "two_finger_sign"
	// OneFingerUp is only the index finger raised.
	OneFingerUp ID = "one_finger_up"
)

// all lists gestures in classification precedence order.
var all = []ID{TwoFingerSign, OneFingerUp}

var labels = map[ID]string{
	TwoFingerSign: "✌️ Two-finger sign",
	OneFingerUp:   "☝️ One finger up",
}

// aliases maps accepted spellings to gestures. The emoji forms are what older
// gesture_settings.json files contain.
var aliases = map[string]ID{
	"two_finger_sign": TwoFingerSign,
	"two-finger-sign": TwoFingerSign,
	"v_sign":          TwoFingerSign,
	"v-sign":          TwoFingerSign,
	"✌️":              TwoFingerSign,
	"✌":               TwoFingerSign,
	"one_finger_up":   OneFingerUp,
	"one-finger-up":   OneFingerUp,
	"☝️":              OneFingerUp,
	"☝":               OneFingerUp,
}

// All returns every gesture in precedence order.
func All() []ID {
	return append([]ID(nil), all...)
}

// Parse resolves a gesture name or alias. Matching ignores case and
// surrounding whitespace.
func Parse(s string) (ID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if id, ok := aliases[key]; ok {
		return id, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownGesture, s)
}

// Valid reports whether id is a member of the gesture set.
func (id ID) Valid() bool {
	_, ok := labels[id]
	return ok
}

// Label returns a human-readable name for menus and the settings UI.
func (id ID) Label() string {
	if l, ok := labels[id]; ok {
		return l
	}
	return "none"
}

func (id ID) String() string {
	if id == None {
		return "none"
	}
	return string(id)
}

// UnmarshalText accepts any alias so persisted documents stay readable
// across naming changes.
func (id *ID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = None
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
