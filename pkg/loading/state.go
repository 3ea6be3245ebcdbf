package loading

import "fmt"

// State はローディングインジケーターの表示状態。
type State int

const (
	// Hidden は非表示状態。インジケーターの初期状態でもある。
	Hidden State = iota
	// Visible は表示状態。
	Visible
)

// String は状態の文字列表現を返す。
func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Visible:
		return "visible"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText はJSON等で "hidden" / "visible" として出力するために実装する。
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText は "hidden" / "visible" を State に変換する。
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "hidden":
		*s = Hidden
	case "visible":
		*s = Visible
	default:
		return fmt.Errorf("不明なインジケーター状態: %q", string(text))
	}
	return nil
}
