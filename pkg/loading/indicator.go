package loading

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Display はローディング表示を描画するコラボレーター。
// Show と Hide はどちらも冪等でなければならない。
type Display interface {
	// Show はインジケーターを表示する。
	Show()
	// Hide はインジケーターを隠す。
	Hide()
}

// Transition はインジケーターの状態遷移1回分の記録。
type Transition struct {
	// ID は遷移の一意識別子（UUID）。
	ID string `json:"id"`
	// From は遷移前の状態。
	From State `json:"from"`
	// To は遷移後の状態。
	To State `json:"to"`
	// At は遷移が発生した日時（UTC）。
	At time.Time `json:"at"`
}

// Observer は状態遷移の通知を受け取る。
type Observer interface {
	Observe(t Transition)
}

// ObserverFunc は関数を Observer として扱うためのアダプタ。
type ObserverFunc func(t Transition)

// Observe は f(t) を呼び出す。
func (f ObserverFunc) Observe(t Transition) { f(t) }

// Indicator はプロセス全体で共有するローディングインジケーター。
// 状態はミューテックスで保護されており、複数のgoroutineから安全に操作できる。
// 実際に状態が変化したときだけ、登録された Display と Observer に通知する。
// 通知はロックを保持したまま同期的に行うため、Display と Observer から
// Indicator を操作してはならない。
type Indicator struct {
	mu        sync.Mutex
	state     State
	displays  []Display
	observers []Observer
	now       func() time.Time
}

// NewIndicator は Hidden 状態の新しいインジケーターを生成する。
func NewIndicator(displays ...Display) *Indicator {
	return &Indicator{
		state:    Hidden,
		displays: displays,
		now:      time.Now,
	}
}

// Attach は描画先の Display を追加する。
func (i *Indicator) Attach(d Display) {
	if d == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.displays = append(i.displays, d)
}

// AddObserver は状態遷移の通知先を追加する。
func (i *Indicator) AddObserver(o Observer) {
	if o == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.observers = append(i.observers, o)
}

// Show はインジケーターを Visible にする。既に Visible なら何もしない。
func (i *Indicator) Show() {
	i.transition(Visible)
}

// Hide はインジケーターを Hidden にする。既に Hidden なら何もしない。
func (i *Indicator) Hide() {
	i.transition(Hidden)
}

// State は現在の状態を返す。
func (i *Indicator) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

func (i *Indicator) transition(to State) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.state == to {
		return
	}

	t := Transition{
		ID:   uuid.New().String(),
		From: i.state,
		To:   to,
		At:   i.now().UTC(),
	}
	i.state = to

	for _, d := range i.displays {
		if to == Visible {
			d.Show()
		} else {
			d.Hide()
		}
	}
	for _, o := range i.observers {
		o.Observe(t)
	}
}
