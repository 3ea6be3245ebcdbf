package loading

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner は端末上のスピナーとしてインジケーターを描画する Display。
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner は w に描画するスピナーを生成する。suffix はスピナーの後ろに表示する文言。
// w が端末でない場合、スピナーは何も描画しない。
func NewSpinner(w io.Writer, suffix string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(w),
		spinner.WithSuffix(suffix),
		spinner.WithHiddenCursor(true),
	)
	return &Spinner{s: s}
}

// Show はスピナーを開始する。
func (sp *Spinner) Show() {
	sp.s.Start()
}

// Hide はスピナーを停止する。
func (sp *Spinner) Hide() {
	sp.s.Stop()
}
