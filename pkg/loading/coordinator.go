package loading

import "sync"

// Coordinator はリクエストのライフサイクルに合わせてインジケーターを切り替える。
type Coordinator interface {
	// Begin はローディング表示付きのリクエストを送信する直前に呼ばれる。
	Begin()
	// End はリクエストが完了（成功・失敗を問わない）するたびに呼ばれる。
	// loading はそのリクエストが Begin を呼んだかどうか。
	End(loading bool)
}

// Direct は Display に対して hide→show と hide をそのまま発行する Coordinator。
//
// 並行リクエストでは後勝ちになる。ローディング付きリクエストAの完了待ちの間に
// 別のリクエストBが完了すると、Aが未完了でもインジケーターは隠れる。
type Direct struct {
	display Display
}

// NewDirect は新しい Direct を生成する。
func NewDirect(d Display) *Direct {
	return &Direct{display: d}
}

// Begin は直前の状態に関係なく、一度隠してから表示し直す。
func (c *Direct) Begin() {
	c.display.Hide()
	c.display.Show()
}

// End は無条件にインジケーターを隠す。
func (c *Direct) End(_ bool) {
	c.display.Hide()
}

// Counting は実行中のローディングリクエスト数を数える Coordinator。
// 0→1 で表示し、カウントが0に戻った時点で隠す。
type Counting struct {
	mu       sync.Mutex
	display  Display
	inFlight int
}

// NewCounting は新しい Counting を生成する。
func NewCounting(d Display) *Counting {
	return &Counting{display: d}
}

// Begin は実行中カウントを増やし、最初の1件であれば表示する。
func (c *Counting) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight++
	if c.inFlight == 1 {
		c.display.Hide()
		c.display.Show()
	}
}

// End はローディング付きリクエストであればカウントを減らす。
// 実行中のローディングリクエストが無ければ隠す。
func (c *Counting) End(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if loading && c.inFlight > 0 {
		c.inFlight--
	}
	if c.inFlight == 0 {
		c.display.Hide()
	}
}

// InFlight は実行中のローディングリクエスト数を返す。
func (c *Counting) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}
