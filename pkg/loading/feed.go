package loading

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// feedSendBuffer はクライアントごとの送信待ちメッセージ数の上限。
const feedSendBuffer = 16

// feedMessage はWebSocketで配信するメッセージのJSON構造。
type feedMessage struct {
	// State は現在のインジケーター状態。
	State State `json:"state"`
	// At は状態が変化した日時。接続直後の初期メッセージでは送信時刻。
	At time.Time `json:"at"`
	// ID は対応する状態遷移のID。初期メッセージでは空。
	ID string `json:"id,omitempty"`
}

// Feed はインジケーターの状態をWebSocketでUIに配信する Observer。
// http.Handler として任意のルーターに登録できる。
type Feed struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	state   State
	clients map[*feedClient]struct{}
	closed  bool
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *feedClient) close() {
	c.once.Do(func() { close(c.send) })
}

// NewFeed は新しい Feed を生成する。
// allowOrigin が nil の場合、Originヘッダーは検査しない。
func NewFeed(allowOrigin func(r *http.Request) bool) *Feed {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
		clients: make(map[*feedClient]struct{}),
	}
}

// Observe は状態遷移を接続中の全クライアントに配信する。
// 送信バッファが埋まっているクライアントへのメッセージは破棄する。
func (f *Feed) Observe(t Transition) {
	msg, err := json.Marshal(feedMessage{State: t.To, At: t.At, ID: t.ID})
	if err != nil {
		log.Printf("[Loading] フィードメッセージのシリアライズに失敗: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.state = t.To
	for c := range f.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP はWebSocket接続を受け付け、現在の状態を送信してから購読を開始する。
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Loading] WebSocketへのアップグレードに失敗: %v", err)
		return
	}

	client := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = conn.Close()
		return
	}
	initial, _ := json.Marshal(feedMessage{State: f.state, At: time.Now().UTC()})
	client.send <- initial
	f.clients[client] = struct{}{}
	f.mu.Unlock()

	go f.writeLoop(client)
	f.readLoop(client)
}

// writeLoop は送信キューのメッセージをクライアントに書き込む。
func (f *Feed) writeLoop(c *feedClient) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			f.remove(c)
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readLoop はクライアントの切断を検知するために受信を続ける。
// クライアントから送られたメッセージは読み捨てる。
func (f *Feed) readLoop(c *feedClient) {
	defer f.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) remove(c *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c]; ok {
		delete(f.clients, c)
		c.close()
	}
}

// Clients は接続中のクライアント数を返す。
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close は全クライアントとの接続を閉じ、以降の接続を拒否する。
func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for c := range f.clients {
		delete(f.clients, c)
		c.close()
	}
	return nil
}
