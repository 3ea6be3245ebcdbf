package httpclient

import (
	"encoding/json"
	"net/http"
	"time"
)

// Request は1回の呼び出しで組み立てるリクエスト記述子。
// 呼び出しごとに生成され、完了後は破棄される。
type Request struct {
	// Method はHTTPメソッド。
	Method string
	// Path はベースURLからの相対パス。空であってはならない。
	Path string
	// Header はリクエストヘッダー。リクエスト段階で毎回組み立て直す。
	Header http.Header
	// Data はJSONにシリアライズする前のリクエストボディ。
	Data any
	// Body はシリアライズ済みのリクエストボディ。
	Body []byte
	// Loading はローディングインジケーターを表示するかどうか。
	Loading bool
	// SentAt はリクエスト段階が完了し、トランスポートに渡した日時。
	SentAt time.Time
}

// Response はトランスポートから受け取ったレスポンス。
type Response struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Header はレスポンスヘッダー。
	Header http.Header
	// Body はレスポンスボディ。
	Body json.RawMessage
}
