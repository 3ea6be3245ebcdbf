package httpclient

// リクエストごとに付与するヘッダー。
const (
	// HeaderContentType はリクエストボディの形式を示すヘッダー。
	HeaderContentType = "Content-Type"
	// HeaderTimestamp はリクエスト組み立て時のUnix時刻（秒）を示すヘッダー。
	HeaderTimestamp = "timestamp"
	// HeaderToken はセッションストレージから読み出した認証トークンのヘッダー。
	HeaderToken = "token"

	// ContentTypeJSON はすべてのリクエストに設定するContent-Typeの値。
	ContentTypeJSON = "application/json;charset=UTF-8"
)
