// Package httpclient はシングルページクライアント向けのリクエストゲートウェイを提供する。
//
// すべてのリクエストはインターセプターパイプラインを通る。リクエスト段階では
// Content-Type、timestamp（Unix秒）、token（セッションストレージの値）の
// 各ヘッダーを毎回組み立て直し、必要に応じてローディングインジケーターを表示する。
// レスポンス段階では成功・失敗を問わずインジケーターを隠し、
// レスポンスボディまたはトランスポートのエラーをそのまま呼び出し元に返す。
//
// GET はローディングインジケーターを表示しない。POST は呼び出しごとに
// loading 引数で表示の有無を指定する。
package httpclient
