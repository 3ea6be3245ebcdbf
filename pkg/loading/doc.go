// Package loading はプロセス全体で共有するローディングインジケーターを提供する。
//
// Indicator は Hidden / Visible の2状態を持つ共有オブジェクトで、
// リクエストゲートウェイにコンストラクタ経由で注入される。
// 表示の切り替え方は Coordinator が決める。Direct は hide→show / hide を
// そのまま発行し、並行リクエスト間で後勝ちの競合を持つ。Counting は
// 実行中のローディングリクエスト数を数え、最後の1件が完了した時点で隠す。
//
// 実際の描画は Display（端末スピナー、WebSocketフィード等）が担当する。
package loading
