package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// headerTimestamp はクライアントが送信時刻（Unix秒）を載せるHTTPヘッダーキー。
const headerTimestamp = "timestamp"

// Timestamp は "timestamp" ヘッダーを検証するGinミドルウェアを返す。
// ヘッダーが無い場合、整数でない場合、サーバー時刻との差がmaxSkewを超える場合は400を返す。
// maxSkewが0以下の場合は差を検証しない。
func Timestamp(maxSkew time.Duration) gin.HandlerFunc {
	return timestampWithClock(maxSkew, time.Now)
}

// timestampWithClock は時刻の取得元を指定できる Timestamp。
func timestampWithClock(maxSkew time.Duration, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(headerTimestamp)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "timestampヘッダーが必要です",
			})
			return
		}

		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "timestampヘッダーの形式が不正です",
			})
			return
		}

		if maxSkew > 0 {
			diff := math.Abs(float64(now().Unix() - sec))
			if diff > maxSkew.Seconds() {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": "timestampがサーバー時刻と一致しません",
				})
				return
			}
		}

		c.Set("timestamp", sec)
		c.Next()
	}
}
