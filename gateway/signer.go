package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"time"
)

// timeNowMillis 可在测试中替换。
var timeNowMillis = func() int64 { return time.Now().UnixMilli() }

// SignParams 补齐 timestamp 后按 key 排序编码，返回 query 与 HMAC-SHA256 签名（hex）。
func SignParams(params map[string]string, secret string) (string, string) {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	if v.Get("timestamp") == "" {
		v.Set("timestamp", strconv.FormatInt(timeNowMillis(), 10))
	}
	query := v.Encode()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return query, hex.EncodeToString(mac.Sum(nil))
}
