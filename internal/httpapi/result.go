// Package httpapi HTTP 接口层
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Result 统一响应格式
type Result struct {
	Code int         `json:"code"` // 2000 成功, -1 失败
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Ok 成功响应
func Ok(data interface{}) *Result {
	return &Result{Code: 2000, Msg: "success", Data: data}
}

// Fail 失败响应
func Fail(msg string) *Result {
	return &Result{Code: -1, Msg: msg}
}

// writeJSON 写出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, result *Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}
