package handler // handler defines http handlers

import (
    "errors"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
)

// envelope is the JSON shape of every booking and callback response.
type envelope struct {
    Status  string      `json:"status"`
    Message string      `json:"message"`
    Code    string      `json:"code,omitempty"`
    Data    interface{} `json:"data,omitempty"`
}

// getUserID extracts the user_id set by JWTAuth and converts it to uint64.
// JSON numbers arrive as float64.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        if t > 0 {
            return uint64(t), nil
        }
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// clientIP is the first X-Forwarded-For entry, else echo's RealIP.
// Loopback and IPv4-mapped IPv6 forms are reported as 127.0.0.1, which is
// what the payment gateway expects for local traffic.
func clientIP(c echo.Context) string {
    ip := ""
    if xff := c.Request().Header.Get(echo.HeaderXForwardedFor); xff != "" {
        ip = strings.TrimSpace(strings.Split(xff, ",")[0])
    }
    if ip == "" {
        ip = c.RealIP()
    }
    if ip == "" || ip == "::1" || strings.HasPrefix(ip, "::ffff:") {
        return "127.0.0.1"
    }
    return ip
}

// requestLang picks ?lang=, then the primary Accept-Language tag, then "vi".
func requestLang(c echo.Context) string {
    if l := strings.TrimSpace(c.QueryParam("lang")); l != "" {
        return strings.ToLower(l)
    }
    if al := c.Request().Header.Get("Accept-Language"); al != "" {
        tag := strings.TrimSpace(strings.Split(al, ",")[0])
        tag = strings.Split(tag, ";")[0]
        if primary := strings.Split(tag, "-")[0]; primary != "" && primary != "*" {
            return strings.ToLower(primary)
        }
    }
    return "vi"
}
