package webutil

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

// HumanSize renders a byte count with the unit scheme the web UI and the
// Discord embeds share: whole bytes below 1 KB, otherwise two decimals
// through KB, MB and GB, capping at TB.
func HumanSize(size int64) string {
	if size < 0 {
		size = 0
	}
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	for _, unit := range []string{"KB", "MB", "GB", "TB"} {
		value /= 1024
		if value < 1024 || unit == "TB" {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
	}
	return ""
}

// FormatTimestamp renders an epoch-seconds value in the fixed
// YYYY/MM/DD HH:MM:SS form the UI uses. Zero means never recorded.
func FormatTimestamp(ts int64) string {
	if ts <= 0 {
		return "-"
	}
	return time.Unix(ts, 0).Format("2006/01/02 15:04:05")
}

// ClientIP returns the requester's apparent address: the first
// X-Forwarded-For entry when present, else the peer address. This is
// trivially spoofable outside a trusted reverse proxy; list/delete
// ownership depends on it and that trust model is deliberate.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

// BaseURL derives the origin share links should carry: the configured
// external URL when set, else whatever scheme and host the request came
// in on (X-Forwarded-Proto respected).
func BaseURL(externalURL string, r *http.Request) string {
	if externalURL != "" {
		return strings.TrimRight(externalURL, "/")
	}
	scheme := "http"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host
	if host == "" {
		host = "localhost"
	}
	return scheme + "://" + host
}

// FileURL builds the public page URL for one stored file.
func FileURL(externalURL string, r *http.Request, token string) string {
	return BaseURL(externalURL, r) + "/files/" + token
}

// RenderPage loads an HTML page and substitutes {{KEY}} placeholders.
// The pages are plain files, not html/template documents, so the
// substitution is literal string replacement.
func RenderPage(path string, replacements map[string]string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	page := string(data)
	for key, value := range replacements {
		page = strings.ReplaceAll(page, "{{"+key+"}}", value)
	}
	return page, nil
}
