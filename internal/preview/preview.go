package preview

import (
	"encoding/json"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind classifies a stored file for rich-preview rendering.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindPDF   Kind = "pdf"
	KindText  Kind = "text"
	KindNone  Kind = "none"
)

// snippetCap bounds how much of a text file is inlined into a preview.
const snippetCap = 4000

var (
	imageExtensions = extSet(".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp")
	videoExtensions = extSet(".mp4", ".webm", ".mov", ".mkv", ".avi")
	audioExtensions = extSet(".mp3", ".wav", ".ogg", ".m4a", ".aac", ".flac")
	textExtensions  = extSet(
		".txt", ".md", ".log", ".json", ".csv", ".py", ".js", ".ts",
		".html", ".css", ".yaml", ".yml", ".ini", ".cfg",
	)
)

func extSet(exts ...string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[ext] = true
	}
	return set
}

// Payload is the preview description handed to clients. Snippet and
// Truncated are only meaningful for KindText.
type Payload struct {
	Kind      Kind
	Snippet   string
	Truncated bool
}

// MarshalJSON carries snippet and truncated for text previews only.
// Truncated is always present for text, even when false, so clients can
// rely on the key.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Kind != KindText {
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
		}{p.Kind})
	}
	return json.Marshal(struct {
		Kind      Kind   `json:"kind"`
		Snippet   string `json:"snippet"`
		Truncated bool   `json:"truncated"`
	}{p.Kind, p.Snippet, p.Truncated})
}

// Sniff detects a stored file's MIME type from its content, falling back
// to the filename extension when the file cannot be read.
func Sniff(path, filename string) string {
	if mtype, err := mimetype.DetectFile(path); err == nil {
		return mtype.String()
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
}

// Classify decides how a stored file should be previewed. First match
// wins: MIME-hint prefix or extension per kind, the text snippet last.
// Classification is best effort and never fails the caller; unreadable
// or undecodable content degrades to KindNone.
func Classify(path, filename, mimeHint string) Payload {
	ext := strings.ToLower(filepath.Ext(filename))
	mediaType := mimeHint
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}

	switch {
	case strings.HasPrefix(mediaType, "image/") || imageExtensions[ext]:
		return Payload{Kind: KindImage}
	case strings.HasPrefix(mediaType, "video/") || videoExtensions[ext]:
		return Payload{Kind: KindVideo}
	case strings.HasPrefix(mediaType, "audio/") || audioExtensions[ext]:
		return Payload{Kind: KindAudio}
	case mediaType == "application/pdf" || ext == ".pdf":
		return Payload{Kind: KindPDF}
	case strings.HasPrefix(mediaType, "text/") || mediaType == "application/json" || textExtensions[ext]:
		if snippet, truncated, ok := readSnippet(path); ok {
			return Payload{Kind: KindText, Snippet: snippet, Truncated: truncated}
		}
	}
	return Payload{Kind: KindNone}
}

// readSnippet reads up to snippetCap bytes as UTF-8, repairing invalid
// sequences instead of failing. ok is false when nothing could be read.
func readSnippet(path string) (snippet string, truncated, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, false
	}
	defer f.Close()

	buf := make([]byte, snippetCap)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false, false
	}
	if n == 0 {
		return "", false, false
	}
	if n == snippetCap {
		var one [1]byte
		if m, _ := f.Read(one[:]); m > 0 {
			truncated = true
		}
	}
	return strings.ToValidUTF8(string(buf[:n]), "�"), truncated, true
}
