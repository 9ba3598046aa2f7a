package listing

import (
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dongurihub/uploadhub/internal/configuration"
	"github.com/dongurihub/uploadhub/internal/index"
	"github.com/dongurihub/uploadhub/internal/webutil"
)

// Surface is the authenticated listing view: all stored files, globally,
// behind an optional username/password login.
type Surface struct {
	Config *configuration.Config
	Creds  *configuration.CredentialStore
	Index  *index.Store
}

// RegisterRoutes wires the listing surface onto r.
func (s *Surface) RegisterRoutes(r *gin.Engine) {
	r.GET("/", s.Home)
	r.GET("/login", s.LoginPage)
	r.POST("/login", s.Login)
	r.GET("/logout", s.Logout)
	r.POST("/logout", s.Logout)
	r.GET("/api/files", s.ListAll)

	if assets := filepath.Join(s.Config.WebsiteDir, "login", "assets"); dirExists(assets) {
		r.Static("/login/assets", assets)
	}
	if assets := filepath.Join(s.Config.WebsiteDir, "assets"); dirExists(assets) {
		r.Static("/assets", assets)
	}
}

// Home serves the listing page, bouncing unauthenticated visitors to the
// login form with the original URL preserved.
func (s *Surface) Home(c *gin.Context) {
	s.Creds.Refresh()
	if !s.authenticated(c) {
		s.redirectToLogin(c, c.Request.URL.RequestURI(), false)
		return
	}
	s.servePage(c, "listing.html", http.StatusNotFound, "listing page not found")
}

func (s *Surface) LoginPage(c *gin.Context) {
	s.servePage(c, filepath.Join("login", "index.html"), http.StatusInternalServerError, "login page not found")
}

// Login validates the submitted credentials and issues the session
// cookie. Credentials are refreshed first so new users in the file are
// picked up without a restart.
func (s *Surface) Login(c *gin.Context) {
	if !s.Creds.Enabled() {
		s.LoginPage(c)
		return
	}
	s.Creds.Refresh()

	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeNext(c.PostForm("next"))
	if next == "/" {
		next = sanitizeNext(c.Query("next"))
	}

	if !s.Creds.Verify(username, password) {
		s.redirectToLogin(c, next, true)
		return
	}

	token, err := NewSessionToken(username, []byte(s.Config.SessionSecret), s.Config.SessionTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue session"})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, int(s.Config.SessionTTL.Seconds()), "/", "", isSecure(c.Request), true)
	c.Redirect(http.StatusFound, next)
}

func (s *Surface) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", isSecure(c.Request), true)
	c.Redirect(http.StatusFound, "/login")
}

// ListAll returns every stored record, newest first. This is the one
// place the whole index is exposed regardless of uploader IP.
func (s *Surface) ListAll(c *gin.Context) {
	if !s.authenticated(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	type record struct {
		Filename     string `json:"filename"`
		Size         int64  `json:"size"`
		SizeReadable string `json:"size_readable"`
		UploadedAt   string `json:"uploaded_at"`
		FileType     string `json:"file_type"`
		URL          string `json:"url"`
		Token        string `json:"token"`

		timestamp int64
	}

	base := s.Config.PublicBase()
	idx := s.Index.Snapshot()
	records := make([]record, 0, len(idx))
	for token, rec := range idx {
		fileType := mime.TypeByExtension(strings.ToLower(filepath.Ext(rec.Filename)))
		if fileType == "" {
			fileType = "不明"
		}
		records = append(records, record{
			Filename:     rec.Filename,
			Size:         rec.Size,
			SizeReadable: webutil.HumanSize(rec.Size),
			UploadedAt:   webutil.FormatTimestamp(rec.Timestamp),
			FileType:     fileType,
			URL:          base + "/files/" + token,
			Token:        token,
			timestamp:    rec.Timestamp,
		})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].timestamp > records[j].timestamp
	})
	c.JSON(http.StatusOK, records)
}

// authenticated reports whether the request carries a valid session for
// a currently known user. With no credentials configured the surface is
// open.
func (s *Surface) authenticated(c *gin.Context) bool {
	if !s.Creds.Enabled() {
		return true
	}
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return false
	}
	username, err := UsernameFromToken(cookie, []byte(s.Config.SessionSecret))
	if err != nil {
		return false
	}
	return s.Creds.Known(username)
}

func (s *Surface) redirectToLogin(c *gin.Context, next string, failed bool) {
	params := url.Values{}
	if next = sanitizeNext(next); next != "/" {
		params.Set("next", next)
	}
	if failed {
		params.Set("error", "1")
	}
	target := "/login"
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}
	c.Redirect(http.StatusFound, target)
}

func (s *Surface) servePage(c *gin.Context, name string, missingStatus int, fallback string) {
	path := filepath.Join(s.Config.WebsiteDir, name)
	if _, err := os.Stat(path); err != nil {
		c.String(missingStatus, fallback)
		return
	}
	c.File(path)
}

// sanitizeNext keeps post-login redirects on this origin: the target
// must be an absolute path and not protocol-relative.
func sanitizeNext(target string) string {
	if target == "" {
		return "/"
	}
	candidate, err := url.PathUnescape(target)
	if err != nil {
		candidate = target
	}
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") {
		return "/"
	}
	return candidate
}

func isSecure(r *http.Request) bool {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto == "https"
	}
	return r.TLS != nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
