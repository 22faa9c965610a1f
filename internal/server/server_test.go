package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anoa.com/photoshare/internal/config"
	"anoa.com/photoshare/internal/entity"
	"anoa.com/photoshare/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func newServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("CLOUDINARY_URL", "")

	db := testutil.NewDB(t)
	cfg := &config.Config{
		AllowedOrigins:         "http://localhost:3000",
		CloudinaryUploadFolder: "photoshare",
		DefaultAvatarURL:       "images/default_user_avatar.jpg",
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
	}
	return NewServer(cfg, db, nil).Handler(), db
}

func register(t *testing.T, router *gin.Engine, username string) (*client, uuid.UUID) {
	t.Helper()
	anon := &client{t: t, router: router}

	w := anon.do(http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}

	auth := decode[struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}](t, w)
	return &client{t: t, router: router, token: auth.AccessToken}, auth.User.ID
}

func TestSocialFlow(t *testing.T) {
	router, db := newServer(t)
	alice, aliceID := register(t, router, "alice")
	bob, _ := register(t, router, "bob")
	post := testutil.CreatePost(t, db, aliceID, "first light #sunrise")

	if w := bob.do(http.MethodPost, "/api/users/alice/follow", nil); w.Code != http.StatusOK {
		t.Fatalf("follow: %d %s", w.Code, w.Body.String())
	}
	if w := bob.do(http.MethodPost, "/api/posts/"+post.ID.String()+"/like", nil); w.Code != http.StatusOK {
		t.Fatalf("like: %d %s", w.Code, w.Body.String())
	}
	if w := bob.do(http.MethodPost, "/api/posts/"+post.ID.String()+"/comments", map[string]string{"text": "beautiful"}); w.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", w.Code, w.Body.String())
	}

	w := alice.do(http.MethodGet, "/api/notifications/unread-count", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unread count: %d %s", w.Code, w.Body.String())
	}
	if got := decode[struct {
		Count int64 `json:"count"`
	}](t, w).Count; got != 2 {
		t.Errorf("unread notifications = %d, want follow and comment", got)
	}

	w = bob.do(http.MethodGet, "/api/posts?scope=following", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("following feed: %d %s", w.Code, w.Body.String())
	}
	feed := decode[struct {
		Data []struct {
			ID            uuid.UUID `json:"id"`
			TotalLikes    int64     `json:"total_likes"`
			TotalComments int64     `json:"total_comments"`
			IsLiked       bool      `json:"is_liked"`
		} `json:"data"`
	}](t, w)
	if len(feed.Data) != 1 || feed.Data[0].ID != post.ID {
		t.Fatalf("following feed = %+v, want alice's post", feed.Data)
	}
	if p := feed.Data[0]; p.TotalLikes != 1 || p.TotalComments != 1 || !p.IsLiked {
		t.Errorf("unexpected post view %+v", p)
	}

	anon := &client{t: t, router: router}
	w = anon.do(http.MethodGet, "/api/posts/"+post.ID.String(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("post detail: %d %s", w.Code, w.Body.String())
	}
	detail := decode[struct {
		IsLiked  bool     `json:"is_liked"`
		Hashtags []string `json:"hashtags"`
		Comments []struct {
			Text string `json:"text"`
		} `json:"comments"`
	}](t, w)
	if detail.IsLiked || len(detail.Hashtags) != 0 || len(detail.Comments) != 1 {
		t.Errorf("unexpected anonymous detail %+v", detail)
	}

	w = anon.do(http.MethodGet, "/api/users/alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", w.Code, w.Body.String())
	}
	if got := decode[struct {
		FollowersCount int64 `json:"followers_count"`
	}](t, w).FollowersCount; got != 1 {
		t.Errorf("followers = %d, want 1", got)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newServer(t)
	anon := &client{t: t, router: router}

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/posts/" + uuid.NewString() + "/like"},
		{http.MethodPost, "/api/users/alice/follow"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodDelete, "/api/profile"},
	}
	for _, r := range routes {
		w := anon.do(r.method, r.path, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s = %d, want 401", r.method, r.path, w.Code)
			continue
		}
		if body := decode[map[string]string](t, w); body["redirect"] != "/api/auth/login" {
			t.Errorf("%s %s redirect = %q", r.method, r.path, body["redirect"])
		}
	}
}

func TestDeleteAccount(t *testing.T) {
	router, db := newServer(t)
	alice, aliceID := register(t, router, "alice")
	testutil.CreatePost(t, db, aliceID, "")

	if w := alice.do(http.MethodDelete, "/api/profile", nil); w.Code != http.StatusOK {
		t.Fatalf("delete account: %d %s", w.Code, w.Body.String())
	}

	var posts int64
	db.Model(&entity.Post{}).Count(&posts)
	if posts != 0 {
		t.Errorf("%d posts survived account deletion", posts)
	}
	if w := alice.do(http.MethodGet, "/api/profile/me", nil); w.Code != http.StatusNotFound {
		t.Errorf("profile of deleted account = %d, want 404", w.Code)
	}
}
