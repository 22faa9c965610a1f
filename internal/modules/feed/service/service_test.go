package feed

import (
	"context"
	"testing"

	"anoa.com/photoshare/internal/entity"
	commentRepo "anoa.com/photoshare/internal/modules/comment/repository"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	"anoa.com/photoshare/internal/testutil"
	"anoa.com/photoshare/pkg/identity"
	"gorm.io/gorm"
)

func setup(t *testing.T) (Composer, likeRepo.LikeRepository, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	likes := likeRepo.NewLikeRepository(db)
	return NewComposer(likes, commentRepo.NewCommentRepository(db), "images/default_user_avatar.jpg"), likes, db
}

func loadPosts(t *testing.T, db *gorm.DB, posts ...*entity.Post) []*entity.Post {
	t.Helper()
	out := make([]*entity.Post, 0, len(posts))
	for _, p := range posts {
		var loaded entity.Post
		if err := db.Preload("User").Preload("User.Profile").First(&loaded, "id = ?", p.ID).Error; err != nil {
			t.Fatalf("load post: %v", err)
		}
		out = append(out, &loaded)
	}
	return out
}

func TestComposeFeedAnonymousNeverLikes(t *testing.T) {
	composer, likes, db := setup(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, alice.ID, "hello")

	if _, err := likes.Toggle(ctx, bob.ID, post.ID, entity.ReferencePost); err != nil {
		t.Fatal(err)
	}

	views, err := composer.ComposeFeed(ctx, identity.Anonymous, loadPosts(t, db, post))
	if err != nil {
		t.Fatalf("ComposeFeed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].IsLiked {
		t.Error("anonymous viewer must not see is_liked")
	}
	if views[0].TotalLikes != 1 {
		t.Errorf("TotalLikes = %d, want 1", views[0].TotalLikes)
	}

	views, err = composer.ComposeFeed(ctx, identity.User(bob.ID), loadPosts(t, db, post))
	if err != nil {
		t.Fatalf("ComposeFeed: %v", err)
	}
	if !views[0].IsLiked {
		t.Error("bob liked the post, is_liked should be true")
	}

	views, _ = composer.ComposeFeed(ctx, identity.User(alice.ID), loadPosts(t, db, post))
	if views[0].IsLiked {
		t.Error("alice did not like the post")
	}
}

func TestComposeFeedProjection(t *testing.T) {
	composer, _, db := setup(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	avatar := "https://res.cloudinary.com/demo/image/upload/v1/avatars/bob.png"
	if err := db.Model(&entity.Profile{}).Where("user_id = ?", bob.ID).Update("avatar_url", avatar).Error; err != nil {
		t.Fatal(err)
	}

	older := testutil.CreatePost(t, db, alice.ID, "older")
	newer := testutil.CreatePost(t, db, bob.ID, "")
	for i := 0; i < 2; i++ {
		if err := db.Create(&entity.Comment{PostID: older.ID, UserID: bob.ID, Text: "nice"}).Error; err != nil {
			t.Fatal(err)
		}
	}

	// caller decides the order
	views, err := composer.ComposeFeed(ctx, identity.Anonymous, loadPosts(t, db, older, newer))
	if err != nil {
		t.Fatalf("ComposeFeed: %v", err)
	}
	if views[0].ID != older.ID || views[1].ID != newer.ID {
		t.Fatal("composer reordered its input")
	}

	if views[0].AvatarURL != "/images/default_user_avatar.jpg" {
		t.Errorf("alice avatar = %q, want default", views[0].AvatarURL)
	}
	if views[1].AvatarURL != avatar || views[1].Author.AvatarURL != avatar {
		t.Errorf("bob avatar = %q, want %q", views[1].AvatarURL, avatar)
	}
	if views[0].TotalComments != 2 || views[1].TotalComments != 0 {
		t.Errorf("comments = %d, %d; want 2, 0", views[0].TotalComments, views[1].TotalComments)
	}
	if views[0].Description != "older" || views[1].Description != "" {
		t.Errorf("descriptions = %q, %q", views[0].Description, views[1].Description)
	}
	if views[0].Author.Username != "alice" {
		t.Errorf("author = %q, want alice", views[0].Author.Username)
	}
}

func TestComposeFeedEmpty(t *testing.T) {
	composer, _, _ := setup(t)

	views, err := composer.ComposeFeed(context.Background(), identity.Anonymous, nil)
	if err != nil || len(views) != 0 {
		t.Errorf("ComposeFeed(nil) = %v, %v; want empty", views, err)
	}
}
