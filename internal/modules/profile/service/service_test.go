package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"anoa.com/photoshare/internal/entity"
	commentRepo "anoa.com/photoshare/internal/modules/comment/repository"
	comment "anoa.com/photoshare/internal/modules/comment/service"
	feed "anoa.com/photoshare/internal/modules/feed/service"
	followRepo "anoa.com/photoshare/internal/modules/follow/repository"
	follow "anoa.com/photoshare/internal/modules/follow/service"
	hashtagRepo "anoa.com/photoshare/internal/modules/hashtag/repository"
	hashtag "anoa.com/photoshare/internal/modules/hashtag/service"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	notifRepo "anoa.com/photoshare/internal/modules/notification/repository"
	notification "anoa.com/photoshare/internal/modules/notification/service"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	post "anoa.com/photoshare/internal/modules/post/service"
	profileDto "anoa.com/photoshare/internal/modules/profile/dto"
	userRepo "anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/internal/testutil"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	commonDto "anoa.com/photoshare/pkg/dto"
	"anoa.com/photoshare/pkg/identity"
	"gorm.io/gorm"
)

type avatarStorage struct {
	deleted []string
}

func (a *avatarStorage) UploadImage(_ context.Context, _ io.Reader, folder, fileName string) (string, error) {
	return "https://res.cloudinary.com/demo/image/upload/v1/" + folder + "/" + fileName, nil
}

func (a *avatarStorage) DeleteImage(_ context.Context, ref string) error {
	a.deleted = append(a.deleted, ref)
	return nil
}

type fixture struct {
	svc     ProfileService
	follows follow.FollowService
	storage *avatarStorage
	db      *gorm.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	transactor := database.NewTransactor(db)
	users := userRepo.NewUserRepository(db)
	posts := postRepo.NewPostRepository(db)
	comments := commentRepo.NewCommentRepository(db)
	dispatcher := notification.NewNotificationService(notifRepo.NewNotificationRepository(db), transactor, "")
	composer := feed.NewComposer(likeRepo.NewLikeRepository(db), comments, "images/default_user_avatar.jpg")
	follows := follow.NewFollowService(followRepo.NewFollowRepository(db), users, dispatcher, transactor, "")
	storage := &avatarStorage{}

	postService := post.NewPostService(
		posts,
		hashtag.NewHashtagService(hashtagRepo.NewHashtagRepository(db)),
		follows,
		comment.NewCommentService(comments, posts, dispatcher, composer, transactor, nil, 0),
		composer,
		transactor,
		storage,
		nil,
		nil,
		0,
		"photoshare",
	)

	svc := NewProfileService(users, postService, follows, storage, nil, "photoshare", "images/default_user_avatar.jpg")
	return &fixture{svc: svc, follows: follows, storage: storage, db: db}
}

func TestGetProfileByUsername(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")
	bob := testutil.CreateUser(t, f.db, "bob")
	testutil.CreatePost(t, f.db, alice.ID, "one")
	testutil.CreatePost(t, f.db, alice.ID, "two")
	testutil.CreatePost(t, f.db, bob.ID, "bob's")

	if _, err := f.follows.ToggleFollow(ctx, identity.User(bob.ID), "alice"); err != nil {
		t.Fatal(err)
	}

	grid, err := f.svc.GetProfileByUsername(ctx, identity.User(bob.ID), "alice", commonDto.PageFilter{})
	if err != nil {
		t.Fatalf("GetProfileByUsername: %v", err)
	}
	if grid.PostsCount != 2 || len(grid.Posts) != 2 || grid.Posts[0].Description != "two" {
		t.Errorf("unexpected posts %+v (count %d)", grid.Posts, grid.PostsCount)
	}
	if grid.FollowersCount != 1 || grid.FollowingCount != 0 || !grid.IsFollowed {
		t.Errorf("unexpected graph data %+v", grid)
	}
	if grid.User.AvatarURL != "/images/default_user_avatar.jpg" {
		t.Errorf("avatar = %q, want default", grid.User.AvatarURL)
	}

	own, err := f.svc.GetProfileByUsername(ctx, identity.User(alice.ID), "alice", commonDto.PageFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if own.IsFollowed {
		t.Error("a user never follows their own profile")
	}

	anonymous, err := f.svc.GetProfileByUsername(ctx, identity.Anonymous, "alice", commonDto.PageFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if anonymous.IsFollowed {
		t.Error("anonymous viewer cannot follow")
	}

	if _, err := f.svc.GetProfileByUsername(ctx, identity.Anonymous, "nobody", commonDto.PageFilter{}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}

func TestGetCurrentProfileCreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	user := &entity.User{Username: "legacy", Email: "legacy@example.com", PasswordHash: "x"}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatal(err)
	}

	resp, err := f.svc.GetCurrentProfile(context.Background(), identity.User(user.ID))
	if err != nil {
		t.Fatalf("GetCurrentProfile: %v", err)
	}
	if resp.User.Username != "legacy" || resp.Email != "legacy@example.com" {
		t.Errorf("unexpected response %+v", resp)
	}

	var profiles int64
	f.db.Model(&entity.Profile{}).Where("user_id = ?", user.ID).Count(&profiles)
	if profiles != 1 {
		t.Errorf("profiles = %d, want 1", profiles)
	}

	// a second call must not create another profile
	if _, err := f.svc.GetCurrentProfile(context.Background(), identity.User(user.ID)); err != nil {
		t.Fatal(err)
	}
	f.db.Model(&entity.Profile{}).Where("user_id = ?", user.ID).Count(&profiles)
	if profiles != 1 {
		t.Errorf("profiles after second call = %d, want 1", profiles)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, f.db, "alice")

	first := "  Alicia "
	resp, err := f.svc.UpdateProfile(ctx, identity.User(alice.ID), profileDto.UpdateProfileInput{FirstName: &first},
		&commonDto.ImageFile{Reader: strings.NewReader("png"), FileName: "me.png"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if resp.User.FirstName != "Alicia" {
		t.Errorf("first name = %q, want Alicia", resp.User.FirstName)
	}
	firstAvatar := resp.User.AvatarURL
	if !strings.HasSuffix(firstAvatar, "/photoshare/avatars/me.png") {
		t.Errorf("avatar = %q", firstAvatar)
	}

	resp, err = f.svc.UpdateProfile(ctx, identity.User(alice.ID), profileDto.UpdateProfileInput{},
		&commonDto.ImageFile{Reader: strings.NewReader("png"), FileName: "new.png"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.User.FirstName != "Alicia" {
		t.Errorf("omitted first name was changed to %q", resp.User.FirstName)
	}
	if len(f.storage.deleted) != 1 || f.storage.deleted[0] != firstAvatar {
		t.Errorf("old avatar not deleted, deleted = %v", f.storage.deleted)
	}

	long := strings.Repeat("x", 31)
	if _, err := f.svc.UpdateProfile(ctx, identity.User(alice.ID), profileDto.UpdateProfileInput{LastName: &long}, nil); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("long last name error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.UpdateProfile(ctx, identity.Anonymous, profileDto.UpdateProfileInput{}, nil); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous error = %v, want ErrUnauthorized", err)
	}
}
