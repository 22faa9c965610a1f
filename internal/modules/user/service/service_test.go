package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"anoa.com/photoshare/internal/entity"
	postRepo "anoa.com/photoshare/internal/modules/post/repository"
	"anoa.com/photoshare/internal/modules/user/dto"
	"anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/internal/testutil"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/identity"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type recordingStorage struct {
	deleted []string
}

func (r *recordingStorage) UploadImage(context.Context, io.Reader, string, string) (string, error) {
	return "", nil
}

func (r *recordingStorage) DeleteImage(_ context.Context, ref string) error {
	r.deleted = append(r.deleted, ref)
	return nil
}

func newService(t *testing.T) (AuthService, *recordingStorage, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	storage := &recordingStorage{}
	svc := NewAuthService(
		repository.NewUserRepository(db),
		postRepo.NewPostRepository(db),
		storage,
		nil,
		testSecret,
		time.Hour,
		"images/default_user_avatar.jpg",
	)
	return svc, storage, db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, db := newService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, dto.RegisterInput{
		Username:  "alice",
		Email:     "Alice@Example.com",
		Password:  "secret123",
		FirstName: "Alice",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Username != "alice" || registered.User.AvatarURL != "/images/default_user_avatar.jpg" {
		t.Errorf("unexpected user %+v", registered.User)
	}

	var profiles int64
	db.Model(&entity.Profile{}).Where("user_id = ?", registered.User.ID).Count(&profiles)
	if profiles != 1 {
		t.Errorf("register created %d profiles, want 1", profiles)
	}

	loggedIn, err := svc.Login(ctx, dto.LoginInput{Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(loggedIn.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != registered.User.ID.String() {
		t.Errorf("subject = %s, want %s", claims.Subject, registered.User.ID)
	}
	if loggedIn.TokenType != "Bearer" {
		t.Errorf("token type = %q", loggedIn.TokenType)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _, db := newService(t)
	testutil.CreateUser(t, db, "alice")

	_, err := svc.Register(context.Background(), dto.RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret123"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate username error = %v, want ErrConflict", err)
	}
}

// staleCheckRepository misses existing users in the pre-insert check, as a concurrent
// registration committing between check and insert would.
type staleCheckRepository struct {
	repository.UserRepository
}

func (staleCheckRepository) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func TestRegisterDuplicateAfterCheck(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "alice")
	svc := NewAuthService(
		staleCheckRepository{repository.NewUserRepository(db)},
		postRepo.NewPostRepository(db),
		&recordingStorage{},
		nil,
		testSecret,
		time.Hour,
		"",
	)

	_, err := svc.Register(context.Background(), dto.RegisterInput{Username: "alice", Email: "other@example.com", Password: "secret123"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate username error = %v, want ErrConflict", err)
	}
	if status := apperror.MapErrorToStatus(err); status != 409 {
		t.Errorf("status = %d, want 409", status)
	}

	var users int64
	db.Model(&entity.User{}).Where("username = ?", "alice").Count(&users)
	if users != 1 {
		t.Errorf("users named alice = %d, want 1", users)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, dto.RegisterInput{Username: "alice", Email: "alice@example.com", Password: "secret123"}); err != nil {
		t.Fatal(err)
	}

	cases := []dto.LoginInput{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret123"},
	}
	for _, input := range cases {
		if _, err := svc.Login(ctx, input); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Login(%s) error = %v, want ErrUnauthorized", input.Email, err)
		}
	}
}

func TestDeleteAccountRemovesEverything(t *testing.T) {
	svc, storage, db := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	alicePost := testutil.CreatePost(t, db, alice.ID, "#mine")
	bobPost := testutil.CreatePost(t, db, bob.ID, "")

	// bob's comment on alice's post and alice's comment on bob's post
	onAlice := &entity.Comment{PostID: alicePost.ID, UserID: bob.ID, Text: "nice"}
	onBob := &entity.Comment{PostID: bobPost.ID, UserID: alice.ID, Text: "cool"}
	db.Create(onAlice)
	db.Create(onBob)
	db.Create(&entity.Like{UserID: bob.ID, ReferenceID: alicePost.ID, ReferenceType: entity.ReferencePost})
	db.Create(&entity.Like{UserID: alice.ID, ReferenceID: bobPost.ID, ReferenceType: entity.ReferencePost})
	db.Create(&entity.Like{UserID: bob.ID, ReferenceID: onBob.ID, ReferenceType: entity.ReferenceComment})
	db.Create(&entity.Follow{FollowerID: alice.ID, FollowingID: bob.ID})
	db.Create(&entity.Follow{FollowerID: bob.ID, FollowingID: alice.ID})
	db.Create(&entity.Notification{UserID: bob.ID, ActorID: alice.ID, Type: entity.NotificationFollow, Message: entity.MessageStartedFollowing})

	if err := svc.DeleteAccount(ctx, identity.User(alice.ID)); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}

	count := func(model any, query string, args ...any) int64 {
		var n int64
		db.Model(model).Where(query, args...).Count(&n)
		return n
	}
	if n := count(&entity.User{}, "id = ?", alice.ID); n != 0 {
		t.Error("user still exists")
	}
	if n := count(&entity.Post{}, "user_id = ?", alice.ID); n != 0 {
		t.Error("posts were orphaned")
	}
	if n := count(&entity.Comment{}, "1 = 1"); n != 0 {
		t.Errorf("%d comments left, want 0", n)
	}
	if n := count(&entity.Like{}, "1 = 1"); n != 0 {
		t.Errorf("%d likes left, want 0", n)
	}
	if n := count(&entity.Follow{}, "1 = 1"); n != 0 {
		t.Errorf("%d follows left, want 0", n)
	}
	if n := count(&entity.Notification{}, "1 = 1"); n != 0 {
		t.Errorf("%d notifications left, want 0", n)
	}
	if n := count(&entity.Post{}, "id = ?", bobPost.ID); n != 1 {
		t.Error("bob's post was deleted")
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != alicePost.ImageURL {
		t.Errorf("deleted images = %v, want alice's post image", storage.deleted)
	}

	if err := svc.DeleteAccount(ctx, identity.Anonymous); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous delete error = %v, want ErrUnauthorized", err)
	}
}
