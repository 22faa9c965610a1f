package like

import (
	"context"
	"errors"
	"sync"
	"testing"

	"anoa.com/photoshare/internal/entity"
	likeDto "anoa.com/photoshare/internal/modules/like/dto"
	likeRepo "anoa.com/photoshare/internal/modules/like/repository"
	"anoa.com/photoshare/internal/testutil"
	"anoa.com/photoshare/pkg/apperror"
	"anoa.com/photoshare/pkg/database"
	"anoa.com/photoshare/pkg/identity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newService(t *testing.T) (LikeService, likeRepo.LikeRepository, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	repo := likeRepo.NewLikeRepository(db)
	return NewLikeService(repo, database.NewTransactor(db)), repo, db
}

func TestToggleLikeFlipsMembership(t *testing.T) {
	svc, repo, db := newService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")
	viewer := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, author.ID, "")

	resp, err := svc.ToggleLike(ctx, identity.User(viewer.ID), entity.ReferencePost, post.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if resp.State != likeDto.StateLiked || resp.TotalLikes != 1 {
		t.Fatalf("like = %+v, want liked with 1", resp)
	}
	liked, _ := repo.LikedReferences(ctx, viewer.ID, []uuid.UUID{post.ID}, entity.ReferencePost)
	if !liked[post.ID] {
		t.Error("viewer should be in the liking set")
	}

	resp, err = svc.ToggleLike(ctx, identity.User(viewer.ID), entity.ReferencePost, post.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if resp.State != likeDto.StateUnliked || resp.TotalLikes != 0 {
		t.Fatalf("unlike = %+v, want unliked with 0", resp)
	}
	if total, _ := svc.TotalLikes(ctx, entity.ReferencePost, post.ID); total != 0 {
		t.Errorf("TotalLikes = %d, want 0", total)
	}

	if got := len(testutil.Notifications(t, db, author.ID)); got != 0 {
		t.Errorf("likes must not notify, got %d notifications", got)
	}
}

func TestToggleLikeOnComment(t *testing.T) {
	svc, _, db := newService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, author.ID, "")
	comment := &entity.Comment{PostID: post.ID, UserID: author.ID, Text: "first"}
	if err := db.Create(comment).Error; err != nil {
		t.Fatal(err)
	}

	resp, err := svc.ToggleLike(ctx, identity.User(author.ID), entity.ReferenceComment, comment.ID)
	if err != nil {
		t.Fatalf("like comment: %v", err)
	}
	if resp.State != likeDto.StateLiked || resp.TotalLikes != 1 {
		t.Errorf("like comment = %+v", resp)
	}
	if total, _ := svc.TotalLikes(ctx, entity.ReferencePost, comment.ID); total != 0 {
		t.Errorf("comment like leaked into post likes: %d", total)
	}
}

func TestToggleLikeErrors(t *testing.T) {
	svc, _, db := newService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")
	post := testutil.CreatePost(t, db, author.ID, "")

	if _, err := svc.ToggleLike(ctx, identity.Anonymous, entity.ReferencePost, post.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("anonymous like error = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.ToggleLike(ctx, identity.User(author.ID), entity.ReferencePost, uuid.New()); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing post error = %v, want ErrNotFound", err)
	}
	if _, err := svc.ToggleLike(ctx, identity.User(author.ID), entity.ReferenceComment, post.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("post id used as comment error = %v, want ErrNotFound", err)
	}
}

func TestConcurrentTogglesFromDistinctUsers(t *testing.T) {
	svc, repo, db := newService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	post := testutil.CreatePost(t, db, author.ID, "")

	// carol already likes the post, bob does not.
	if _, err := svc.ToggleLike(ctx, identity.User(carol.ID), entity.ReferencePost, post.ID); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, u := range []*entity.User{bob, carol} {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := svc.ToggleLike(ctx, identity.User(id), entity.ReferencePost, post.ID)
			errs <- err
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent toggle: %v", err)
		}
	}

	ids := []uuid.UUID{post.ID}
	bobLiked, _ := repo.LikedReferences(ctx, bob.ID, ids, entity.ReferencePost)
	carolLiked, _ := repo.LikedReferences(ctx, carol.ID, ids, entity.ReferencePost)
	if !bobLiked[post.ID] || carolLiked[post.ID] {
		t.Errorf("bob liked = %v, carol liked = %v; want true, false", bobLiked[post.ID], carolLiked[post.ID])
	}
	if total, _ := svc.TotalLikes(ctx, entity.ReferencePost, post.ID); total != 1 {
		t.Errorf("TotalLikes = %d, want 1", total)
	}
}

func TestToggleLikeLosingInsertUnlikes(t *testing.T) {
	svc, _, db := newService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "alice")
	viewer := testutil.CreateUser(t, db, "bob")
	post := testutil.CreatePost(t, db, author.ID, "")

	// Another request by bob commits the same like between this toggle's delete and insert.
	fired := false
	err := db.Callback().Create().Before("gorm:create").Register("test:concurrent_like", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "likes" {
			return
		}
		fired = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("INSERT INTO likes (id, user_id, reference_id, reference_type, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)",
				uuid.New(), viewer.ID, post.ID, entity.ReferencePost)
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.ToggleLike(ctx, identity.User(viewer.ID), entity.ReferencePost, post.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !fired {
		t.Fatal("concurrent insert did not run")
	}
	if resp.State != likeDto.StateUnliked || resp.TotalLikes != 0 {
		t.Errorf("toggle = %+v, want unliked with 0", resp)
	}
}
