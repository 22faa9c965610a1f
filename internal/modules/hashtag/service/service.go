package hashtag

import (
	"context"
	"fmt"
	"regexp"

	"anoa.com/photoshare/internal/entity"
	hashtagRepo "anoa.com/photoshare/internal/modules/hashtag/repository"
)

// tagPattern matches '#' followed by word characters. Letters and digits of any
// script count as word characters, so "#café" and "#東京" are single tags.
var tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Extract returns the distinct tag names in text, without the leading '#',
// in order of first appearance. Names are case-sensitive.
func Extract(text string) []string {
	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

type HashtagService interface {
	// SyncHashtags links every tag found in the post description to the post.
	// Links to tags that are no longer in the description are kept.
	SyncHashtags(ctx context.Context, post *entity.Post) error
	GetByName(ctx context.Context, name string) (*entity.Hashtag, error)
	GetByPost(ctx context.Context, post *entity.Post) ([]entity.Hashtag, error)
}

type hashtagService struct {
	repo hashtagRepo.HashtagRepository
}

func NewHashtagService(repo hashtagRepo.HashtagRepository) HashtagService {
	return &hashtagService{repo: repo}
}

func (s *hashtagService) SyncHashtags(ctx context.Context, post *entity.Post) error {
	for _, name := range Extract(post.DescriptionText()) {
		hashtag, err := s.repo.Upsert(ctx, name)
		if err != nil {
			return fmt.Errorf("upsert hashtag %q: %w", name, err)
		}
		if err := s.repo.Link(ctx, post.ID, hashtag.ID); err != nil {
			return fmt.Errorf("link hashtag %q: %w", name, err)
		}
	}
	return nil
}

func (s *hashtagService) GetByName(ctx context.Context, name string) (*entity.Hashtag, error) {
	return s.repo.FindByName(ctx, name)
}

func (s *hashtagService) GetByPost(ctx context.Context, post *entity.Post) ([]entity.Hashtag, error) {
	return s.repo.FindByPostID(ctx, post.ID)
}
