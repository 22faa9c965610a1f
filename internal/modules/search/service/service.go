package search

import (
	"context"
	"log"
	"strings"

	"anoa.com/photoshare/internal/entity"
	hashtagRepo "anoa.com/photoshare/internal/modules/hashtag/repository"
	searchDto "anoa.com/photoshare/internal/modules/search/dto"
	userDto "anoa.com/photoshare/internal/modules/user/dto"
	userRepo "anoa.com/photoshare/internal/modules/user/repository"
	"anoa.com/photoshare/pkg/apperror"
	commonDto "anoa.com/photoshare/pkg/dto"
	"github.com/google/uuid"
)

const resultLimit = 20

type SearchService interface {
	Search(ctx context.Context, query searchDto.SearchQuery) (*searchDto.SearchResponse, error)
}

type searchService struct {
	userRepo      userRepo.UserRepository
	hashtagRepo   hashtagRepo.HashtagRepository
	meili         MeiliSearchService
	defaultAvatar string
}

// NewSearchService builds the search service. meili may be nil, users are then
// searched in the database.
func NewSearchService(userRepo userRepo.UserRepository, hashtagRepo hashtagRepo.HashtagRepository, meili MeiliSearchService, defaultAvatar string) SearchService {
	return &searchService{
		userRepo:      userRepo,
		hashtagRepo:   hashtagRepo,
		meili:         meili,
		defaultAvatar: defaultAvatar,
	}
}

func (s *searchService) Search(ctx context.Context, query searchDto.SearchQuery) (*searchDto.SearchResponse, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, apperror.Validation("search text is required")
	}

	resp := &searchDto.SearchResponse{Choice: query.Choice}

	switch query.Choice {
	case searchDto.ChoiceUser:
		users, err := s.searchUsers(ctx, text)
		if err != nil {
			return nil, err
		}
		resp.Users = make([]commonDto.AuthorResponse, 0, len(users))
		for i := range users {
			resp.Users = append(resp.Users, userDto.NewAuthorResponse(&users[i], s.defaultAvatar))
		}
	case searchDto.ChoiceHashtag:
		tags, err := s.hashtagRepo.SearchByName(ctx, strings.TrimPrefix(text, "#"), resultLimit)
		if err != nil {
			return nil, err
		}
		resp.Hashtags = make([]searchDto.HashtagResult, 0, len(tags))
		for _, tag := range tags {
			resp.Hashtags = append(resp.Hashtags, searchDto.HashtagResult{Name: tag.Name})
		}
	default:
		return nil, apperror.Validation("choice must be one of: user hashtag")
	}

	return resp, nil
}

func (s *searchService) searchUsers(ctx context.Context, text string) ([]entity.User, error) {
	if s.meili != nil {
		ids, err := s.meili.SearchUserIDs(text, resultLimit)
		if err == nil {
			return s.usersInOrder(ctx, ids)
		}
		log.Printf("meilisearch user search failed, falling back to database: %v", err)
	}
	return s.userRepo.SearchByUsername(ctx, text, resultLimit)
}

func (s *searchService) usersInOrder(ctx context.Context, ids []uuid.UUID) ([]entity.User, error) {
	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered, nil
}
