package search

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"anoa.com/photoshare/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const (
	indexUsers = "users"
	indexPosts = "posts"

	signingKeyName = "PhotoshareTenantSigner"
)

type MeiliSearchService interface {
	IndexUser(user *entity.User) error
	IndexPost(post *entity.Post) error
	DeleteUser(id string) error
	DeletePost(id string) error
	// SearchUserIDs returns the ids of the best matching users, best match first.
	SearchUserIDs(query string, limit int) ([]uuid.UUID, error)
	GenerateSearchToken() (string, error)
}

type meiliSearchService struct {
	client        meilisearch.ServiceManager
	signingKeyUID string
	signingKey    string
	sanitizer     *bluemonday.Policy
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndexes()
	s.initSigningKey()
	return s
}

func (s *meiliSearchService) initSigningKey() {
	resp, err := s.client.GetKeys(&meilisearch.KeysQuery{
		Limit: 20,
	})
	if err != nil {
		log.Printf("Failed to get meilisearch keys: %v", err)
		return
	}

	for _, key := range resp.Results {
		if key.Name == signingKeyName {
			s.signingKeyUID = key.UID
			s.signingKey = key.Key
			return
		}
	}

	key, err := s.client.CreateKey(&meilisearch.Key{
		Description: "Signs search tokens handed to clients",
		Name:        signingKeyName,
		Actions:     []string{"search"},
		Indexes:     []string{indexUsers, indexPosts},
		ExpiresAt:   time.Now().AddDate(100, 0, 0),
	})
	if err != nil {
		log.Printf("Failed to create signing key: %v", err)
		return
	}

	s.signingKeyUID = key.UID
	s.signingKey = key.Key
	log.Println("Created new Meilisearch signing key")
}

func (s *meiliSearchService) initIndexes() {
	searchable := []string{"username", "first_name", "last_name"}
	if _, err := s.client.Index(indexUsers).UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("Failed to update users searchable attributes: %v", err)
	}

	postFilterable := []any{"hashtags", "user_id"}
	if _, err := s.client.Index(indexPosts).UpdateFilterableAttributes(&postFilterable); err != nil {
		log.Printf("Failed to update posts filterable attributes: %v", err)
	}

	postSortable := []string{"created_at"}
	if _, err := s.client.Index(indexPosts).UpdateSortableAttributes(&postSortable); err != nil {
		log.Printf("Failed to update posts sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliUserDoc struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

type meiliPostDoc struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	Hashtags    []string `json:"hashtags"`
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	CreatedAt   int64    `json:"created_at"`
}

func (s *meiliSearchService) cleanContentForIndex(content string) string {
	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *meiliSearchService) IndexUser(user *entity.User) error {
	doc := meiliUserDoc{
		ID:        user.ID.String(),
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarRef(),
	}

	_, err := s.client.Index(indexUsers).AddDocuments([]meiliUserDoc{doc}, strPtr("id"))
	return err
}

func (s *meiliSearchService) IndexPost(post *entity.Post) error {
	hashtags := make([]string, 0, len(post.Hashtags))
	for _, h := range post.Hashtags {
		hashtags = append(hashtags, h.Name)
	}

	doc := meiliPostDoc{
		ID:          post.ID.String(),
		Description: s.cleanContentForIndex(post.DescriptionText()),
		ImageURL:    post.ImageURL,
		Hashtags:    hashtags,
		UserID:      post.UserID.String(),
		Username:    post.User.Username,
		CreatedAt:   post.CreatedAt.Unix(),
	}

	task, err := s.client.Index(indexPosts).AddDocuments([]meiliPostDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed post %s, task id: %d", post.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteUser(id string) error {
	_, err := s.client.Index(indexUsers).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) DeletePost(id string) error {
	_, err := s.client.Index(indexPosts).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) SearchUserIDs(query string, limit int) ([]uuid.UUID, error) {
	raw, err := s.client.Index(indexUsers).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var result struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, fmt.Errorf("decode meilisearch response: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(result.Hits))
	for _, hit := range result.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// GenerateSearchToken issues a tenant token that lets clients query the users and posts
// indexes directly for one day.
func (s *meiliSearchService) GenerateSearchToken() (string, error) {
	if s.signingKeyUID == "" || s.signingKey == "" {
		return "", fmt.Errorf("signing key not initialized")
	}

	searchRules := map[string]any{
		indexUsers: map[string]any{},
		indexPosts: map[string]any{},
	}

	return s.client.GenerateTenantToken(s.signingKeyUID, searchRules, &meilisearch.TenantTokenOptions{
		APIKey:    s.signingKey,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

func strPtr(s string) *string {
	return &s
}
