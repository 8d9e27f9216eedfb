package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/repository"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	"github.com/stretchr/testify/require"
)

func newTestCipher(t *testing.T) *utils.TokenCipher {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	c, err := utils.NewTokenCipher(hex.EncodeToString(key))
	require.NoError(t, err)
	return c
}

type memAccountRepo struct {
	mu       sync.Mutex
	rows     map[string]*models.SocialAccount
	nextID   int64
	failOn   map[string]error
	upserted []string
}

func newMemAccountRepo() *memAccountRepo {
	return &memAccountRepo{rows: make(map[string]*models.SocialAccount), failOn: make(map[string]error)}
}

func (r *memAccountRepo) Upsert(ctx context.Context, sa *models.SocialAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failOn[sa.Platform]; err != nil {
		return err
	}
	if prev, ok := r.rows[sa.Platform]; ok {
		sa.ID = prev.ID
		sa.CreatedAt = prev.CreatedAt
	} else {
		r.nextID++
		sa.ID = r.nextID
		sa.CreatedAt = time.Now()
	}
	sa.UpdatedAt = time.Now()
	cp := *sa
	r.rows[sa.Platform] = &cp
	r.upserted = append(r.upserted, sa.Platform)
	return nil
}

func (r *memAccountRepo) GetByPlatform(ctx context.Context, platform string) (*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[platform]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (r *memAccountRepo) List(ctx context.Context) ([]*models.SocialAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialAccount
	for _, row := range r.rows {
		cp := *row
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (r *memAccountRepo) ListExpiring(ctx context.Context, before time.Time) ([]*models.SocialAccount, error) {
	all, _ := r.List(ctx)
	var out []*models.SocialAccount
	for _, acc := range all {
		if acc.IsActive() && acc.AccessTokenExpiresAt != nil && acc.AccessTokenExpiresAt.Before(before) {
			out = append(out, acc)
		}
	}
	return out, nil
}

func (r *memAccountRepo) DeleteByPlatform(ctx context.Context, platform string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[platform]; !ok {
		return false, nil
	}
	delete(r.rows, platform)
	return true, nil
}

type memPostRepo struct {
	mu      sync.Mutex
	posts   map[string]*models.SocialPost
	history map[string][]string
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*models.SocialPost), history: make(map[string][]string)}
}

func (r *memPostRepo) Create(ctx context.Context, post *models.SocialPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *post
	r.posts[post.ID] = &cp
	r.history[post.ID] = append(r.history[post.ID], post.Status)
	return nil
}

func (r *memPostRepo) GetByID(ctx context.Context, id string) (*models.SocialPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (r *memPostRepo) UpdatePostStatus(ctx context.Context, postID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[postID]
	if !ok || !models.CanTransition(post.Status, status) {
		return repository.ErrStatusTransition
	}
	post.Status = status
	r.history[postID] = append(r.history[postID], status)
	return nil
}

func (r *memPostRepo) only(t *testing.T) *models.SocialPost {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.posts, 1)
	for _, p := range r.posts {
		return p
	}
	return nil
}

type memResultRepo struct {
	mu      sync.Mutex
	rows    []*models.SocialPostResult
	failErr error
}

func (r *memResultRepo) Create(ctx context.Context, res *models.SocialPostResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	res.CreatedAt = time.Now()
	cp := *res
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *memResultRepo) ListByPostID(ctx context.Context, postID string) ([]*models.SocialPostResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SocialPostResult
	for _, row := range r.rows {
		if row.PostID == postID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memResultRepo) byPlatform() map[string]*models.SocialPostResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*models.SocialPostResult)
	for _, row := range r.rows {
		out[row.Platform] = row
	}
	return out
}

type memTemplateRepo struct {
	templates map[string]*models.CaptionTemplate
}

func (r *memTemplateRepo) GetByID(ctx context.Context, id string) (*models.CaptionTemplate, error) {
	return r.templates[id], nil
}

type memPhotoRepo struct {
	photos map[string]*models.Photo
}

func (r *memPhotoRepo) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	return r.photos[id], nil
}

// fakePublisher records how the orchestrator called it.
type fakePublisher struct {
	platform string
	jpeg     bool
	err      error
	block    bool
	panics   bool

	mu          sync.Mutex
	singleCalls int
	multiCalls  int
	last        PublishContent
}

func (f *fakePublisher) Platform() string { return f.platform }
func (f *fakePublisher) RequiresJPEG() bool { return f.jpeg }

func (f *fakePublisher) PublishSingle(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	f.mu.Lock()
	f.singleCalls++
	f.last = content
	f.mu.Unlock()
	return f.result(ctx)
}

func (f *fakePublisher) PublishMultiple(ctx context.Context, acc *models.SocialAccount, content PublishContent) (*PublishResult, error) {
	f.mu.Lock()
	f.multiCalls++
	f.last = content
	f.mu.Unlock()
	return f.result(ctx)
}

func (f *fakePublisher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.singleCalls + f.multiCalls
}

func (f *fakePublisher) result(ctx context.Context) (*PublishResult, error) {
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &PublishResult{
		ExternalID:  f.platform + "-post-1",
		ExternalURL: "https://example.test/" + f.platform + "/post-1",
	}, nil
}
