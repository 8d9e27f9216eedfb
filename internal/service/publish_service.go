package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	config "github.com/maheshrc27/social-publisher/configs"
	"github.com/maheshrc27/social-publisher/internal/metrics"
	"github.com/maheshrc27/social-publisher/internal/models"
	"github.com/maheshrc27/social-publisher/internal/repository"
	"github.com/maheshrc27/social-publisher/internal/transfer"
	"github.com/maheshrc27/social-publisher/pkg/utils"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sony/gobreaker"
)

var errPublishTimeout = errors.New("publish timed out before this platform was attempted")

// carouselLimits caps the photos per post on platforms whose carousels
// are bounded.
var carouselLimits = map[string]int{
	models.PlatformInstagram: instagramCarouselLimit,
	models.PlatformThreads:   threadsCarouselLimit,
}

type PublishService interface {
	Publish(ctx context.Context, userID string, req *transfer.PublishRequest) (*transfer.PublishResponse, error)
	GetPost(ctx context.Context, postID string) (*transfer.PostDetails, error)
}

type publishService struct {
	cfg        config.Config
	pr         repository.PostRepository
	rr         repository.PostResultRepository
	tr         repository.CaptionTemplateRepository
	accounts   AccountStore
	photos     PhotoResolver
	publishers map[string]Publisher
	breakers   *platformBreakers
	metrics    *metrics.Registry
}

func NewPublishService(
	cfg config.Config,
	pr repository.PostRepository,
	rr repository.PostResultRepository,
	tr repository.CaptionTemplateRepository,
	accounts AccountStore,
	photos PhotoResolver,
	m *metrics.Registry,
	publishers ...Publisher) PublishService {
	byPlatform := make(map[string]Publisher, len(publishers))
	for _, p := range publishers {
		byPlatform[p.Platform()] = p
	}
	return &publishService{
		cfg:        cfg,
		pr:         pr,
		rr:         rr,
		tr:         tr,
		accounts:   accounts,
		photos:     photos,
		publishers: byPlatform,
		breakers:   newPlatformBreakers(),
		metrics:    m,
	}
}

// target is one platform of a post with the credentials read for it.
type target struct {
	platform string
	account  *models.SocialAccount
	err      error
}

// Publish records the post, fans out to every requested platform and
// returns one outcome per platform. Provider failures are reported in the
// outcomes; the returned error is reserved for validation and internal
// failures.
func (s *publishService) Publish(ctx context.Context, userID string, req *transfer.PublishRequest) (*transfer.PublishResponse, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if err := validatePublishRequest(req); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	post, err := s.buildPost(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	if err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if err := s.pr.UpdatePostStatus(ctx, post.ID, models.PostStatusProcessing); err != nil {
		return s.abort(ctx, post, fmt.Errorf("failed to start processing: %w", err))
	}

	photos, err := s.photos.Resolve(ctx, post.PhotoIDs)
	if err != nil {
		return s.abort(ctx, post, err)
	}

	names := make([]string, 0, len(photos))
	for _, p := range photos {
		names = append(names, p.Photo.PhotographerName)
	}

	var eventID string
	if post.EventID != nil {
		eventID = *post.EventID
	}

	content := PublishContent{
		Title: post.Title,
		Caption: ComposeCaption(s.cfg.SiteURL, CaptionParts{
			Caption:           post.Caption,
			Hashtags:          post.Hashtags,
			PhotographerNames: names,
			EventID:           eventID,
			IncludeCredit:     post.IncludePhotographerCredit,
			IncludeEventLink:  post.IncludeEventLink,
		}),
		CollaboratorHandles: post.IGCollaboratorHandles,
	}

	targets := make([]target, 0, len(post.Platforms))
	for _, platform := range post.Platforms {
		acc, err := s.accounts.Get(ctx, platform)
		switch {
		case errors.Is(err, utils.ErrDecrypt), errors.Is(err, utils.ErrCipherKey):
			return s.abort(ctx, post, err)
		case err != nil:
			targets = append(targets, target{platform: platform, err: err})
		case acc == nil:
			targets = append(targets, target{platform: platform, err: fmt.Errorf("%s %w", platform, ErrAccountNotFound)})
		case !acc.IsActive():
			targets = append(targets, target{platform: platform, err: fmt.Errorf("%s %w", platform, ErrAccountInactive)})
		default:
			targets = append(targets, target{platform: platform, account: acc})
		}
	}

	outcomes, ledgerErr := s.fanOut(ctx, post.ID, targets, photos, content)

	status := aggregateStatus(outcomes)
	if err := s.pr.UpdatePostStatus(context.WithoutCancel(ctx), post.ID, status); err != nil {
		slog.Error("failed to finalize post", "post_id", post.ID, "status", status, "err", err)
		return nil, fmt.Errorf("failed to finalize post: %w", err)
	}
	s.metrics.RecordPost(status)

	if ledgerErr != nil {
		return nil, fmt.Errorf("failed to record publish results for post %s: %w", post.ID, ledgerErr)
	}

	slog.Info("post published", "post_id", post.ID, "status", status)

	return &transfer.PublishResponse{
		PostID:  post.ID,
		Status:  status,
		Results: outcomes,
	}, nil
}

// fanOut runs each target in its own goroutine, bounded by the configured
// concurrency. Targets still waiting for a slot when the publish deadline
// passes are recorded as timed out. The returned error joins every ledger
// write that failed.
func (s *publishService) fanOut(ctx context.Context, postID string, targets []target, photos []*ResolvedPhoto, content PublishContent) (map[string]transfer.PlatformOutcome, error) {
	runCtx := ctx
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}

	limit := s.cfg.PublishConcurrency
	if limit <= 0 || limit > len(targets) {
		limit = len(targets)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, limit)
	outcomes := make([]transfer.PlatformOutcome, len(targets))
	ledgerErrs := make([]error, len(targets))

	for i, t := range targets {
		wg.Add(1)
		go func(i int, t target) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-runCtx.Done():
				outcomes[i], ledgerErrs[i] = s.record(ctx, postID, t.platform, nil, errPublishTimeout, 0)
				return
			}

			if runCtx.Err() != nil {
				outcomes[i], ledgerErrs[i] = s.record(ctx, postID, t.platform, nil, errPublishTimeout, 0)
				return
			}

			start := time.Now()
			res, err := s.publishTo(runCtx, t, photos, content)
			outcomes[i], ledgerErrs[i] = s.record(ctx, postID, t.platform, res, err, time.Since(start))
		}(i, t)
	}

	wg.Wait()

	results := make(map[string]transfer.PlatformOutcome, len(targets))
	for i, t := range targets {
		results[t.platform] = outcomes[i]
	}
	return results, errors.Join(ledgerErrs...)
}

func (s *publishService) publishTo(ctx context.Context, t target, photos []*ResolvedPhoto, content PublishContent) (res *PublishResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("publisher panicked", "platform", t.platform, "panic", r)
			res, err = nil, fmt.Errorf("%s publish failed unexpectedly: %v", t.platform, r)
		}
	}()

	if t.err != nil {
		return nil, t.err
	}

	publisher, ok := s.publishers[t.platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, t.platform)
	}

	content.ImageURLs = imageURLsFor(publisher, photos)
	if len(content.ImageURLs) == 0 {
		return nil, errors.New("no photos available to publish")
	}
	if t.platform != models.PlatformInstagram {
		content.CollaboratorHandles = nil
	}

	res, err = s.breakers.execute(t.platform, func() (*PublishResult, error) {
		if len(content.ImageURLs) > 1 {
			if carousel, ok := publisher.(CarouselPublisher); ok {
				return carousel.PublishMultiple(ctx, t.account, content)
			}
			content.ImageURLs = content.ImageURLs[:1]
		}
		return publisher.PublishSingle(ctx, t.account, content)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s publishing paused after repeated failures: %w", t.platform, err)
	}
	return res, err
}

func imageURLsFor(publisher Publisher, photos []*ResolvedPhoto) []string {
	jpeg := false
	if r, ok := publisher.(JPEGRequirer); ok {
		jpeg = r.RequiresJPEG()
	}

	urls := make([]string, 0, len(photos))
	for _, p := range photos {
		if jpeg {
			urls = append(urls, p.JPEGURL)
		} else {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

// record appends the ledger row for one platform. It writes even when the
// publish context has expired. The error is the ledger write failure, not
// the publish failure.
func (s *publishService) record(ctx context.Context, postID, platform string, res *PublishResult, perr error, d time.Duration) (transfer.PlatformOutcome, error) {
	row := &models.SocialPostResult{
		ID:       uuid.NewString(),
		PostID:   postID,
		Platform: platform,
	}
	var outcome transfer.PlatformOutcome

	if perr != nil {
		slog.Error("publish failed", "platform", platform, "post_id", postID, "err", perr)
		row.Status = models.ResultStatusFailed
		row.ErrorMessage = perr.Error()
		outcome.ErrorMessage = perr.Error()
	} else {
		row.Status = models.ResultStatusSuccess
		outcome.Success = true
		if res != nil {
			row.ExternalPostID = res.ExternalID
			row.ExternalPostURL = res.ExternalURL
			row.ExternalURLReliable = res.URLReliable
			outcome.PostID = res.ExternalID
			outcome.PostURL = res.ExternalURL
			outcome.URLReliable = res.URLReliable
		}
	}

	s.metrics.RecordPublish(platform, row.Status, d)

	if err := s.rr.Create(context.WithoutCancel(ctx), row); err != nil {
		slog.Error("failed to record publish result", "platform", platform, "post_id", postID, "err", err)
		return outcome, fmt.Errorf("%s result: %w", platform, err)
	}

	return outcome, nil
}

// abort fails every target without contacting any provider and marks the
// post failed.
func (s *publishService) abort(ctx context.Context, post *models.SocialPost, cause error) (*transfer.PublishResponse, error) {
	slog.Error("publish aborted", "post_id", post.ID, "err", cause)

	errs := []error{cause}
	for _, platform := range post.Platforms {
		if _, err := s.record(ctx, post.ID, platform, nil, cause, 0); err != nil {
			errs = append(errs, err)
		}
	}

	if err := s.pr.UpdatePostStatus(context.WithoutCancel(ctx), post.ID, models.PostStatusFailed); err != nil {
		slog.Error("failed to mark post failed", "post_id", post.ID, "err", err)
	}
	s.metrics.RecordPost(models.PostStatusFailed)

	return nil, errors.Join(errs...)
}

func aggregateStatus(outcomes map[string]transfer.PlatformOutcome) string {
	var succeeded, failed int
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		} else {
			failed++
		}
	}

	switch {
	case succeeded > 0 && failed == 0:
		return models.PostStatusCompleted
	case succeeded > 0:
		return models.PostStatusPartial
	default:
		return models.PostStatusFailed
	}
}

func (s *publishService) buildPost(ctx context.Context, userID string, req *transfer.PublishRequest) (*models.SocialPost, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	post := &models.SocialPost{
		ID:                    id,
		Platforms:             uniqueLower(req.Platforms),
		Title:                 strings.TrimSpace(req.Title),
		Caption:               strings.TrimSpace(req.Caption),
		PhotoIDs:              uniqueNonEmpty(req.PhotoIDs),
		EventID:               optional(req.EventID),
		BandID:                optional(req.BandID),
		TemplateID:            optional(req.TemplateID),
		IGCollaboratorHandles: uniqueNonEmpty(req.IGCollaboratorHandles),
		CropData:              models.CropData(req.CropData),
		CreatedBy:             userID,
		Status:                models.PostStatusPending,
	}

	hashtags := req.Hashtags
	credit := req.IncludePhotographerCredit
	eventLink := req.IncludeEventLink

	if post.TemplateID != nil {
		tpl, err := s.tr.GetByID(ctx, *post.TemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to load caption template: %w", err)
		}
		if tpl == nil {
			return nil, &ValidationError{Field: "template_id", Message: "template not found"}
		}
		if post.Title == "" {
			post.Title = tpl.TitleTemplate
		}
		if len(hashtags) == 0 {
			hashtags = tpl.DefaultHashtags
		}
		if credit == nil {
			credit = &tpl.IncludePhotographerCredit
		}
		if eventLink == nil {
			eventLink = &tpl.IncludeEventLink
		}
	}

	post.Hashtags = NormalizeHashtags(hashtags)
	if post.Hashtags == nil {
		post.Hashtags = []string{}
	}
	if post.IGCollaboratorHandles == nil {
		post.IGCollaboratorHandles = []string{}
	}
	post.IncludePhotographerCredit = credit != nil && *credit
	post.IncludeEventLink = eventLink != nil && *eventLink

	return post, nil
}

func validatePublishRequest(req *transfer.PublishRequest) error {
	if req == nil {
		return &ValidationError{Message: "request body is required"}
	}

	platforms := uniqueLower(req.Platforms)
	if len(platforms) == 0 {
		return &ValidationError{Field: "platforms", Message: "at least one platform is required"}
	}
	for _, p := range platforms {
		if !models.IsValidPlatform(p) {
			return &ValidationError{Field: "platforms", Message: fmt.Sprintf("unsupported platform %q", p)}
		}
	}

	photoIDs := uniqueNonEmpty(req.PhotoIDs)
	if len(photoIDs) == 0 {
		return &ValidationError{Field: "photo_ids", Message: "at least one photo is required"}
	}
	for _, p := range platforms {
		if limit, ok := carouselLimits[p]; ok && len(photoIDs) > limit {
			return &ValidationError{Field: "photo_ids", Message: fmt.Sprintf("%s accepts at most %d photos per post", p, limit)}
		}
	}

	if strings.TrimSpace(req.Caption) == "" {
		return &ValidationError{Field: "caption", Message: "caption is required"}
	}

	known := make(map[string]bool, len(photoIDs))
	for _, id := range photoIDs {
		known[id] = true
	}
	for id, rect := range req.CropData {
		if !known[id] {
			return &ValidationError{Field: "crop_data", Message: fmt.Sprintf("photo %s is not part of this post", id)}
		}
		if !rect.Valid() {
			return &ValidationError{Field: "crop_data", Message: fmt.Sprintf("invalid crop rectangle for photo %s", id)}
		}
	}

	return nil
}

func (s *publishService) GetPost(ctx context.Context, postID string) (*transfer.PostDetails, error) {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	results, err := s.rr.ListByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &transfer.PostDetails{Post: post, Results: results}, nil
}

func uniqueLower(values []string) []string {
	lowered := make([]string, 0, len(values))
	for _, v := range values {
		lowered = append(lowered, strings.ToLower(v))
	}
	return uniqueNonEmpty(lowered)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
