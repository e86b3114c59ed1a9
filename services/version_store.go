package services

import (
	"context"
	"errors"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/cache"
	"go_qa_assistant/platform/events"
	"go_qa_assistant/repository"
	"sync"
	"time"
)

// VersionsView is a read-only copy of the store state for the UI.
type VersionsView struct {
	QuestionID string            `json:"question_id"`
	Versions   []*models.Version `json:"versions"`
	CurrentID  models.VersionID  `json:"current_id"`
	Current    *models.Version   `json:"current,omitempty"`
	Loading    bool              `json:"loading"`
	Error      string            `json:"error,omitempty"`
}

// VersionStore holds the version sequence of the displayed question. It is the only
// writer of the version cache.
type VersionStore struct {
	repo      repository.VersionRepository
	cache     *cache.TypedCache[models.VersionSet]
	publisher events.Publisher
	now       func() time.Time

	mu         sync.Mutex
	questionID string
	versions   []*models.Version
	currentID  models.VersionID
	lastAI     *models.Version
	loading    bool
	err        error
}

func NewVersionStore(repo repository.VersionRepository, cacheService cache.CacheService, publisher events.Publisher) *VersionStore {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &VersionStore{
		repo:      repo,
		cache:     cache.NewTypedCache[models.VersionSet](cacheService),
		publisher: publisher,
		now:       time.Now,
	}
}

func versionCacheKey(questionID string) string {
	return fmt.Sprintf("versions:question:%s", questionID)
}

// LoadVersions makes questionID the store's question and returns its sorted sequence.
// A cached sequence is returned without touching the repository.
func (s *VersionStore) LoadVersions(ctx context.Context, questionID string) ([]*models.Version, error) {
	s.mu.Lock()
	if questionID == "" {
		s.clearLocked()
		s.mu.Unlock()
		return nil, nil
	}
	s.questionID = questionID
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	set, cached, err := s.cache.GetOrLoad(versionCacheKey(questionID), cache.NoExpiration, func() (models.VersionSet, error) {
		list, err := s.repo.List(ctx, questionID)
		if err != nil {
			return models.VersionSet{}, err
		}
		models.SortVersions(list)
		var current models.VersionID
		if v := models.ResolveCurrent(list, models.VersionID{}); v != nil {
			current = v.ID
		}
		return models.VersionSet{Versions: list, CurrentID: current}, nil
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.questionID != questionID {
		// the store moved on while the fetch was in flight
		if err != nil {
			return nil, err
		}
		return set.Clone().Versions, nil
	}
	s.loading = false
	if err != nil {
		logging.Logger.Error("fail LoadVersions", "question_id", questionID, "error", err)
		s.err = err
		s.versions = nil
		s.currentID = models.VersionID{}
		return nil, err
	}
	set = set.Clone()
	s.versions = set.Versions
	s.currentID = models.VersionID{}
	if v := models.ResolveCurrent(s.versions, set.CurrentID); v != nil {
		s.currentID = v.ID
	}
	logging.Logger.Debug("versions loaded", "question_id", questionID, "count", len(s.versions), "cached", cached)
	return cloneVersions(s.versions), nil
}

// ForceReload drops the cache entry and fetches again.
func (s *VersionStore) ForceReload(ctx context.Context, questionID string) ([]*models.Version, error) {
	s.dropCache(questionID)
	return s.LoadVersions(ctx, questionID)
}

// Forget drops the cache entry of a deleted question.
func (s *VersionStore) Forget(questionID string) {
	if questionID == "" {
		return
	}
	s.dropCache(questionID)
	s.mu.Lock()
	if s.questionID == questionID {
		s.clearLocked()
	}
	s.mu.Unlock()
}

func (s *VersionStore) dropCache(questionID string) {
	if err := s.cache.Delete(versionCacheKey(questionID)); err != nil {
		logging.Logger.Error("fail drop version cache", "question_id", questionID, "error", err)
	}
}

// AddVersion records content as a new version of the current question. Rejected
// content yields a nil version and a nil error.
func (s *VersionStore) AddVersion(ctx context.Context, content string, vtype models.VersionType, metadata map[string]interface{}) (*models.Version, error) {
	if content == "" {
		return nil, nil
	}
	if !vtype.Valid() {
		return nil, apperr.Validation("add version", fmt.Sprintf("unknown version type %q", vtype))
	}

	s.mu.Lock()
	if vtype == models.VersionAI && s.lastAI != nil && s.lastAI.Content == content {
		existing := s.lastAI.Clone()
		s.mu.Unlock()
		return existing, nil
	}
	if vtype == models.VersionUser {
		if q, ok := metadata[models.MetaQuestion].(string); ok && q == content {
			s.mu.Unlock()
			return nil, nil
		}
	}
	for _, v := range s.versions {
		if v.Type == vtype && v.Content == content {
			s.mu.Unlock()
			if vtype == models.VersionAI {
				return v.Clone(), nil
			}
			return nil, nil
		}
	}

	draft := &models.Version{
		Content:   content,
		Type:      vtype,
		Timestamp: s.now().UTC(),
		Metadata:  copyMetadata(metadata),
	}
	questionID := s.questionID
	if questionID == "" {
		draft.ID = models.NewLocalVersionID()
		s.insertLocked(draft)
		s.mu.Unlock()
		logging.Logger.Debug("local version created", "version_id", draft.ID.String(), "type", vtype)
		return draft.Clone(), nil
	}
	s.mu.Unlock()

	created, err := s.repo.Create(ctx, questionID, draft)
	if err != nil {
		logging.Logger.Error("fail AddVersion", "question_id", questionID, "type", vtype, "error", err)
		s.mu.Lock()
		if s.questionID == questionID {
			s.err = err
		}
		s.mu.Unlock()
		return nil, err
	}
	created = completeVersion(created, draft)

	s.mu.Lock()
	if s.questionID == questionID {
		s.insertLocked(created)
		s.writeCacheLocked()
	} else {
		s.appendToCachedSet(questionID, created)
	}
	s.mu.Unlock()

	s.publish(ctx, &models.Event{
		Type:       models.EventVersionAdded,
		QuestionID: questionID,
		Question:   metaString(created.Metadata, models.MetaQuestion),
		ParentName: metaString(created.Metadata, models.MetaParentName),
		Version:    created.Clone(),
	})
	return created.Clone(), nil
}

func (s *VersionStore) ToggleLike(ctx context.Context, id models.VersionID) *models.Version {
	return s.toggle(ctx, id, func(v *models.Version) models.VersionPatch {
		liked := !v.IsLiked
		return models.VersionPatch{IsLiked: &liked}
	})
}

func (s *VersionStore) ToggleBookmark(ctx context.Context, id models.VersionID) *models.Version {
	return s.toggle(ctx, id, func(v *models.Version) models.VersionPatch {
		bookmarked := !v.IsBookmarked
		return models.VersionPatch{IsBookmarked: &bookmarked}
	})
}

// toggle flips a flag remotely and replaces the version in place. The last completed
// toggle wins; every replacement bumps the revision.
func (s *VersionStore) toggle(ctx context.Context, id models.VersionID, patchFor func(*models.Version) models.VersionPatch) *models.Version {
	s.mu.Lock()
	questionID := s.questionID
	_, v := models.FindVersion(s.versions, id)
	if v == nil || questionID == "" || v.IsLocal() {
		s.mu.Unlock()
		return nil
	}
	patch := patchFor(v)
	s.mu.Unlock()

	updated, err := s.repo.Update(ctx, questionID, id.String(), patch)
	if err != nil {
		logging.Logger.Warn("fail toggle version flag", "question_id", questionID, "version_id", id.String(), "error", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.questionID != questionID {
		return nil
	}
	idx, current := models.FindVersion(s.versions, id)
	if current == nil {
		return nil
	}
	replacement := current.Clone()
	if patch.IsLiked != nil {
		replacement.IsLiked = updated.IsLiked
	}
	if patch.IsBookmarked != nil {
		replacement.IsBookmarked = updated.IsBookmarked
	}
	replacement.Revision = current.Revision + 1
	versions := cloneSlice(s.versions)
	versions[idx] = replacement
	s.versions = versions
	s.writeCacheLocked()
	return replacement.Clone()
}

// Select marks id as the UI's current version.
func (s *VersionStore) Select(id models.VersionID) (*models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, v := models.FindVersion(s.versions, id)
	if v == nil {
		return nil, apperr.NotFound("select version", "version not found")
	}
	s.currentID = id
	s.writeCacheLocked()
	return v.Clone(), nil
}

func (s *VersionStore) CurrentVersion() *models.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ResolveCurrent(s.versions, s.currentID).Clone()
}

func (s *VersionStore) Version(id models.VersionID) *models.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, v := models.FindVersion(s.versions, id)
	return v.Clone()
}

func (s *VersionStore) Versions() []*models.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneVersions(s.versions)
}

func (s *VersionStore) QuestionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questionID
}

func (s *VersionStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *VersionStore) View() VersionsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	view := VersionsView{
		QuestionID: s.questionID,
		Versions:   cloneVersions(s.versions),
		Loading:    s.loading,
	}
	if cur := models.ResolveCurrent(s.versions, s.currentID); cur != nil {
		view.CurrentID = cur.ID
		view.Current = cur.Clone()
	}
	if s.err != nil {
		view.Error = apperr.Message(s.err)
	}
	return view
}

// Reset clears everything; used when a new conversation starts.
func (s *VersionStore) Reset() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
}

// AttachQuestion gives pending local versions their persisted identity once the
// owning question has been saved. The sequence and the cache entry are swapped in one
// step; versions that fail to persist stay local and are reported in the error.
func (s *VersionStore) AttachQuestion(ctx context.Context, questionID string) error {
	if questionID == "" {
		return apperr.Validation("attach question", "question id is required")
	}

	s.mu.Lock()
	if s.questionID != "" && s.questionID != questionID {
		s.mu.Unlock()
		return apperr.Validation("attach question", "store holds another question")
	}
	var pending []*models.Version
	for i := len(s.versions) - 1; i >= 0; i-- {
		if s.versions[i].IsLocal() {
			pending = append(pending, s.versions[i].Clone())
		}
	}
	s.questionID = questionID
	s.mu.Unlock()

	upgraded := make(map[models.VersionID]*models.Version, len(pending))
	var errs []error
	for _, local := range pending {
		created, err := s.repo.Create(ctx, questionID, local)
		if err != nil {
			logging.Logger.Error("fail persist local version", "question_id", questionID, "version_id", local.ID.String(), "error", err)
			errs = append(errs, err)
			continue
		}
		upgraded[local.ID] = completeVersion(created, local)
	}

	s.mu.Lock()
	if s.questionID != questionID {
		s.mu.Unlock()
		return errors.Join(append(errs, apperr.Validation("attach question", "store moved to another question"))...)
	}
	versions := make([]*models.Version, 0, len(s.versions))
	for _, v := range s.versions {
		if repl, ok := upgraded[v.ID]; ok {
			versions = append(versions, repl)
			continue
		}
		versions = append(versions, v)
	}
	models.SortVersions(versions)
	if repl, ok := upgraded[s.currentID]; ok {
		s.currentID = repl.ID
	}
	if s.lastAI != nil {
		if repl, ok := upgraded[s.lastAI.ID]; ok {
			s.lastAI = repl
		}
	}
	s.versions = versions
	s.writeCacheLocked()
	s.mu.Unlock()

	for _, v := range upgraded {
		s.publish(ctx, &models.Event{
			Type:       models.EventVersionAdded,
			QuestionID: questionID,
			Question:   metaString(v.Metadata, models.MetaQuestion),
			ParentName: metaString(v.Metadata, models.MetaParentName),
			Version:    v.Clone(),
		})
	}
	return errors.Join(errs...)
}

func (s *VersionStore) clearLocked() {
	s.questionID = ""
	s.versions = nil
	s.currentID = models.VersionID{}
	s.lastAI = nil
	s.loading = false
	s.err = nil
}

// insertLocked places v in sort order and selects it.
func (s *VersionStore) insertLocked(v *models.Version) {
	s.versions = models.InsertVersion(s.versions, v)
	s.currentID = v.ID
	s.err = nil
	if v.Type == models.VersionAI {
		s.lastAI = v
	}
}

func (s *VersionStore) writeCacheLocked() {
	if s.questionID == "" {
		return
	}
	set := models.VersionSet{Versions: s.versions, CurrentID: s.currentID}.Clone()
	if err := s.cache.Set(versionCacheKey(s.questionID), set, cache.NoExpiration); err != nil {
		logging.Logger.Error("fail write version cache", "question_id", s.questionID, "error", err)
	}
}

func (s *VersionStore) appendToCachedSet(questionID string, v *models.Version) {
	key := versionCacheKey(questionID)
	set, ok, err := s.cache.Get(key)
	if err != nil || !ok {
		return
	}
	set = set.Clone()
	set.Versions = models.InsertVersion(set.Versions, v)
	if err := s.cache.Set(key, set, cache.NoExpiration); err != nil {
		logging.Logger.Error("fail write version cache", "question_id", questionID, "error", err)
	}
}

func (s *VersionStore) publish(ctx context.Context, event *models.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logging.Logger.Error("fail publish event", "type", event.Type, "error", err)
	}
}

// completeVersion fills fields the server left out of its reply from the draft.
func completeVersion(created, draft *models.Version) *models.Version {
	if created == nil {
		created = &models.Version{}
	}
	if created.Content == "" {
		created.Content = draft.Content
	}
	if created.Type == "" {
		created.Type = draft.Type
	}
	if created.Timestamp.IsZero() {
		created.Timestamp = draft.Timestamp
	}
	if created.Metadata == nil {
		created.Metadata = copyMetadata(draft.Metadata)
	}
	return created
}

func cloneVersions(versions []*models.Version) []*models.Version {
	if versions == nil {
		return nil
	}
	out := make([]*models.Version, len(versions))
	for i, v := range versions {
		out[i] = v.Clone()
	}
	return out
}

func cloneSlice(versions []*models.Version) []*models.Version {
	return append([]*models.Version(nil), versions...)
}

func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

func metaString(metadata map[string]interface{}, key string) string {
	s, _ := metadata[key].(string)
	return s
}
