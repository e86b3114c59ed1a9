package services

import (
	"context"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/cache"
	"time"
)

// Preferences are the per-user defaults applied to submissions.
type Preferences struct {
	UserID      string                    `json:"user_id"`
	Parameters  models.ResponseParameters `json:"parameters"`
	DisplayMode models.DisplayMode        `json:"display_mode"`
}

type PreferencesService struct {
	typedCache  *cache.TypedCache[Preferences]
	cacheTTL    time.Duration
	displayMode models.DisplayMode
}

func NewPreferencesService(cacheService cache.CacheService, displayMode models.DisplayMode) *PreferencesService {
	if !displayMode.Valid() {
		displayMode = models.DisplayDetailed
	}
	return &PreferencesService{
		typedCache:  cache.NewTypedCache[Preferences](cacheService),
		cacheTTL:    30 * time.Minute,
		displayMode: displayMode,
	}
}

func (s *PreferencesService) Defaults(userID string) Preferences {
	return Preferences{
		UserID:      userID,
		Parameters:  models.DefaultParameters(),
		DisplayMode: s.displayMode,
	}
}

func (s *PreferencesService) Set(ctx context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return apperr.Validation("set preferences", "userID cannot be empty")
	}
	if prefs.DisplayMode != "" && !prefs.DisplayMode.Valid() {
		return apperr.Validation("set preferences", fmt.Sprintf("unknown display mode %q", prefs.DisplayMode))
	}
	prefs.UserID = userID
	prefs.Parameters = prefs.Parameters.WithDefaults()
	if prefs.DisplayMode == "" {
		prefs.DisplayMode = s.displayMode
	}
	return s.typedCache.Set(s.getCacheKey(userID), prefs, s.cacheTTL)
}

// Get returns the stored preferences, or NotFound when none are cached.
func (s *PreferencesService) Get(ctx context.Context, userID string) (*Preferences, error) {
	if userID == "" {
		return nil, apperr.Validation("get preferences", "userID cannot be empty")
	}
	prefs, exists, err := s.typedCache.Get(s.getCacheKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences for user %s: %w", userID, err)
	}
	if !exists {
		return nil, apperr.NotFound("get preferences", "no preferences stored")
	}
	return &prefs, nil
}

// Resolve returns the stored preferences with their TTL refreshed, or the defaults.
func (s *PreferencesService) Resolve(ctx context.Context, userID string) Preferences {
	if userID == "" {
		return s.Defaults(userID)
	}
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return s.Defaults(userID)
	}
	if err := s.Set(ctx, userID, *prefs); err != nil {
		logging.Logger.Warn("fail refresh preferences ttl", "user_id", userID, "error", err)
	}
	return *prefs
}

// UpdateDisplayMode changes only the display mode of the stored preferences.
func (s *PreferencesService) UpdateDisplayMode(ctx context.Context, userID string, mode models.DisplayMode) error {
	prefs := s.Resolve(ctx, userID)
	prefs.DisplayMode = mode
	return s.Set(ctx, userID, prefs)
}

func (s *PreferencesService) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return apperr.Validation("delete preferences", "userID cannot be empty")
	}
	return s.typedCache.Delete(s.getCacheKey(userID))
}

func (s *PreferencesService) getCacheKey(userID string) string {
	return fmt.Sprintf("preferences:user:%s", userID)
}
