package prefs

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Kieransaunders/iTimedIT-sub000/internal/logging"
	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

const (
	scopeKey     = "workspace_scope"
	favoritesKey = "favorite_projects"

	// legacyScopeSolo is the removed third option of the old three-valued
	// encoding. It reads as team and is rewritten on first load.
	legacyScopeSolo = "solo"
)

// ScopePreference returns the persisted workspace scope. A legacy value is
// transparently upgraded to team and rewritten. ErrNotFound means no
// preference has ever been saved.
func (s *Store) ScopePreference(ctx context.Context) (types.ScopeKind, error) {
	var raw string
	if err := s.Get(ctx, scopeKey, &raw); err != nil {
		return "", err
	}

	switch raw {
	case string(types.ScopePersonal):
		return types.ScopePersonal, nil
	case string(types.ScopeTeam):
		return types.ScopeTeam, nil
	case legacyScopeSolo:
		logging.Info().Str("legacy", raw).Msg("upgrading legacy workspace scope preference")
		if err := s.SetScopePreference(ctx, types.ScopeTeam); err != nil {
			return "", fmt.Errorf("failed to rewrite legacy scope: %w", err)
		}
		return types.ScopeTeam, nil
	}
	return "", fmt.Errorf("unrecognized workspace scope preference %q", raw)
}

// SetScopePreference persists the workspace scope.
func (s *Store) SetScopePreference(ctx context.Context, kind types.ScopeKind) error {
	return s.Put(ctx, scopeKey, string(kind))
}

// Favorites returns the favorite project IDs, empty when never saved.
func (s *Store) Favorites(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.Get(ctx, favoritesKey, &ids); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ids, nil
}

// AddFavorite appends a project to the favorites list. Adding an existing
// favorite is a no-op.
func (s *Store) AddFavorite(ctx context.Context, projectID string) error {
	ids, err := s.Favorites(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, projectID) {
		return nil
	}
	return s.Put(ctx, favoritesKey, append(ids, projectID))
}

// RemoveFavorite removes a project from the favorites list.
func (s *Store) RemoveFavorite(ctx context.Context, projectID string) error {
	ids, err := s.Favorites(ctx)
	if err != nil {
		return err
	}
	next := slices.DeleteFunc(ids, func(id string) bool { return id == projectID })
	return s.Put(ctx, favoritesKey, next)
}
