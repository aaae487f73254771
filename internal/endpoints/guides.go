package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/sanitizer"
)

type Guide struct {
	LastUpdated time.Time `json:"lastUpdated"`
	Author      UserRef   `json:"author"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Content     string    `json:"content,omitempty"`
	ID          int       `json:"id"`
	GameID      int       `json:"gameId"`
}

const guideSelect = `
	SELECT g.id, g.game_id, g.name, g.description, g.last_updated, u.id, u.username`

func scanGuide(row pgx.Row, extra ...any) (Guide, error) {
	var g Guide
	dest := append([]any{&g.ID, &g.GameID, &g.Name, &g.Description, &g.LastUpdated, &g.Author.ID, &g.Author.Username}, extra...)
	err := row.Scan(dest...)
	return g, err
}

func (s *Service) registerGuides(reg *api.Registry) {
	reg.Register("v1/guide", api.Schema{
		"id": {Type: api.GuideID, Required: true},
	}, api.Handle(s.guide))

	reg.Register("v1/guides", api.Schema{
		"gameId": {Type: api.ACGameID, Nullable: true},
	}, api.Handle(s.guides))

	reg.Register("v1/guide/save", api.Schema{
		"id":          {Type: api.Number, Nullable: true, Min: 1},
		"gameId":      {Type: api.ACGameID, Required: true},
		"name":        {Type: api.String, Required: true, Length: 100},
		"description": {Type: api.String, Length: 100},
		"content":     {Type: api.String, Required: true, Length: 100000},
	}, api.Handle(s.saveGuide), api.Action())

	reg.Register("v1/guide/destroy", api.Schema{
		"id": {Type: api.GuideID, Required: true},
	}, s.destroyGuide, api.Action())
}

func (s *Service) guide(ctx context.Context, r *api.Request, p api.Params) (*Guide, error) {
	if err := r.RequirePermission(ctx, "view-guides"); err != nil {
		return nil, err
	}
	id := p.Int("id")

	g, err := acccache.CacheQuery(ctx, s.cache, acccache.GuideKey(id), 0, func(ctx context.Context) (Guide, error) {
		var content string
		g, err := scanGuide(s.db.QueryRow(ctx, guideSelect+`, g.content
			FROM guide g
			JOIN users u ON u.id = g.user_id
			WHERE g.id = $1`, id), &content)
		g.Content = content
		return g, err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-guide")
	}
	if err != nil {
		return nil, fmt.Errorf("load guide: %w", err)
	}
	return &g, nil
}

// guides lists guide summaries, optionally for one game.
func (s *Service) guides(ctx context.Context, r *api.Request, p api.Params) ([]Guide, error) {
	if err := r.RequirePermission(ctx, "view-guides"); err != nil {
		return nil, err
	}

	key := acccache.KeyGuides
	gameID := p.OptInt("gameId")
	if gameID != nil {
		key = acccache.GuidesKey(*gameID)
	}

	return acccache.CacheQuery(ctx, s.cache, key, 0, func(ctx context.Context) ([]Guide, error) {
		rows, err := s.db.Query(ctx, guideSelect+`
			FROM guide g
			JOIN users u ON u.id = g.user_id
			WHERE $1::int IS NULL OR g.game_id = $1
			ORDER BY g.name`, gameID)
		if err != nil {
			return nil, fmt.Errorf("load guides: %w", err)
		}
		defer rows.Close()

		guides := []Guide{}
		for rows.Next() {
			g, err := scanGuide(rows)
			if err != nil {
				return nil, fmt.Errorf("scan guide: %w", err)
			}
			guides = append(guides, g)
		}
		return guides, rows.Err()
	})
}

func (s *Service) saveGuide(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "modify-guides"); err != nil {
		return Saved{}, err
	}

	gameID := p.Int("gameId")
	name := sanitizer.StripHTML(p.String("name"))
	description := sanitizer.StripHTML(p.String("description"))
	content := sanitizer.SanitizeHTML(p.String("content"))
	if name == "" {
		return Saved{}, api.ParamError(api.CodeBadFormat, "name")
	}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO guide (game_id, user_id, name, description, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`, gameID, r.UserID, name, description, content).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create guide: %w", err)
		}
		s.invalidate(ctx, acccache.KeyGuides, acccache.GuidesKey(gameID))
		return saved, nil
	}

	// The old game loses the guide when it moves.
	var oldGameID int
	err := s.db.QueryRow(ctx, `
		UPDATE guide g
		SET game_id = $2, name = $3, description = $4, content = $5, user_id = $6, last_updated = now()
		FROM guide prev
		WHERE g.id = $1 AND prev.id = g.id
		RETURNING prev.game_id`, *id, gameID, name, description, content, r.UserID).Scan(&oldGameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Saved{}, api.ParamError("no-such-guide", "id")
	}
	if err != nil {
		return Saved{}, fmt.Errorf("update guide: %w", err)
	}

	s.invalidate(ctx, acccache.KeyGuides, acccache.GuidesKey(gameID), acccache.GuidesKey(oldGameID), acccache.GuideKey(*id))
	return Saved{ID: *id}, nil
}

func (s *Service) destroyGuide(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequirePermission(ctx, "modify-guides"); err != nil {
		return nil, err
	}
	id := p.Int("id")

	var gameID int
	err := s.db.QueryRow(ctx, `DELETE FROM guide WHERE id = $1 RETURNING game_id`, id).Scan(&gameID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-guide")
	}
	if err != nil {
		return nil, fmt.Errorf("destroy guide: %w", err)
	}

	s.invalidate(ctx, acccache.GuideKey(id), acccache.GuidesKey(gameID), acccache.KeyGuides)
	return nil, nil
}
