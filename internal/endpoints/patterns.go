package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

type Pattern struct {
	LastUpdated time.Time       `json:"lastUpdated"`
	Data        json.RawMessage `json:"data"`
	Creator     UserRef         `json:"creator"`
	Game        GameRef         `json:"game"`
	Name        string          `json:"name"`
	DataURL     string          `json:"dataUrl"`
	ID          int             `json:"id"`
	Published   bool            `json:"published"`
	IsFavorite  bool            `json:"isFavorite"`
}

// Favorite is the state after a pattern/favorite toggle.
type Favorite struct {
	Favorite bool `json:"favorite"`
}

const patternCreatorQuery = `SELECT creator_id FROM pattern WHERE id = $1`

func (s *Service) registerPatterns(reg *api.Registry) {
	reg.Register("v1/pattern", api.Schema{
		"id": {Type: api.PatternID, Required: true},
	}, api.Handle(s.pattern))

	reg.Register("v1/pattern/save", api.Schema{
		"id":        {Type: api.Number, Nullable: true, Min: 1},
		"name":      {Type: api.String, Required: true, Length: 20},
		"published": {Type: api.Boolean},
		"gameId":    {Type: api.ACGameID, Required: true},
		"data":      {Type: api.JSON, Required: true},
		"dataUrl":   {Type: api.String, Length: 4000},
	}, api.Handle(s.savePattern), api.Action())

	reg.Register("v1/pattern/destroy", api.Schema{
		"id": {Type: api.PatternID, Required: true},
	}, s.destroyPattern, api.Action())

	reg.Register("v1/pattern/favorite", api.Schema{
		"id": {Type: api.PatternID, Required: true},
	}, api.Handle(s.favoritePattern), api.Action())
}

// pattern hides unpublished patterns from everyone but their creator.
func (s *Service) pattern(ctx context.Context, r *api.Request, p api.Params) (*Pattern, error) {
	if err := r.RequirePermission(ctx, "view-patterns"); err != nil {
		return nil, err
	}

	var (
		pt        Pattern
		shortname string
		data      []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT p.id, p.name, p.published, p.data, p.data_url, p.last_updated,
		       u.id, u.username, g.id, g.name, g.shortname,
		       EXISTS (SELECT 1 FROM pattern_favorite f WHERE f.pattern_id = p.id AND f.user_id = $2)
		FROM pattern p
		JOIN users u ON u.id = p.creator_id
		JOIN ac_game g ON g.id = p.game_id
		WHERE p.id = $1`, p.Int("id"), r.UserID,
	).Scan(
		&pt.ID, &pt.Name, &pt.Published, &data, &pt.DataURL, &pt.LastUpdated,
		&pt.Creator.ID, &pt.Creator.Username, &pt.Game.ID, &pt.Game.Name, &shortname,
		&pt.IsFavorite,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-pattern")
	}
	if err != nil {
		return nil, fmt.Errorf("load pattern: %w", err)
	}
	if !pt.Published && pt.Creator.ID != r.UserID {
		return nil, api.NewError("no-such-pattern")
	}

	pt.Data = data
	pt.Game.Identifier = gameIdentifier(shortname)
	return &pt, nil
}

func (s *Service) savePattern(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "modify-patterns"); err != nil {
		return Saved{}, err
	}
	data, err := p.JSON("data")
	if err != nil {
		return Saved{}, api.ParamError(api.CodeBadFormat, "data")
	}

	args := []any{p.String("name"), p.Bool("published"), p.Int("gameId"), []byte(data), p.String("dataUrl")}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO pattern (creator_id, name, published, game_id, data, data_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`, append([]any{r.UserID}, args...)...).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create pattern: %w", err)
		}
		return saved, nil
	}

	if err := s.requireOwner(ctx, r, patternCreatorQuery, *id, "no-such-pattern"); err != nil {
		return Saved{}, err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE pattern
		SET name = $2, published = $3, game_id = $4, data = $5, data_url = $6, last_updated = now()
		WHERE id = $1`, append([]any{*id}, args...)...)
	if err != nil {
		return Saved{}, fmt.Errorf("update pattern: %w", err)
	}
	return Saved{ID: *id}, nil
}

func (s *Service) destroyPattern(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequirePermission(ctx, "modify-patterns"); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwnerOr(ctx, r, patternCreatorQuery, id, "no-such-pattern", "modify-patterns-admin"); err != nil {
		return nil, err
	}

	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE town SET flag_id = NULL WHERE flag_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM pattern_favorite WHERE pattern_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM pattern WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("destroy pattern: %w", err)
	}
	return nil, nil
}

// favoritePattern flips the caller's favorite. A new favorite on someone
// else's pattern notifies its creator.
func (s *Service) favoritePattern(ctx context.Context, r *api.Request, p api.Params) (Favorite, error) {
	if err := r.RequireUser(); err != nil {
		return Favorite{}, err
	}
	if err := r.RequirePermission(ctx, "view-patterns"); err != nil {
		return Favorite{}, err
	}
	id := p.Int("id")

	tag, err := s.db.Exec(ctx, `DELETE FROM pattern_favorite WHERE pattern_id = $1 AND user_id = $2`, id, r.UserID)
	if err != nil {
		return Favorite{}, fmt.Errorf("remove favorite: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return Favorite{Favorite: false}, nil
	}

	var creatorID int
	err = s.db.QueryRow(ctx, `
		WITH added AS (
			INSERT INTO pattern_favorite (pattern_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		)
		SELECT creator_id FROM pattern WHERE id = $1`, id, r.UserID).Scan(&creatorID)
	if err != nil {
		return Favorite{}, fmt.Errorf("add favorite: %w", err)
	}

	if creatorID != r.UserID {
		_, err := r.Query(ctx, "v1/notification/create", map[string]any{
			"userId":      creatorID,
			"type":        NotifyPatternFavorite,
			"referenceId": id,
		})
		if err != nil {
			return Favorite{}, err
		}
	}
	return Favorite{Favorite: true}, nil
}
