package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

const (
	// tuneLength is the number of notes in a town tune.
	tuneLength = 16
	// maxNote is the highest note value; 0 is a rest.
	maxNote = 16

	tuneCreatorQuery = `SELECT creator_id FROM tune WHERE id = $1`
)

type Tune struct {
	Created time.Time `json:"created"`
	Creator UserRef   `json:"creator"`
	Name    string    `json:"name"`
	Notes   []int32   `json:"notes"`
	ID      int       `json:"id"`
}

func (s *Service) registerTunes(reg *api.Registry) {
	reg.Register("v1/tune", api.Schema{
		"id": {Type: api.TuneID, Required: true},
	}, api.Handle(s.tune))

	reg.Register("v1/tune/save", api.Schema{
		"id":    {Type: api.Number, Nullable: true, Min: 1},
		"name":  {Type: api.String, Required: true, Length: 25},
		"notes": {Type: api.Array, Items: api.Number, Required: true, Min: tuneLength, Length: tuneLength},
	}, api.Handle(s.saveTune), api.Action())

	reg.Register("v1/tune/destroy", api.Schema{
		"id": {Type: api.TuneID, Required: true},
	}, s.destroyTune, api.Action())
}

func (s *Service) tune(ctx context.Context, _ *api.Request, p api.Params) (*Tune, error) {
	var t Tune
	err := s.db.QueryRow(ctx, `
		SELECT t.id, t.name, t.notes, t.created, u.id, u.username
		FROM tune t
		JOIN users u ON u.id = t.creator_id
		WHERE t.id = $1`, p.Int("id"),
	).Scan(&t.ID, &t.Name, &t.Notes, &t.Created, &t.Creator.ID, &t.Creator.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-tune")
	}
	if err != nil {
		return nil, fmt.Errorf("load tune: %w", err)
	}
	return &t, nil
}

func (s *Service) saveTune(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "modify-tunes"); err != nil {
		return Saved{}, err
	}

	notes := make([]int32, 0, tuneLength)
	for _, n := range p.Ints("notes") {
		if n < 0 || n > maxNote {
			return Saved{}, api.ParamError(api.CodeBadFormat, "notes")
		}
		notes = append(notes, int32(n))
	}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO tune (creator_id, name, notes) VALUES ($1, $2, $3)
			RETURNING id`, r.UserID, p.String("name"), notes).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create tune: %w", err)
		}
		return saved, nil
	}

	if err := s.requireOwner(ctx, r, tuneCreatorQuery, *id, "no-such-tune"); err != nil {
		return Saved{}, err
	}
	if _, err := s.db.Exec(ctx, `UPDATE tune SET name = $2, notes = $3 WHERE id = $1`, *id, p.String("name"), notes); err != nil {
		return Saved{}, fmt.Errorf("update tune: %w", err)
	}
	return Saved{ID: *id}, nil
}

func (s *Service) destroyTune(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwnerOr(ctx, r, tuneCreatorQuery, id, "no-such-tune", "modify-tunes-admin"); err != nil {
		return nil, err
	}

	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE town SET tune_id = NULL WHERE tune_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM tune WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("destroy tune: %w", err)
	}
	return nil, nil
}
