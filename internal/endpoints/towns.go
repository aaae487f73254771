package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

type GameRef struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	ID         int    `json:"id"`
}

// NamedRef points at a pattern or tune by id and name.
type NamedRef struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

type Town struct {
	Flag       *NamedRef   `json:"flag"`
	Tune       *NamedRef   `json:"tune"`
	Owner      UserRef     `json:"owner"`
	Game       GameRef     `json:"game"`
	Name       string      `json:"name"`
	Fruit      string      `json:"fruit"`
	GrassShape string      `json:"grassShape"`
	Characters []Character `json:"characters,omitempty"`
	ID         int         `json:"id"`
}

type Character struct {
	Name        string `json:"name" db:"name"`
	BedLocation string `json:"bedLocation" db:"bed_location"`
	ID          int    `json:"id" db:"id"`
	TownID      int    `json:"townId" db:"town_id"`
	Bells       int64  `json:"bells" db:"bells"`
	Debt        int64  `json:"debt" db:"debt"`
	HRAScore    int    `json:"hraScore" db:"hra_score"`
}

const townSelect = `
	SELECT t.id, t.name, t.fruit, t.grass_shape,
	       u.id, u.username,
	       g.id, g.name, g.shortname,
	       p.id, p.name,
	       tu.id, tu.name
	FROM town t
	JOIN users u ON u.id = t.user_id
	JOIN ac_game g ON g.id = t.game_id
	LEFT JOIN pattern p ON p.id = t.flag_id
	LEFT JOIN tune tu ON tu.id = t.tune_id`

const characterColumns = `id, town_id, name, bells, debt, hra_score, bed_location`

const (
	townOwnerQuery      = `SELECT user_id FROM town WHERE id = $1`
	characterOwnerQuery = `SELECT t.user_id FROM character c JOIN town t ON t.id = c.town_id WHERE c.id = $1`
)

func scanTown(row pgx.Row) (Town, error) {
	var (
		t                  Town
		shortname          string
		flagID, tuneID     *int
		flagName, tuneName *string
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Fruit, &t.GrassShape,
		&t.Owner.ID, &t.Owner.Username,
		&t.Game.ID, &t.Game.Name, &shortname,
		&flagID, &flagName,
		&tuneID, &tuneName,
	)
	if err != nil {
		return Town{}, err
	}
	t.Game.Identifier = gameIdentifier(shortname)
	if flagID != nil && flagName != nil {
		t.Flag = &NamedRef{ID: *flagID, Name: *flagName}
	}
	if tuneID != nil && tuneName != nil {
		t.Tune = &NamedRef{ID: *tuneID, Name: *tuneName}
	}
	return t, nil
}

func (s *Service) registerTowns(reg *api.Registry) {
	reg.Register("v1/town", api.Schema{
		"id": {Type: api.TownID, Required: true},
	}, api.Handle(s.town))

	reg.Register("v1/towns", api.Schema{
		"userId": {Type: api.UserID, Required: true},
	}, api.Handle(s.towns))

	reg.Register("v1/town/save", api.Schema{
		"id":         {Type: api.Number, Nullable: true, Min: 1},
		"name":       {Type: api.String, Required: true, Length: 8},
		"gameId":     {Type: api.ACGameID, Required: true},
		"fruit":      {Type: api.String, Length: 20},
		"grassShape": {Type: api.String, Length: 20},
		"flagId":     {Type: api.PatternID, Nullable: true},
		"tuneId":     {Type: api.TuneID, Nullable: true},
	}, api.Handle(s.saveTown), api.Action())

	reg.Register("v1/town/destroy", api.Schema{
		"id": {Type: api.TownID, Required: true},
	}, s.destroyTown, api.Action())

	reg.Register("v1/character", api.Schema{
		"id": {Type: api.CharacterID, Required: true},
	}, api.Handle(s.character))

	reg.Register("v1/character/save", api.Schema{
		"id":          {Type: api.Number, Nullable: true, Min: 1},
		"townId":      {Type: api.TownID, Required: true},
		"name":        {Type: api.String, Required: true, Length: 10},
		"bells":       {Type: api.Number},
		"debt":        {Type: api.Number},
		"hraScore":    {Type: api.Number},
		"bedLocation": {Type: api.String, Length: 50},
	}, api.Handle(s.saveCharacter), api.Action())

	reg.Register("v1/character/destroy", api.Schema{
		"id": {Type: api.CharacterID, Required: true},
	}, s.destroyCharacter, api.Action())
}

// town loads the town and its characters concurrently.
func (s *Service) town(ctx context.Context, _ *api.Request, p api.Params) (*Town, error) {
	id := p.Int("id")

	var (
		town       Town
		characters []Character
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		town, err = scanTown(s.db.QueryRow(gctx, townSelect+` WHERE t.id = $1`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return api.NewError("no-such-town")
		}
		if err != nil {
			return fmt.Errorf("load town: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(gctx, `SELECT `+characterColumns+` FROM character WHERE town_id = $1 ORDER BY id`, id)
		if err != nil {
			return fmt.Errorf("load characters: %w", err)
		}
		characters, err = pgx.CollectRows(rows, pgx.RowToStructByName[Character])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	town.Characters = characters
	return &town, nil
}

func (s *Service) towns(ctx context.Context, _ *api.Request, p api.Params) ([]Town, error) {
	rows, err := s.db.Query(ctx, townSelect+` WHERE t.user_id = $1 ORDER BY t.id`, p.Int("userId"))
	if err != nil {
		return nil, fmt.Errorf("load towns: %w", err)
	}
	defer rows.Close()

	towns := []Town{}
	for rows.Next() {
		t, err := scanTown(rows)
		if err != nil {
			return nil, fmt.Errorf("scan town: %w", err)
		}
		towns = append(towns, t)
	}
	return towns, rows.Err()
}

func (s *Service) saveTown(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequireUser(); err != nil {
		return Saved{}, err
	}

	gameID := p.Int("gameId")
	var hasTown bool
	if err := s.db.QueryRow(ctx, `SELECT has_town FROM ac_game WHERE id = $1`, gameID).Scan(&hasTown); err != nil {
		return Saved{}, fmt.Errorf("load ac game: %w", err)
	}
	if !hasTown {
		return Saved{}, api.ParamError(api.CodeBadFormat, "gameId")
	}

	args := []any{p.String("name"), gameID, p.String("fruit"), p.String("grassShape"), p.OptInt("flagId"), p.OptInt("tuneId")}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO town (user_id, name, game_id, fruit, grass_shape, flag_id, tune_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`, append([]any{r.UserID}, args...)...).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create town: %w", err)
		}
		return saved, nil
	}

	if err := s.requireOwner(ctx, r, townOwnerQuery, *id, "no-such-town"); err != nil {
		return Saved{}, err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE town
		SET name = $2, game_id = $3, fruit = $4, grass_shape = $5, flag_id = $6, tune_id = $7
		WHERE id = $1`, append([]any{*id}, args...)...)
	if err != nil {
		return Saved{}, fmt.Errorf("update town: %w", err)
	}
	return Saved{ID: *id}, nil
}

// destroyTown removes the town with its characters.
func (s *Service) destroyTown(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwner(ctx, r, townOwnerQuery, id, "no-such-town"); err != nil {
		return nil, err
	}

	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM character WHERE town_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM town WHERE id = $1`, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("destroy town: %w", err)
	}
	return nil, nil
}

func (s *Service) character(ctx context.Context, _ *api.Request, p api.Params) (*Character, error) {
	rows, err := s.db.Query(ctx, `SELECT `+characterColumns+` FROM character WHERE id = $1`, p.Int("id"))
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Character])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-character")
	}
	if err != nil {
		return nil, fmt.Errorf("scan character: %w", err)
	}
	return &c, nil
}

func (s *Service) saveCharacter(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequireUser(); err != nil {
		return Saved{}, err
	}
	townID := p.Int("townId")
	if err := s.requireOwner(ctx, r, townOwnerQuery, townID, "no-such-town"); err != nil {
		return Saved{}, err
	}

	args := []any{townID, p.String("name"), p.Int("bells"), p.Int("debt"), p.Int("hraScore"), p.String("bedLocation")}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO character (town_id, name, bells, debt, hra_score, bed_location)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`, args...).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create character: %w", err)
		}
		return saved, nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE character
		SET name = $3, bells = $4, debt = $5, hra_score = $6, bed_location = $7
		WHERE id = $1 AND town_id = $2`, append([]any{*id}, args...)...)
	if err != nil {
		return Saved{}, fmt.Errorf("update character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Saved{}, api.ParamError("no-such-character", "id")
	}
	return Saved{ID: *id}, nil
}

func (s *Service) destroyCharacter(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwner(ctx, r, characterOwnerQuery, id, "no-such-character"); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM character WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("destroy character: %w", err)
	}
	return nil, nil
}
