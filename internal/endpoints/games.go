package endpoints

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
)

type ACGame struct {
	Name           string `json:"name" db:"name"`
	Shortname      string `json:"shortname" db:"shortname"`
	Identifier     string `json:"identifier" db:"-"`
	Color          string `json:"color" db:"color"`
	ID             int    `json:"id" db:"id"`
	HasTown        bool   `json:"hasTown" db:"has_town"`
	HasTune        bool   `json:"hasTune" db:"has_tune"`
	HasFruit       bool   `json:"hasFruit" db:"has_fruit"`
	HasGrassShapes bool   `json:"hasGrassShapes" db:"has_grass_shapes"`
	HasPatterns    bool   `json:"hasPatterns" db:"has_patterns"`
	HasStores      bool   `json:"hasStores" db:"has_stores"`
}

type GameConsole struct {
	Name     string `json:"name" db:"name"`
	ID       int    `json:"id" db:"id"`
	Sequence int    `json:"sequence" db:"sequence"`
	IsActive bool   `json:"isActive" db:"is_active"`
}

type Game struct {
	Name      string `json:"name" db:"name"`
	ShortName string `json:"shortName" db:"short_name"`
	ID        int    `json:"id" db:"id"`
	ConsoleID int    `json:"consoleId" db:"game_console_id"`
	Sequence  int    `json:"sequence" db:"sequence"`
	IsEnabled bool   `json:"isEnabled" db:"is_enabled"`
}

// gameIdentifier derives the URL-safe identifier, e.g. "AC:NL" -> "acnl".
func gameIdentifier(shortname string) string {
	return strings.ReplaceAll(strings.ToLower(shortname), ":", "")
}

const acGameColumns = `id, name, shortname, has_town, has_tune, has_fruit, has_grass_shapes, has_patterns, has_stores, color`

func (s *Service) registerGames(reg *api.Registry) {
	reg.Register("v1/acgame", api.Schema{
		"id": {Type: api.Number, Required: true},
	}, api.Handle(s.acGame))

	reg.Register("v1/acgames", nil, api.Handle(s.acGames))
	reg.Register("v1/game_consoles", nil, api.Handle(s.gameConsoles))

	reg.Register("v1/games", api.Schema{
		"consoleId": {Type: api.Number, Nullable: true, Min: 1},
	}, api.Handle(s.games))

	reg.Register("v1/admin/game_console/save", api.Schema{
		"id":       {Type: api.Number, Nullable: true, Min: 1},
		"name":     {Type: api.String, Required: true, Length: 50},
		"sequence": {Type: api.Number},
		"active":   {Type: api.Boolean},
	}, api.Handle(s.saveGameConsole), api.Action())
}

func (s *Service) acGame(ctx context.Context, _ *api.Request, p api.Params) (*ACGame, error) {
	if p.Int("id") < 1 {
		return nil, api.NewError("no-such-ac-game")
	}
	rows, err := s.db.Query(ctx, `SELECT `+acGameColumns+` FROM ac_game WHERE id = $1`, p.Int("id"))
	if err != nil {
		return nil, fmt.Errorf("load ac game: %w", err)
	}
	game, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[ACGame])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-ac-game")
	}
	if err != nil {
		return nil, fmt.Errorf("scan ac game: %w", err)
	}
	game.Identifier = gameIdentifier(game.Shortname)
	return &game, nil
}

func (s *Service) acGames(ctx context.Context, _ *api.Request, _ api.Params) ([]ACGame, error) {
	return acccache.CacheQuery(ctx, s.cache, acccache.KeyACGames, 0, func(ctx context.Context) ([]ACGame, error) {
		rows, err := s.db.Query(ctx, `SELECT `+acGameColumns+` FROM ac_game ORDER BY id`)
		if err != nil {
			return nil, fmt.Errorf("load ac games: %w", err)
		}
		games, err := pgx.CollectRows(rows, pgx.RowToStructByName[ACGame])
		if err != nil {
			return nil, fmt.Errorf("scan ac games: %w", err)
		}
		for i := range games {
			games[i].Identifier = gameIdentifier(games[i].Shortname)
		}
		return games, nil
	})
}

func (s *Service) gameConsoles(ctx context.Context, _ *api.Request, _ api.Params) ([]GameConsole, error) {
	return acccache.CacheQuery(ctx, s.cache, acccache.KeyGameConsoles, 0, func(ctx context.Context) ([]GameConsole, error) {
		rows, err := s.db.Query(ctx, `
			SELECT id, name, sequence, is_active
			FROM game_console
			ORDER BY sequence, id`)
		if err != nil {
			return nil, fmt.Errorf("load game consoles: %w", err)
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[GameConsole])
	})
}

// games lists every game, or the games of one console.
func (s *Service) games(ctx context.Context, _ *api.Request, p api.Params) ([]Game, error) {
	all, err := acccache.CacheQuery(ctx, s.cache, acccache.KeyGames, 0, func(ctx context.Context) ([]Game, error) {
		rows, err := s.db.Query(ctx, `
			SELECT id, game_console_id, name, short_name, sequence, is_enabled
			FROM game
			ORDER BY game_console_id, sequence, id`)
		if err != nil {
			return nil, fmt.Errorf("load games: %w", err)
		}
		return pgx.CollectRows(rows, pgx.RowToStructByName[Game])
	})
	if err != nil {
		return nil, err
	}

	consoleID := p.OptInt("consoleId")
	if consoleID == nil {
		return all, nil
	}
	out := []Game{}
	for _, g := range all {
		if g.ConsoleID == *consoleID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Service) saveGameConsole(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "games-admin"); err != nil {
		return Saved{}, err
	}

	id := p.OptInt("id")
	name, sequence, active := p.String("name"), p.Int("sequence"), p.Bool("active")

	var saved Saved
	if id == nil {
		err := s.db.QueryRow(ctx, `
			INSERT INTO game_console (name, sequence, is_active)
			VALUES ($1, $2, $3)
			RETURNING id`, name, sequence, active).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create game console: %w", err)
		}
	} else {
		tag, err := s.db.Exec(ctx, `
			UPDATE game_console SET name = $2, sequence = $3, is_active = $4
			WHERE id = $1`, *id, name, sequence, active)
		if err != nil {
			return Saved{}, fmt.Errorf("update game console: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Saved{}, api.ParamError("no-such-game-console", "id")
		}
		saved.ID = *id
	}

	s.invalidate(ctx, acccache.KeyGameConsoles, acccache.KeyGames)
	return saved, nil
}
