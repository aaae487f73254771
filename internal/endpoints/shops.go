package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/sanitizer"
)

type Shop struct {
	Created     time.Time `json:"created"`
	Owner       UserRef   `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ID          int       `json:"id"`
	Active      bool      `json:"active"`
}

const shopOwnerQuery = `SELECT user_id FROM shop WHERE id = $1`

func (s *Service) registerShops(reg *api.Registry) {
	reg.Register("v1/shop", api.Schema{
		"id": {Type: api.ShopID, Required: true},
	}, api.Handle(s.shop))

	reg.Register("v1/shop/save", api.Schema{
		"id":          {Type: api.Number, Nullable: true, Min: 1},
		"name":        {Type: api.String, Required: true, Length: 50},
		"description": {Type: api.String, Length: 2000},
		"active":      {Type: api.Boolean},
	}, api.Handle(s.saveShop), api.Action())

	reg.Register("v1/shop/destroy", api.Schema{
		"id": {Type: api.ShopID, Required: true},
	}, s.destroyShop, api.Action())
}

func (s *Service) shop(ctx context.Context, _ *api.Request, p api.Params) (*Shop, error) {
	var sh Shop
	err := s.db.QueryRow(ctx, `
		SELECT s.id, s.name, s.description, s.active, s.created, u.id, u.username
		FROM shop s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, p.Int("id"),
	).Scan(&sh.ID, &sh.Name, &sh.Description, &sh.Active, &sh.Created, &sh.Owner.ID, &sh.Owner.Username)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-shop")
	}
	if err != nil {
		return nil, fmt.Errorf("load shop: %w", err)
	}
	return &sh, nil
}

func (s *Service) saveShop(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequireUser(); err != nil {
		return Saved{}, err
	}
	name := sanitizer.StripHTML(p.String("name"))
	description := sanitizer.StripHTML(p.String("description"))
	if name == "" {
		return Saved{}, api.ParamError(api.CodeBadFormat, "name")
	}

	id := p.OptInt("id")
	if id == nil {
		var saved Saved
		err := s.db.QueryRow(ctx, `
			INSERT INTO shop (user_id, name, description, active) VALUES ($1, $2, $3, $4)
			RETURNING id`, r.UserID, name, description, p.Bool("active")).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create shop: %w", err)
		}
		return saved, nil
	}

	if err := s.requireOwner(ctx, r, shopOwnerQuery, *id, "no-such-shop"); err != nil {
		return Saved{}, err
	}
	_, err := s.db.Exec(ctx, `
		UPDATE shop SET name = $2, description = $3, active = $4 WHERE id = $1`,
		*id, name, description, p.Bool("active"))
	if err != nil {
		return Saved{}, fmt.Errorf("update shop: %w", err)
	}
	return Saved{ID: *id}, nil
}

func (s *Service) destroyShop(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id := p.Int("id")
	if err := s.requireOwner(ctx, r, shopOwnerQuery, id, "no-such-shop"); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM shop WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("destroy shop: %w", err)
	}
	return nil, nil
}
