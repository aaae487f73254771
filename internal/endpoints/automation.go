package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
)

// registerAutomation adds the handlers end-to-end tests use to set up
// users. They are never registered on the live site.
func (s *Service) registerAutomation(reg *api.Registry) {
	reg.Register("v1/automation/login", api.Schema{
		"id": {Type: api.UserID, Required: true},
	}, api.Handle(s.automationLogin), api.Action())

	reg.Register("v1/automation/user_group", api.Schema{
		"id":              {Type: api.UserID, Required: true},
		"groupIdentifier": {Type: api.String, Required: true},
	}, s.automationUserGroup, api.Action())
}

func (s *Service) automationLogin(_ context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.Login(p.Int("id")); err != nil {
		return Saved{}, err
	}
	return Saved{ID: r.UserID}, nil
}

func (s *Service) automationUserGroup(ctx context.Context, _ *api.Request, p api.Params) (any, error) {
	userID := p.Int("id")

	var groupID int
	err := s.db.QueryRow(ctx, `SELECT id FROM user_group WHERE identifier = $1`, p.String("groupIdentifier")).Scan(&groupID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.ParamError("no-such-user-group", "groupIdentifier")
	}
	if err != nil {
		return nil, fmt.Errorf("load group: %w", err)
	}

	var oldGroupID int
	err = s.db.QueryRow(ctx, `
		UPDATE users u SET user_group_id = $2
		FROM users prev
		WHERE u.id = $1 AND prev.id = u.id
		RETURNING prev.user_group_id`, userID, groupID).Scan(&oldGroupID)
	if err != nil {
		return nil, fmt.Errorf("move user: %w", err)
	}

	s.invalidate(ctx, acccache.PermissionsKey(oldGroupID), acccache.PermissionsKey(groupID))
	return nil, nil
}
