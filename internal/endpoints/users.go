package endpoints

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
)

const (
	// userSearchLimit caps v1/users results.
	userSearchLimit = 25
	// usernameMaxLength bounds v1/users queries in runes.
	usernameMaxLength = 25
)

type User struct {
	SignupDate time.Time  `json:"signupDate"`
	LastActive *time.Time `json:"lastActive"`
	Username   string     `json:"username"`
	Group      string     `json:"group"`
	ID         int        `json:"id"`
}

func (s *Service) registerUsers(reg *api.Registry) {
	reg.Register(api.PermissionPath, api.Schema{
		"permission": {Type: api.String, Required: true},
	}, api.Handle(s.permission))

	reg.Register("v1/user", api.Schema{
		"id": {Type: api.UserID, Required: true},
	}, api.Handle(s.user))

	reg.Register("v1/users", api.Schema{
		"query": {Type: api.String},
	}, api.Handle(s.users))

	reg.Register("v1/user_group", nil, api.Handle(s.userGroup))

	reg.Register("v1/user/settings/save", api.Schema{
		"showBirthday": {Type: api.Boolean},
		"timezone":     {Type: api.String, Required: true, Length: 64},
	}, s.saveSettings, api.Action())
}

// groupOf returns the caller's group, the guest group for anonymous callers
// and unknown users.
func (s *Service) groupOf(ctx context.Context, userID int) (int, error) {
	var groupID int
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(
			(SELECT user_group_id FROM users WHERE id = $1),
			(SELECT id FROM user_group WHERE identifier = '`+api.GuestGroup+`')
		)`, userID).Scan(&groupID)
	if err != nil {
		return 0, fmt.Errorf("load user group: %w", err)
	}
	return groupID, nil
}

// groupPermissions resolves inherited grants: walking up from the group, the
// nearest explicit row for each permission decides.
func (s *Service) groupPermissions(ctx context.Context, groupID int) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		WITH RECURSIVE ancestry AS (
			SELECT id, parent_id, 0 AS depth FROM user_group WHERE id = $1
			UNION ALL
			SELECT g.id, g.parent_id, a.depth + 1
			FROM user_group g JOIN ancestry a ON g.id = a.parent_id
		)
		SELECT DISTINCT ON (sp.identifier) sp.identifier, gp.granted
		FROM ancestry a
		JOIN user_group_site_permission gp ON gp.user_group_id = a.id
		JOIN site_permission sp ON sp.id = gp.site_permission_id
		ORDER BY sp.identifier, a.depth`, groupID)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	perms := []string{}
	for rows.Next() {
		var (
			identifier string
			granted    bool
		)
		if err := rows.Scan(&identifier, &granted); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		if granted {
			perms = append(perms, identifier)
		}
	}
	return perms, rows.Err()
}

func (s *Service) permission(ctx context.Context, r *api.Request, p api.Params) (bool, error) {
	groupID, err := s.groupOf(ctx, r.UserID)
	if err != nil {
		return false, err
	}
	perms, err := acccache.CacheQuery(ctx, s.cache, acccache.PermissionsKey(groupID), 0,
		func(ctx context.Context) ([]string, error) {
			return s.groupPermissions(ctx, groupID)
		})
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, p.String("permission")), nil
}

func (s *Service) user(ctx context.Context, _ *api.Request, p api.Params) (*User, error) {
	var u User
	err := s.db.QueryRow(ctx, `
		SELECT u.id, u.username, g.identifier, u.signup_date, u.last_active_time
		FROM users u
		JOIN user_group g ON g.id = u.user_group_id
		WHERE u.id = $1`, p.Int("id"),
	).Scan(&u.ID, &u.Username, &u.Group, &u.SignupDate, &u.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-user")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// foldUsername lowercases a search term the way PostgreSQL's lower() treats
// stored usernames.
func foldUsername(q string) string {
	return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(q)))
}

// users is a username prefix search. Anonymous callers always get nothing.
func (s *Service) users(ctx context.Context, r *api.Request, p api.Params) ([]UserRef, error) {
	out := []UserRef{}
	if r.UserID == 0 {
		return out, nil
	}
	query := foldUsername(p.String("query"))
	if query == "" {
		return out, nil
	}
	if utf8.RuneCountInString(query) > usernameMaxLength {
		return nil, api.ParamError(api.CodeBadFormat, "query")
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, username
		FROM users
		WHERE lower(username) LIKE $1 ESCAPE '\'
		ORDER BY username
		LIMIT $2`, likeEscaper.Replace(query)+"%", userSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u UserRef
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Service) userGroup(ctx context.Context, r *api.Request, _ api.Params) (string, error) {
	if r.UserID == 0 {
		return api.GuestGroup, nil
	}
	var identifier string
	err := s.db.QueryRow(ctx, `
		SELECT g.identifier
		FROM users u
		JOIN user_group g ON g.id = u.user_group_id
		WHERE u.id = $1`, r.UserID).Scan(&identifier)
	if errors.Is(err, pgx.ErrNoRows) {
		return api.GuestGroup, nil
	}
	if err != nil {
		return "", fmt.Errorf("load user group: %w", err)
	}
	return identifier, nil
}

func (s *Service) saveSettings(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	timezone := p.String("timezone")
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, api.ParamError(api.CodeBadFormat, "timezone")
	}

	_, err := s.db.Exec(ctx, `
		UPDATE users SET show_birthday = $2, timezone = $3 WHERE id = $1`,
		r.UserID, p.Bool("showBirthday"), timezone)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return nil, nil
}
