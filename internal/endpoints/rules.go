package endpoints

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/acccache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/sanitizer"
)

type Rule struct {
	StartDate   time.Time       `json:"startDate" db:"start_date"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Violations  []RuleViolation `json:"violations" db:"-"`
	ID          int             `json:"id" db:"id"`
	Number      int             `json:"number" db:"number"`
}

type RuleViolation struct {
	Violation  string `json:"violation" db:"violation"`
	ID         int    `json:"id" db:"id"`
	RuleID     int    `json:"-" db:"rule_id"`
	SeverityID int    `json:"severityId" db:"severity_id"`
}

func (s *Service) registerRules(reg *api.Registry) {
	reg.Register("v1/rules", nil, api.Handle(s.rules))

	reg.Register("v1/rule/save", api.Schema{
		"id":          {Type: api.Number, Nullable: true, Min: 1},
		"number":      {Type: api.Number, Required: true, Min: 1},
		"name":        {Type: api.String, Required: true, Length: 100},
		"description": {Type: api.String, Length: 2000},
	}, api.Handle(s.saveRule), api.Action())

	reg.Register("v1/rule/violation/save", api.Schema{
		"ruleId":     {Type: api.RuleID, Required: true},
		"severityId": {Type: api.Number, Required: true, Min: 1, Max: 5},
		"violation":  {Type: api.String, Required: true, Length: 1000},
	}, api.Handle(s.saveViolation), api.Action())

	reg.Register("v1/rule/destroy", api.Schema{
		"id": {Type: api.RuleID, Required: true},
	}, s.destroyRule, api.Action())
}

// rules returns the rules in force, each with its violations.
func (s *Service) rules(ctx context.Context, _ *api.Request, _ api.Params) ([]Rule, error) {
	return acccache.CacheQuery(ctx, s.cache, acccache.KeyRules, 0, s.loadRules)
}

func (s *Service) loadRules(ctx context.Context) ([]Rule, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, number, name, description, start_date
		FROM rule
		WHERE start_date <= now() AND (expiration_date IS NULL OR expiration_date > now())
		ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	rules, err := pgx.CollectRows(rows, pgx.RowToStructByName[Rule])
	if err != nil {
		return nil, fmt.Errorf("scan rules: %w", err)
	}

	ids := make([]int, len(rules))
	byID := make(map[int]*Rule, len(rules))
	for i := range rules {
		rules[i].Violations = []RuleViolation{}
		ids[i] = rules[i].ID
		byID[rules[i].ID] = &rules[i]
	}

	rows, err = s.db.Query(ctx, `
		SELECT id, rule_id, severity_id, violation
		FROM rule_violation
		WHERE rule_id = ANY($1)
		ORDER BY severity_id, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("load violations: %w", err)
	}
	violations, err := pgx.CollectRows(rows, pgx.RowToStructByName[RuleViolation])
	if err != nil {
		return nil, fmt.Errorf("scan violations: %w", err)
	}
	for _, v := range violations {
		if rule, ok := byID[v.RuleID]; ok {
			rule.Violations = append(rule.Violations, v)
		}
	}
	return rules, nil
}

func (s *Service) saveRule(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "modify-rules"); err != nil {
		return Saved{}, err
	}
	number := p.Int("number")
	name := sanitizer.StripHTML(p.String("name"))
	description := sanitizer.StripHTML(p.String("description"))

	var saved Saved
	if id := p.OptInt("id"); id == nil {
		err := s.db.QueryRow(ctx, `
			INSERT INTO rule (number, name, description) VALUES ($1, $2, $3)
			RETURNING id`, number, name, description).Scan(&saved.ID)
		if err != nil {
			return Saved{}, fmt.Errorf("create rule: %w", err)
		}
	} else {
		tag, err := s.db.Exec(ctx, `
			UPDATE rule SET number = $2, name = $3, description = $4 WHERE id = $1`,
			*id, number, name, description)
		if err != nil {
			return Saved{}, fmt.Errorf("update rule: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return Saved{}, api.ParamError("no-such-rule", "id")
		}
		saved.ID = *id
	}

	s.invalidate(ctx, acccache.KeyRules)
	return saved, nil
}

func (s *Service) saveViolation(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "modify-rules"); err != nil {
		return Saved{}, err
	}

	var saved Saved
	err := s.db.QueryRow(ctx, `
		INSERT INTO rule_violation (rule_id, severity_id, violation) VALUES ($1, $2, $3)
		RETURNING id`, p.Int("ruleId"), p.Int("severityId"), sanitizer.StripHTML(p.String("violation")),
	).Scan(&saved.ID)
	if err != nil {
		return Saved{}, fmt.Errorf("create violation: %w", err)
	}

	s.invalidate(ctx, acccache.KeyRules)
	return saved, nil
}

// destroyRule expires the rule; violations stay for past tickets.
func (s *Service) destroyRule(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequirePermission(ctx, "modify-rules"); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(ctx, `UPDATE rule SET expiration_date = now() WHERE id = $1`, p.Int("id")); err != nil {
		return nil, fmt.Errorf("expire rule: %w", err)
	}

	s.invalidate(ctx, acccache.KeyRules)
	return nil, nil
}
