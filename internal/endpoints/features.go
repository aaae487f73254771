package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/sanitizer"
)

// featuresPerPage is the v1/features page size.
const featuresPerPage = 25

type Feature struct {
	Created     time.Time `json:"created"`
	User        UserRef   `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	ID          int       `json:"id"`
	CategoryID  int       `json:"categoryId"`
	Followed    bool      `json:"followed"`
}

type FeaturePage struct {
	Results    []Feature `json:"results"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalCount int       `json:"totalCount"`
}

// Follow is the state after a feature/follow toggle.
type Follow struct {
	Followed bool `json:"followed"`
}

const featureSelect = `
	SELECT f.id, f.title, f.description, f.status, f.category_id, f.created,
	       u.id, u.username,
	       EXISTS (SELECT 1 FROM feature_follow ff WHERE ff.feature_id = f.id AND ff.user_id = $1)`

func scanFeature(row pgx.Row, extra ...any) (Feature, error) {
	var f Feature
	dest := append([]any{
		&f.ID, &f.Title, &f.Description, &f.Status, &f.CategoryID, &f.Created,
		&f.User.ID, &f.User.Username, &f.Followed,
	}, extra...)
	err := row.Scan(dest...)
	return f, err
}

func (s *Service) registerFeatures(reg *api.Registry) {
	reg.Register("v1/feature", api.Schema{
		"id": {Type: api.FeatureID, Required: true},
	}, api.Handle(s.feature))

	reg.Register("v1/features", api.Schema{
		"page": {Type: api.Number, Default: 1, Min: 1},
	}, api.Handle(s.features))

	reg.Register("v1/feature/save", api.Schema{
		"title":       {Type: api.String, Required: true, Length: 100},
		"description": {Type: api.String, Required: true, Length: 4000},
		"categoryId":  {Type: api.Number, Required: true, Min: 1},
	}, api.Handle(s.saveFeature), api.Action())

	reg.Register("v1/feature/follow", api.Schema{
		"id": {Type: api.FeatureID, Required: true},
	}, api.Handle(s.followFeature), api.Action())
}

func (s *Service) feature(ctx context.Context, r *api.Request, p api.Params) (*Feature, error) {
	f, err := scanFeature(s.db.QueryRow(ctx, featureSelect+`
		FROM feature f
		JOIN users u ON u.id = f.user_id
		WHERE f.id = $2`, r.UserID, p.Int("id")))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-feature")
	}
	if err != nil {
		return nil, fmt.Errorf("load feature: %w", err)
	}
	return &f, nil
}

func (s *Service) features(ctx context.Context, r *api.Request, p api.Params) (FeaturePage, error) {
	page := p.Int("page")
	rows, err := s.db.Query(ctx, featureSelect+`, count(*) OVER ()
		FROM feature f
		JOIN users u ON u.id = f.user_id
		ORDER BY f.created DESC, f.id DESC
		LIMIT $2 OFFSET $3`, r.UserID, featuresPerPage, (page-1)*featuresPerPage)
	if err != nil {
		return FeaturePage{}, fmt.Errorf("load features: %w", err)
	}
	defer rows.Close()

	out := FeaturePage{Results: []Feature{}, Page: page, PageSize: featuresPerPage}
	for rows.Next() {
		var total int64
		f, err := scanFeature(rows, &total)
		if err != nil {
			return FeaturePage{}, fmt.Errorf("scan feature: %w", err)
		}
		out.TotalCount = int(total)
		out.Results = append(out.Results, f)
	}
	return out, rows.Err()
}

// saveFeature creates a suggestion; its author follows it.
func (s *Service) saveFeature(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequireUser(); err != nil {
		return Saved{}, err
	}
	if err := r.RequirePermission(ctx, "suggest-features"); err != nil {
		return Saved{}, err
	}
	title := sanitizer.StripHTML(p.String("title"))
	description := sanitizer.SanitizeHTML(p.String("description"))
	if title == "" {
		return Saved{}, api.ParamError(api.CodeBadFormat, "title")
	}

	var saved Saved
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO feature (user_id, category_id, title, description) VALUES ($1, $2, $3, $4)
			RETURNING id`, r.UserID, p.Int("categoryId"), title, description).Scan(&saved.ID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO feature_follow (feature_id, user_id) VALUES ($1, $2)`, saved.ID, r.UserID)
		return err
	})
	if err != nil {
		return Saved{}, fmt.Errorf("create feature: %w", err)
	}
	return saved, nil
}

func (s *Service) followFeature(ctx context.Context, r *api.Request, p api.Params) (Follow, error) {
	if err := r.RequireUser(); err != nil {
		return Follow{}, err
	}
	id := p.Int("id")

	tag, err := s.db.Exec(ctx, `DELETE FROM feature_follow WHERE feature_id = $1 AND user_id = $2`, id, r.UserID)
	if err != nil {
		return Follow{}, fmt.Errorf("unfollow feature: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return Follow{Followed: false}, nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO feature_follow (feature_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, id, r.UserID)
	if err != nil {
		return Follow{}, fmt.Errorf("follow feature: %w", err)
	}
	return Follow{Followed: true}, nil
}
