package endpoints

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

type Poll struct {
	StartDate    time.Time    `json:"startDate"`
	EndDate      time.Time    `json:"endDate"`
	Question     string       `json:"question"`
	Description  string       `json:"description"`
	Options      []PollOption `json:"options"`
	ID           int          `json:"id"`
	Duration     int          `json:"duration"`
	TotalVotes   int          `json:"totalVotes"`
	IsActive     bool         `json:"isActive"`
	UserHasVoted bool         `json:"userHasVoted"`
}

type PollOption struct {
	Description string `json:"description" db:"description"`
	ID          int    `json:"id" db:"id"`
	Sequence    int    `json:"sequence" db:"sequence"`
	Votes       int    `json:"votes" db:"votes"`
}

// pollActive is true while today falls inside the poll's window.
const pollActive = `(p.start_date <= current_date AND p.start_date + p.duration > current_date)`

func (s *Service) registerPolls(reg *api.Registry) {
	reg.Register("v1/poll", api.Schema{
		"id": {Type: api.PollID, Required: true},
	}, api.Handle(s.poll))

	reg.Register("v1/poll/current", nil, api.Handle(s.currentPoll))

	reg.Register("v1/poll/vote", api.Schema{
		"id":       {Type: api.PollID, Required: true},
		"optionId": {Type: api.Number, Required: true, Min: 1},
	}, s.vote, api.Action())

	reg.Register("v1/poll/save", api.Schema{
		"id":          {Type: api.Number, Nullable: true, Min: 1},
		"question":    {Type: api.String, Required: true, Length: 200},
		"description": {Type: api.String, Length: 2000},
		"startDate":   {Type: api.Date, Required: true},
		"duration":    {Type: api.Number, Default: 7, Min: 1, Max: 31},
		"options":     {Type: api.Array, Items: api.String, Required: true, Min: 2, Length: 20},
	}, api.Handle(s.savePoll), api.Action())
}

// poll loads the poll, its tallies and the caller's vote concurrently.
func (s *Service) poll(ctx context.Context, r *api.Request, p api.Params) (*Poll, error) {
	id := p.Int("id")

	var (
		poll    Poll
		options []PollOption
		voted   bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.db.QueryRow(gctx, `
			SELECT p.id, p.question, p.description, p.start_date, p.duration, `+pollActive+`
			FROM poll p
			WHERE p.id = $1`, id,
		).Scan(&poll.ID, &poll.Question, &poll.Description, &poll.StartDate, &poll.Duration, &poll.IsActive)
		if errors.Is(err, pgx.ErrNoRows) {
			return api.NewError("no-such-poll")
		}
		if err != nil {
			return fmt.Errorf("load poll: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		rows, err := s.db.Query(gctx, `
			SELECT o.id, o.description, o.sequence, count(v.user_id)::int AS votes
			FROM poll_option o
			LEFT JOIN poll_vote v ON v.poll_option_id = o.id
			WHERE o.poll_id = $1
			GROUP BY o.id
			ORDER BY o.sequence`, id)
		if err != nil {
			return fmt.Errorf("load poll options: %w", err)
		}
		options, err = pgx.CollectRows(rows, pgx.RowToStructByName[PollOption])
		return err
	})
	g.Go(func() error {
		if r.UserID == 0 {
			return nil
		}
		var err error
		voted, err = db.Exists(gctx, s.db, `SELECT 1 FROM poll_vote WHERE poll_id = $1 AND user_id = $2`, id, r.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	poll.EndDate = poll.StartDate.AddDate(0, 0, poll.Duration)
	poll.Options = options
	poll.UserHasVoted = voted
	for _, o := range options {
		poll.TotalVotes += o.Votes
	}
	return &poll, nil
}

// currentPoll returns the running poll, or nil between polls.
func (s *Service) currentPoll(ctx context.Context, r *api.Request, _ api.Params) (*Poll, error) {
	var id int
	err := s.db.QueryRow(ctx, `
		SELECT p.id FROM poll p
		WHERE `+pollActive+`
		ORDER BY p.start_date DESC
		LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load current poll: %w", err)
	}
	return api.QueryAs[*Poll](ctx, r, "v1/poll", map[string]any{"id": id})
}

func (s *Service) vote(ctx context.Context, r *api.Request, p api.Params) (any, error) {
	if err := r.RequireUser(); err != nil {
		return nil, err
	}
	id, optionID := p.Int("id"), p.Int("optionId")

	var active, validOption bool
	err := s.db.QueryRow(ctx, `
		SELECT `+pollActive+`,
		       EXISTS (SELECT 1 FROM poll_option o WHERE o.id = $2 AND o.poll_id = p.id)
		FROM poll p
		WHERE p.id = $1`, id, optionID).Scan(&active, &validOption)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, api.NewError("no-such-poll")
	}
	if err != nil {
		return nil, fmt.Errorf("load poll: %w", err)
	}
	if !active {
		return nil, api.NewError("poll-closed")
	}
	if !validOption {
		return nil, api.ParamError("no-such-poll-option", "optionId")
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO poll_vote (poll_id, poll_option_id, user_id) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`, id, optionID, r.UserID)
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, api.NewError("already-voted")
	}
	return nil, nil
}

// savePoll replaces the poll and its options. Polls with votes are frozen.
func (s *Service) savePoll(ctx context.Context, r *api.Request, p api.Params) (Saved, error) {
	if err := r.RequirePermission(ctx, "polls-admin"); err != nil {
		return Saved{}, err
	}
	question, description := p.String("question"), p.String("description")
	startDate, duration := p.Date("startDate"), p.Int("duration")
	options := p.Strings("options")

	var saved Saved
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		id := p.OptInt("id")
		if id == nil {
			err := tx.QueryRow(ctx, `
				INSERT INTO poll (question, description, start_date, duration)
				VALUES ($1, $2, $3, $4)
				RETURNING id`, question, description, startDate, duration).Scan(&saved.ID)
			if err != nil {
				return err
			}
		} else {
			hasVotes, err := db.Exists(ctx, tx, `SELECT 1 FROM poll_vote WHERE poll_id = $1`, *id)
			if err != nil {
				return err
			}
			if hasVotes {
				return api.NewError("poll-has-votes")
			}
			tag, err := tx.Exec(ctx, `
				UPDATE poll SET question = $2, description = $3, start_date = $4, duration = $5
				WHERE id = $1`, *id, question, description, startDate, duration)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return api.ParamError("no-such-poll", "id")
			}
			if _, err := tx.Exec(ctx, `DELETE FROM poll_option WHERE poll_id = $1`, *id); err != nil {
				return err
			}
			saved.ID = *id
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO poll_option (poll_id, description, sequence)
			SELECT $1, o.description, o.sequence
			FROM unnest($2::text[]) WITH ORDINALITY AS o(description, sequence)`, saved.ID, options)
		return err
	})
	if err != nil {
		if _, ok := api.AsUserError(err); ok {
			return Saved{}, err
		}
		return Saved{}, fmt.Errorf("save poll: %w", err)
	}
	return saved, nil
}
