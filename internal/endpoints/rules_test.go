package endpoints_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/api"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/internal/endpoints"
)

func TestRules(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	e.mock.ExpectQuery(regexp.QuoteMeta("FROM rule WHERE start_date <= now()")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "number", "name", "description", "start_date"}).
			AddRow(1, 1, "Be kind", "", start).
			AddRow(2, 2, "No spam", "", start))
	e.mock.ExpectQuery(regexp.QuoteMeta("FROM rule_violation")).WithArgs([]int{1, 2}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "rule_id", "severity_id", "violation"}).
			AddRow(10, 2, 1, "Advertising").
			AddRow(11, 2, 3, "Chain posting"))

	for range 2 {
		res, err := e.call(0, "v1/rules", nil)
		require.NoError(t, err)
		rules, ok := res.([]endpoints.Rule)
		require.True(t, ok)
		require.Len(t, rules, 2)
		assert.Empty(t, rules[0].Violations)
		require.Len(t, rules[1].Violations, 2)
		assert.Equal(t, "Chain posting", rules[1].Violations[1].Violation)
		assert.Equal(t, 3, rules[1].Violations[1].SeverityID)
	}
	e.done(t)
}

func TestDestroyRuleInvalidates(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	current := regexp.QuoteMeta("FROM rule WHERE start_date <= now()")
	violations := regexp.QuoteMeta("FROM rule_violation")
	ruleCols := []string{"id", "number", "name", "description", "start_date"}
	violationCols := []string{"id", "rule_id", "severity_id", "violation"}

	e.mock.ExpectQuery(current).
		WillReturnRows(pgxmock.NewRows(ruleCols).AddRow(2, 1, "No spam", "", time.Now()))
	e.mock.ExpectQuery(violations).WithArgs([]int{2}).WillReturnRows(pgxmock.NewRows(violationCols))

	res, err := e.call(0, "v1/rules", nil)
	require.NoError(t, err)
	require.Len(t, res, 1)

	e.expectExists("rule", 2, true)
	e.expectPermissions(1, adminGroup, "modify-rules")
	e.mock.ExpectExec(regexp.QuoteMeta("UPDATE rule SET expiration_date = now() WHERE id = $1")).WithArgs(2).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	e.mock.ExpectQuery(current).WillReturnRows(pgxmock.NewRows(ruleCols))
	e.mock.ExpectQuery(violations).WithArgs([]int{}).WillReturnRows(pgxmock.NewRows(violationCols))

	_, err = e.call(1, "v1/rule/destroy", map[string]any{"id": 2})
	require.NoError(t, err)

	res, err = e.call(0, "v1/rules", nil)
	require.NoError(t, err)
	assert.Empty(t, res)
	e.done(t)
}

func TestSaveViolationSeverity(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.expectExists("rule", 2, true)

	_, err := e.call(1, "v1/rule/violation/save", map[string]any{"ruleId": 2, "severityId": 6, "violation": "x"})
	requireUserError(t, err, api.CodeBadFormat)
	e.done(t)
}
