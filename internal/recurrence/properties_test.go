package recurrence

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/calplan/internal/model"
)

var kinds = []model.RecurrenceKind{
	model.RecurrenceDaily,
	model.RecurrenceWeekly,
	model.RecurrenceWeekdays,
	model.RecurrenceCustom,
}

func randomRule(rng *rand.Rand, base model.Date) *model.RecurrenceRule {
	rule := &model.RecurrenceRule{
		Kind:     kinds[rng.IntN(len(kinds))],
		Interval: 1 + rng.IntN(4),
	}
	if rng.IntN(2) == 0 {
		rule.EndDate = mo.Some(base.AddDays(rng.IntN(120) - 10))
	}
	for i := rng.IntN(6); i > 0; i-- {
		rule.Exceptions = append(rule.Exceptions, base.AddDays(rng.IntN(90)))
	}
	return rule
}

func TestExpandProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	origin := model.MustParseDate("2024-01-01")
	exp := Expander{}

	for i := 0; i < 300; i++ {
		base := baseEvent("tpl", "2024-01-01")
		base.Date = origin.AddDays(rng.IntN(60))
		rule := randomRule(rng, base.Date)

		innerStart := origin.AddDays(rng.IntN(90))
		innerEnd := innerStart.AddDays(rng.IntN(45))
		outerStart := innerStart.AddDays(-rng.IntN(30))
		outerEnd := innerEnd.AddDays(rng.IntN(30))

		first, err := exp.Expand(base, rule, innerStart, innerEnd)
		require.NoError(t, err)
		second, err := exp.Expand(base, rule, innerStart, innerEnd)
		require.NoError(t, err)
		require.True(t, reflect.DeepEqual(first, second), "expansion must be idempotent")

		outer, err := exp.Expand(base, rule, outerStart, outerEnd)
		require.NoError(t, err)
		outerSet := make(map[model.OccurrenceID]bool, len(outer.Occurrences))
		for _, occ := range outer.Occurrences {
			outerSet[occ.ID] = true
		}

		for j, occ := range first.Occurrences {
			assert.True(t, outerSet[occ.ID], "occurrence %s missing from wider window", occ.ID)
			assert.False(t, rule.Excludes(occ.Date()), "excluded date %s was emitted", occ.Date())
			assert.False(t, occ.Date().Before(innerStart) || occ.Date().After(innerEnd), "occurrence %s outside window", occ.Date())
			if j > 0 {
				assert.True(t, first.Occurrences[j-1].Date().Before(occ.Date()), "occurrences must be strictly ascending")
			}
		}
	}
}

func TestExpandMatchesRRuleSet(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	origin := model.MustParseDate("2024-01-01") // Monday

	for i := 0; i < 100; i++ {
		base := baseEvent("tpl", "2024-01-01")
		// rrule never yields a DTSTART that misses BYDAY, so keep bases on weekdays.
		base.Date = origin.AddWeeks(rng.IntN(8)).AddDays(rng.IntN(5))
		rule := randomRule(rng, base.Date)
		windowStart := origin.AddDays(rng.IntN(60))
		windowEnd := windowStart.AddDays(rng.IntN(60))

		res, err := Expander{}.Expand(base, rule, windowStart, windowEnd)
		require.NoError(t, err)

		set, err := toSet(base.Date, *rule)
		require.NoError(t, err)
		var want []string
		for _, tm := range set.Between(windowStart.Time(), windowEnd.Time(), true) {
			want = append(want, model.DateOf(tm).String())
		}

		got := dates(res)
		if len(want) == 0 {
			want = []string{}
		}
		require.Equal(t, want, got, "rule %+v base %s window %s..%s", *rule, base.Date, windowStart, windowEnd)
	}
}

func TestRRuleString(t *testing.T) {
	rule := model.RecurrenceRule{
		Kind:     model.RecurrenceWeekdays,
		Interval: 4,
		EndDate:  mo.Some(model.MustParseDate("2024-03-29")),
	}
	s, err := RRuleString(model.MustParseDate("2024-03-01"), rule)
	require.NoError(t, err)
	assert.Contains(t, s, "FREQ=DAILY")
	assert.Contains(t, s, "BYDAY=MO,TU,WE,TH,FR")
	assert.Contains(t, s, "UNTIL=20240329T235959Z")
	assert.NotContains(t, s, "INTERVAL=4")

	_, err = RRuleString(model.MustParseDate("2024-03-01"), model.RecurrenceRule{Kind: model.RecurrenceWeekly})
	require.ErrorIs(t, err, model.ErrInvalidRule)
}

// toSet is the rrule-go reference for a rule: its RRULE plus one EXDATE per
// exception.
func toSet(base model.Date, rule model.RecurrenceRule) (*rrule.Set, error) {
	r, err := ToRRule(base, rule)
	if err != nil {
		return nil, err
	}
	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range rule.Exceptions {
		set.ExDate(ex.Time())
	}
	return set, nil
}
