package api

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Type tags a parameter's expected shape.
type Type string

const (
	String  Type = "string"
	Number  Type = "number"
	Boolean Type = "boolean"
	Array   Type = "array"
	UUID    Type = "uuid"
	Date    Type = "date"
	JSON    Type = "json"

	// Entity IDs are numbers that must reference an existing row.
	UserID          Type = "userId"
	TownID          Type = "townId"
	CharacterID     Type = "characterId"
	PatternID       Type = "patternId"
	TuneID          Type = "tuneId"
	GuideID         Type = "guideId"
	FeatureID       Type = "featureId"
	PollID          Type = "pollId"
	ShopID          Type = "shopId"
	RuleID          Type = "ruleId"
	SupportTicketID Type = "supportTicketId"
	ACGameID        Type = "acGameId"
)

// DateLayout is the accepted format of Date parameters.
const DateLayout = "2006-01-02"

type entity struct {
	table string
	code  string
}

var entities = map[Type]entity{
	UserID:          {table: "users", code: "no-such-user"},
	TownID:          {table: "town", code: "no-such-town"},
	CharacterID:     {table: "character", code: "no-such-character"},
	PatternID:       {table: "pattern", code: "no-such-pattern"},
	TuneID:          {table: "tune", code: "no-such-tune"},
	GuideID:         {table: "guide", code: "no-such-guide"},
	FeatureID:       {table: "feature", code: "no-such-feature"},
	PollID:          {table: "poll", code: "no-such-poll"},
	ShopID:          {table: "shop", code: "no-such-shop"},
	RuleID:          {table: "rule", code: "no-such-rule"},
	SupportTicketID: {table: "support_ticket", code: "no-such-support-ticket"},
	ACGameID:        {table: "ac_game", code: "no-such-ac-game"},
}

func (t Type) entity() (entity, bool) {
	e, ok := entities[t]
	return e, ok
}

func (t Type) valid() bool {
	switch t {
	case String, Number, Boolean, Array, UUID, Date, JSON:
		return true
	}
	_, ok := t.entity()
	return ok
}

// zero is the value given to optional parameters that were not sent.
func (t Type) zero() any {
	switch t {
	case String:
		return ""
	case Boolean:
		return false
	case Array:
		return []any{}
	case UUID:
		return uuid.Nil
	case Date:
		return time.Time{}
	case JSON:
		return nil
	default:
		return 0
	}
}

// Param describes one parameter.
//
// For numbers Min and Max bound the value; for strings Min and Length bound
// the rune count; for arrays Min and Length bound the item count. Zero means
// unbounded.
type Param struct {
	Default  any
	Type     Type
	Items    Type // element type of an Array, String when empty
	Options  []string
	Min      int
	Max      int
	Length   int
	Required bool
	Nullable bool
}

// Schema maps parameter names to their descriptions.
type Schema map[string]Param

// names returns the parameter names in a stable order so the first reported
// error does not depend on map iteration.
func (s Schema) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
