package edit

import (
	"fmt"

	"github.com/TimurManjosov/interceptor/internal/store"
)

// Format renders a rule set as "[id] [name - mode - on|off]". The full form
// appends its conditions.
func Format(rs store.RuleSet, full bool) string {
	state := "off"
	if rs.Enabled {
		state = "on"
	}
	s := fmt.Sprintf("[%d] [%s - %s - %s]", rs.ID, rs.Name, rs.Mode, state)
	if !full {
		return s
	}
	if len(rs.Rule) == 0 {
		return s + " rules: [none]"
	}
	return s + " rules: [" + rs.Rule.String() + "]"
}
