package engine

import (
	"strings"

	"github.com/TimurManjosov/interceptor/internal/rules"
)

// CompareHandler applies one compare operator to an attribute value.
type CompareHandler interface {
	Check(value, target string) bool
}

var compareHandlers = map[rules.Compare]CompareHandler{
	rules.CompareEq:  equalsHandler{},
	rules.CompareNeq: negate{equalsHandler{}},
	rules.CompareIn:  containsHandler{},
	rules.CompareNin: negate{containsHandler{}},
}

func getCompareHandler(c rules.Compare) (CompareHandler, bool) {
	h, ok := compareHandlers[c]
	return h, ok
}

type equalsHandler struct{}

func (equalsHandler) Check(value, target string) bool {
	return value == target
}

// containsHandler implements "in": target is a substring of the value.
type containsHandler struct{}

func (containsHandler) Check(value, target string) bool {
	return strings.Contains(value, target)
}

type negate struct {
	h CompareHandler
}

func (n negate) Check(value, target string) bool {
	return !n.h.Check(value, target)
}
