package classify

import "strings"

// Route is the downstream handling a question is assigned to.
type Route int

const (
	// RouteExamDates answers directly from the structured exam-date list.
	RouteExamDates Route = iota
	// RouteAssignmentDeadlines answers from the assignment-deadline list.
	RouteAssignmentDeadlines
	// RouteFactual retrieves broadly with no conversation history attached.
	RouteFactual
	// RouteConversational retrieves with history-aware query rewriting.
	RouteConversational
)

func (r Route) String() string {
	switch r {
	case RouteExamDates:
		return "exam_dates"
	case RouteAssignmentDeadlines:
		return "assignment_deadlines"
	case RouteFactual:
		return "factual"
	case RouteConversational:
		return "conversational"
	}
	return "unknown"
}

// IsStructuredDate reports whether the route bypasses retrieval entirely.
func (r Route) IsStructuredDate() bool {
	return r == RouteExamDates || r == RouteAssignmentDeadlines
}

// datePredicate matches when the question contains the anchor keyword
// together with any of the trigger keywords.
type datePredicate struct {
	route    Route
	anchor   string
	triggers []string
}

// Structured lookups are checked first: dates must never be answered by the
// language model.
var datePredicates = []datePredicate{
	{RouteExamDates, "exam", []string{"date", "when"}},
	{RouteAssignmentDeadlines, "assignment", []string{"deadline", "due"}},
}

// factualKeywords signal definitional or explanatory intent; such questions
// are answered without conversation history attached.
var factualKeywords = []string{
	"explain",
	"define",
	"what is",
	"what are",
	"types of",
	"advantages",
	"disadvantages",
	"architecture",
	"difference between",
	"how does",
	"list the",
}

// Classify assigns a route to a question using case-insensitive keyword
// matching. It is a pure function: same input, same route.
func Classify(question string) Route {
	q := strings.ToLower(question)

	for _, p := range datePredicates {
		if !strings.Contains(q, p.anchor) {
			continue
		}
		for _, trigger := range p.triggers {
			if strings.Contains(q, trigger) {
				return p.route
			}
		}
	}

	for _, kw := range factualKeywords {
		if strings.Contains(q, kw) {
			return RouteFactual
		}
	}

	return RouteConversational
}
