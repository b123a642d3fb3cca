package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		question string
		want     Route
	}{
		{"When is the exam?", RouteExamDates},
		{"exam DATE for second semester", RouteExamDates},
		{"What is the deadline for the assignment?", RouteAssignmentDeadlines},
		{"is the assignment due tomorrow", RouteAssignmentDeadlines},
		{"Explain gradient descent", RouteFactual},
		{"what is normalization in DBMS", RouteFactual},
		{"Types of operating systems", RouteFactual},
		{"Difference between TCP and UDP", RouteFactual},
		{"Can you elaborate on that?", RouteConversational},
		{"and the second one?", RouteConversational},
		{"thanks, that helps", RouteConversational},
	}

	for _, tc := range cases {
		t.Run(tc.question, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.question))
		})
	}
}

func TestDateRoutesTakePriorityOverFactual(t *testing.T) {
	// "what is" alone would be factual; the exam/date pair wins.
	assert.Equal(t, RouteExamDates, Classify("what is the date of the exam"))
	assert.Equal(t, RouteAssignmentDeadlines, Classify("explain when the assignment is due"))
}

func TestAnchorWithoutTriggerFallsThrough(t *testing.T) {
	// "exam" with no date/when trigger is not a structured lookup.
	assert.Equal(t, RouteConversational, Classify("I am worried about the exam"))
}

func TestIsStructuredDate(t *testing.T) {
	assert.True(t, RouteExamDates.IsStructuredDate())
	assert.True(t, RouteAssignmentDeadlines.IsStructuredDate())
	assert.False(t, RouteFactual.IsStructuredDate())
	assert.False(t, RouteConversational.IsStructuredDate())
}
