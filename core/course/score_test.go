package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	questions := func(correct ...int) []Question {
		qs := make([]Question, 0, len(correct))
		for i, c := range correct {
			qs = append(qs, Question{OrderIndex: i, CorrectAnswer: c})
		}
		return qs
	}

	tests := []struct {
		name         string
		questions    []Question
		answers      []int
		passingScore int
		wantScore    int
		wantPassed   bool
	}{
		{name: "no questions", questions: nil, answers: []int{0}, passingScore: 60, wantScore: 0, wantPassed: false},
		{name: "all correct", questions: questions(1, 0, 2), answers: []int{1, 0, 2}, passingScore: 60, wantScore: 100, wantPassed: true},
		{name: "none correct", questions: questions(1, 0), answers: []int{0, 1}, passingScore: 60, wantScore: 0, wantPassed: false},
		{name: "rounds to nearest", questions: questions(1, 0, 2), answers: []int{1, 0, 0}, passingScore: 60, wantScore: 67, wantPassed: true},
		{name: "rounds down", questions: questions(1, 0, 2), answers: []int{1, 1, 1}, passingScore: 60, wantScore: 33, wantPassed: false},
		{name: "missing answers are wrong", questions: questions(1, 0, 2, 3), answers: []int{1, 0}, passingScore: 50, wantScore: 50, wantPassed: true},
		{name: "extra answers are ignored", questions: questions(1, 0), answers: []int{1, 1, 1, 1}, passingScore: 60, wantScore: 50, wantPassed: false},
		{name: "no answers", questions: questions(1, 0), answers: nil, passingScore: 60, wantScore: 0, wantPassed: false},
		{name: "exact passing score", questions: questions(0, 0, 0, 0, 0), answers: []int{0, 0, 0, 1, 1}, passingScore: 60, wantScore: 60, wantPassed: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score, passed := Score(tc.questions, tc.answers, tc.passingScore)
			assert.Equal(t, tc.wantScore, score)
			assert.Equal(t, tc.wantPassed, passed)
		})
	}
}
