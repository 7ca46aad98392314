package enrollment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLessonProgress(t *testing.T) {
	tests := []struct {
		completed, total, want int
	}{
		{completed: 0, total: 0, want: 0},
		{completed: 3, total: 0, want: 0},
		{completed: 0, total: 4, want: 0},
		{completed: 1, total: 3, want: 33},
		{completed: 2, total: 3, want: 67},
		{completed: 1, total: 2, want: 50},
		{completed: 3, total: 3, want: maxProgressBeforeCompletion},
		{completed: 199, total: 200, want: maxProgressBeforeCompletion},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, lessonProgress(tc.completed, tc.total), "%d/%d", tc.completed, tc.total)
	}
}

func TestEnrollment_HasCompletedLesson(t *testing.T) {
	e := Enrollment{CompletedLessons: []string{"a", "b"}}
	assert.True(t, e.HasCompletedLesson("b"))
	assert.False(t, e.HasCompletedLesson("c"))
	assert.False(t, Enrollment{}.HasCompletedLesson("a"))
}
