// Package inmemdb implements the repositories in memory. It backs the tests and keeps the semantics of the
// Postgres repositories: unique constraints, conditional updates and serialized certificate numbering.
package inmemdb

import (
	"sort"
	"sync"
	"time"

	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/audit"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/session"
	"github.com/trezcool/sejali/core/user"
)

// DB holds every table behind a single lock. Rows are kept in insertion order.
type DB struct {
	mutex sync.RWMutex

	users        []*user.User
	profiles     []*user.Profile
	sessions     map[string]*session.Session
	activities   []*activity.Activity
	courses      []*course.Course
	lessons      []*course.Lesson
	quizzes      []*course.Quiz
	questions    []*course.Question
	attempts     []*course.Attempt
	submissions  []*course.Submission
	enrollments  []*enrollment.Enrollment
	progress     []*enrollment.LessonProgress
	certificates []*certificate.Certificate
	auditLog     []*audit.Entry

	lastCertificateNumber int64
}

func Open() *DB {
	return &DB{sessions: make(map[string]*session.Session)}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.users, db.profiles = nil, nil
	db.sessions = make(map[string]*session.Session)
	db.activities = nil
	db.courses, db.lessons, db.quizzes, db.questions, db.attempts, db.submissions = nil, nil, nil, nil, nil, nil
	db.enrollments, db.progress = nil, nil
	db.certificates, db.lastCertificateNumber = nil, 0
	db.auditLog = nil
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append(make([]string, 0, len(ss)), ss...)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	tt := *t
	return &tt
}

// newestFirst sorts rows by their timestamp, latest inserted first on ties.
func newestFirst[T any](rows []*T, at func(*T) time.Time) []T {
	sorted := make([]T, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		sorted = append(sorted, *rows[i])
	}
	sort.SliceStable(sorted, func(i, j int) bool { return at(&sorted[i]).After(at(&sorted[j])) })
	return sorted
}

func (db *DB) findUser(id string) *user.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *DB) findProfile(userID string) *user.Profile {
	for _, p := range db.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (db *DB) userName(id string) string {
	if u := db.findUser(id); u != nil {
		return u.Name()
	}
	return ""
}
