package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sejali/core"
	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/user"
)

type fakeStreamer struct {
	enabled  bool
	chunks   []string
	messages []Message
}

func (fs *fakeStreamer) Enabled() bool { return fs.enabled }

func (fs *fakeStreamer) Stream(_ context.Context, messages []Message, onChunk func(string) error) error {
	fs.messages = messages
	for _, c := range fs.chunks {
		if err := onChunk(c); err != nil {
			return err
		}
	}
	return nil
}

type fakeRecords struct {
	usr         user.User
	profile     user.Profile
	activities  []activity.Activity
	courses     []course.Course
	enrollments []enrollment.Enrollment
	users       []user.UserWithProfile
}

func (fr *fakeRecords) GetByID(context.Context, string) (user.User, error) { return fr.usr, nil }

func (fr *fakeRecords) GetProfile(context.Context, string) (user.Profile, error) {
	if fr.profile.UserID == "" {
		return user.Profile{}, errors.Wrap(user.ErrProfileNotFound, "getting profile")
	}
	return fr.profile, nil
}

func (fr *fakeRecords) QueryWithProfiles(context.Context) ([]user.UserWithProfile, error) {
	return fr.users, nil
}

func (fr *fakeRecords) Query(context.Context, activity.QueryFilter, []core.DBOrdering) ([]activity.Activity, error) {
	return fr.activities, nil
}

func (fr *fakeRecords) QueryPublished(context.Context) ([]course.Course, error) {
	var published []course.Course
	for _, c := range fr.courses {
		if c.IsPublished {
			published = append(published, c)
		}
	}
	return published, nil
}

func (fr *fakeRecords) QueryAll(context.Context) ([]course.Course, error) { return fr.courses, nil }

type (
	activityRecords    struct{ *fakeRecords }
	enrollmentRecords  struct{ *fakeRecords }
	certificateRecords struct{ *fakeRecords }
)

func (ar activityRecords) QueryByUser(context.Context, string) ([]activity.Activity, error) {
	return ar.activities, nil
}

func (er enrollmentRecords) QueryByUser(context.Context, string) ([]enrollment.Enrollment, error) {
	return er.enrollments, nil
}

func (certificateRecords) QueryByUser(context.Context, string) ([]certificate.Certificate, error) {
	return []certificate.Certificate{{ID: "cert-1"}}, nil
}

func newTestService(streamer Streamer, fr *fakeRecords) *Service {
	return NewService(streamer, fr, activityRecords{fr}, fr, enrollmentRecords{fr}, certificateRecords{fr})
}

func newRecords() *fakeRecords {
	return &fakeRecords{
		usr: user.User{ID: "u1", FirstName: "Sara", LastName: "Ali"},
		activities: []activity.Activity{
			{Type: activity.TypeVolunteerWork, Hours: 30, Status: activity.StatusApproved},
			{Type: activity.TypeAwards, Hours: 2, Status: activity.StatusSubmitted},
		},
		courses: []course.Course{
			{ID: "c1", TitleAr: "البرمجة", TitleEn: "Programming", Duration: 12, IsPublished: true, InstructorID: "u1"},
			{ID: "c2", TitleAr: "التصميم", Duration: 6, IsPublished: true, InstructorID: "u9"},
			{ID: "c3", TitleAr: "مسودة", TitleEn: "Draft course", Duration: 4, InstructorID: "u1"},
		},
		enrollments: []enrollment.Enrollment{{CourseID: "c1", IsCompleted: true}},
	}
}

func TestService_Chat(t *testing.T) {
	ctx := context.Background()
	req := ChatRequest{Message: "What should I do next?", Language: English}

	t.Run("not configured", func(t *testing.T) {
		svc := newTestService(&fakeStreamer{}, newRecords())
		err := svc.Chat(ctx, user.CapabilitiesFor(user.RoleStudent), "u1", req, func(string) error { return nil })
		assert.Equal(t, ErrNotConfigured, err)

		svc = newTestService(nil, newRecords())
		assert.False(t, svc.Enabled())
	})

	t.Run("streams the reply", func(t *testing.T) {
		streamer := &fakeStreamer{enabled: true, chunks: []string{"Hello", " Sara"}}
		svc := newTestService(streamer, newRecords())

		var reply strings.Builder
		err := svc.Chat(ctx, user.CapabilitiesFor(user.RoleStudent), "u1", req, func(c string) error {
			reply.WriteString(c)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Hello Sara", reply.String())

		require.Len(t, streamer.messages, 2)
		assert.Equal(t, RoleSystem, streamer.messages[0].Role)
		assert.Equal(t, Message{Role: RoleUser, Content: req.Message}, streamer.messages[1])

		prompt := streamer.messages[0].Content
		assert.Contains(t, prompt, "Always respond in English")
		assert.Contains(t, prompt, "- Name: Sara Ali")
		assert.Contains(t, prompt, "- Role: Student")
		assert.Contains(t, prompt, "- Student ID: Not set")
		assert.Contains(t, prompt, "- Approved activities: 1")
		assert.Contains(t, prompt, "- Total approved hours: 30")
		assert.Contains(t, prompt, "- Completed courses: 1")
		assert.Contains(t, prompt, "- Certificates: 1")
		assert.Contains(t, prompt, "- awards: needs 1 more hours")
		assert.NotContains(t, prompt, "- volunteer_work: needs")
		// enrolled courses are not offered again; the Arabic title stands in for a missing English one
		assert.NotContains(t, prompt, "- Programming (12 hours)")
		assert.Contains(t, prompt, "- التصميم (6 hours)")
		assert.NotContains(t, prompt, "Trainer Info:")
		assert.NotContains(t, prompt, "Supervision Info:")
	})

	t.Run("aborted by the caller", func(t *testing.T) {
		errGone := errors.New("client gone")
		svc := newTestService(&fakeStreamer{enabled: true, chunks: []string{"a", "b"}}, newRecords())
		err := svc.Chat(ctx, user.CapabilitiesFor(user.RoleStudent), "u1", req, func(string) error { return errGone })
		assert.Equal(t, errGone, err)
	})
}

func TestBuildPrompt_roles(t *testing.T) {
	fr := newRecords()
	fr.users = []user.UserWithProfile{
		{User: user.User{ID: "u1"}, Role: user.RoleSupervisor},
		{User: user.User{ID: "u2"}, Role: user.RoleTrainer},
		{User: user.User{ID: "u3"}, Role: user.RoleStudent},
		{User: user.User{ID: "u4"}, Role: user.RoleStudent},
	}

	tests := []struct {
		name        string
		role        user.Role
		lang        Language
		contains    []string
		notContains []string
	}{
		{
			name:        "trainer sees own courses",
			role:        user.RoleTrainer,
			lang:        English,
			contains:    []string{"- Role: Trainer", "Trainer Info:", "- Total courses: 2", "- Drafts: 1", "Draft course (draft, 4h)"},
			notContains: []string{"Supervision Info:"},
		},
		{
			name:     "supervisor sees the platform",
			role:     user.RoleSupervisor,
			lang:     English,
			contains: []string{"- Role: Supervisor", "- Total courses: 3", "Supervision Info:", "- Total users: 4 (2 students, 1 trainers)", "- Activities pending review: 1"},
		},
		{
			name:     "arabic by default",
			role:     user.RoleStudent,
			lang:     "",
			contains: []string{"أجب دائماً باللغة العربية", "- الدور: متدرب"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeStreamer{enabled: true}, fr)
			pc, err := svc.gatherContext(context.Background(), user.CapabilitiesFor(tc.role), "u1")
			require.NoError(t, err)

			prompt := buildPrompt(tc.lang, pc)
			for _, s := range tc.contains {
				assert.Contains(t, prompt, s)
			}
			for _, s := range tc.notContains {
				assert.NotContains(t, prompt, s)
			}
		})
	}
}

func TestChatRequest_Validate(t *testing.T) {
	validate := validator.New()

	cr := ChatRequest{Message: "  hi  "}
	require.NoError(t, cr.Validate(validate))
	assert.Equal(t, "hi", cr.Message)
	assert.Equal(t, Arabic, cr.Language)

	cr = ChatRequest{Message: "hi", Language: "fr"}
	assert.Error(t, cr.Validate(validate))

	cr = ChatRequest{Message: "   "}
	assert.Error(t, cr.Validate(validate))
}
