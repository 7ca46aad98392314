package assistant

import (
	"fmt"
	"strings"

	"github.com/trezcool/sejali/core/activity"
	"github.com/trezcool/sejali/core/certificate"
	"github.com/trezcool/sejali/core/course"
	"github.com/trezcool/sejali/core/enrollment"
	"github.com/trezcool/sejali/core/user"
)

const (
	maxAvailableCourses = 5
	maxTaughtCourses    = 10
)

type promptContext struct {
	role         user.Role
	user         user.User
	profile      user.Profile
	activities   []activity.Activity
	enrollments  []enrollment.Enrollment
	certificates []certificate.Certificate
	published    []course.Course

	// trainers and supervisors
	taught []course.Course

	// supervisors
	allActivities []activity.Activity
	allUsers      []user.UserWithProfile
}

type labels struct {
	intro, userInfo, name, role, studentID, major, notSet                                          string
	approvedActs, approvedHours, enrolled, completed, certificates                                 string
	trainerInfo, totalCourses, published, drafts, courses, none, publishedTag, draftTag, hoursUnit string
	supervisionInfo, totalUsers, pending, approved, rejected, totalActs, publishedCourses          string
	requiredPerType, neededTypes, allDone, available, noneAvailable                                string
	requiredFmt, neededFmt, usersFmt, listSep, courseFmt, availableFmt                             string

	roles    map[user.Role]string
	guidance map[user.Role]string
}

var promptLabels = map[Language]labels{
	Arabic: {
		intro:            "أنت مساعد ذكي متخصص في نظام السجل المهاري (منصة سجلي) للكلية التقنية. أجب دائماً باللغة العربية. كن ودوداً ومختصراً.",
		userInfo:         "معلومات المستخدم:",
		name:             "الاسم",
		role:             "الدور",
		studentID:        "الرقم التدريبي",
		major:            "التخصص",
		notSet:           "غير محدد",
		approvedActs:     "الأنشطة المعتمدة",
		approvedHours:    "إجمالي الساعات المعتمدة",
		enrolled:         "الدورات المسجلة",
		completed:        "الدورات المكتملة",
		certificates:     "الشهادات",
		trainerInfo:      "معلومات المدرب:",
		totalCourses:     "إجمالي الدورات",
		published:        "دورات منشورة",
		drafts:           "دورات مسودة",
		courses:          "الدورات",
		none:             "لا توجد",
		publishedTag:     "منشورة",
		draftTag:         "مسودة",
		hoursUnit:        "ساعة",
		supervisionInfo:  "معلومات الإشراف:",
		totalUsers:       "إجمالي المستخدمين",
		pending:          "أنشطة بانتظار المراجعة",
		approved:         "أنشطة معتمدة",
		rejected:         "أنشطة مرفوضة",
		totalActs:        "إجمالي الأنشطة",
		publishedCourses: "إجمالي الدورات المنشورة",
		requiredPerType:  "الساعات المطلوبة لكل فئة:",
		neededTypes:      "الفئات التي تحتاج ساعات إضافية:",
		allDone:          "لا يوجد - أكمل جميع الفئات!",
		available:        "الدورات المتاحة:",
		noneAvailable:    "لا توجد دورات متاحة حالياً",
		requiredFmt:      "- %s: مطلوب %d ساعة، متحقق %d ساعة",
		neededFmt:        "- %s: يحتاج %d ساعة إضافية",
		usersFmt:         "%d (%d متدرب، %d مدرب)",
		listSep:          "، ",
		courseFmt:        "%s (%s, %d %s)",
		availableFmt:     "- %s (%d ساعة)",
		roles: map[user.Role]string{
			user.RoleStudent:    "متدرب",
			user.RoleTrainer:    "مدرب",
			user.RoleSupervisor: "مشرف",
		},
		guidance: map[user.Role]string{
			user.RoleStudent:    "ساعد المتدرب بتقديم نصائح واقتراحات مفيدة لإكمال سجله المهاري.",
			user.RoleTrainer:    "ساعد المدرب في تحسين دوراته وإدارة المحتوى التعليمي واقتراح أفكار لدورات جديدة ومراجعة المشاريع.",
			user.RoleSupervisor: "ساعد المشرف في تحليل أداء المنصة وإدارة المستخدمين ومراجعة الأنشطة واتخاذ القرارات الإدارية المناسبة.",
		},
	},
	English: {
		intro:            "You are an intelligent assistant specialized in the Skill Record system (Sejali Platform) for the Technical College. Always respond in English. Be friendly and concise.",
		userInfo:         "User Info:",
		name:             "Name",
		role:             "Role",
		studentID:        "Student ID",
		major:            "Major",
		notSet:           "Not set",
		approvedActs:     "Approved activities",
		approvedHours:    "Total approved hours",
		enrolled:         "Enrolled courses",
		completed:        "Completed courses",
		certificates:     "Certificates",
		trainerInfo:      "Trainer Info:",
		totalCourses:     "Total courses",
		published:        "Published",
		drafts:           "Drafts",
		courses:          "Courses",
		none:             "None",
		publishedTag:     "published",
		draftTag:         "draft",
		hoursUnit:        "h",
		supervisionInfo:  "Supervision Info:",
		totalUsers:       "Total users",
		pending:          "Activities pending review",
		approved:         "Approved activities",
		rejected:         "Rejected activities",
		totalActs:        "Total activities",
		publishedCourses: "Published courses",
		requiredPerType:  "Required hours per category:",
		neededTypes:      "Categories needing more hours:",
		allDone:          "None - all categories completed!",
		available:        "Available courses:",
		noneAvailable:    "No courses available currently",
		requiredFmt:      "- %s: required %dh, achieved %dh",
		neededFmt:        "- %s: needs %d more hours",
		usersFmt:         "%d (%d students, %d trainers)",
		listSep:          ", ",
		courseFmt:        "%s (%s, %d%s)",
		availableFmt:     "- %s (%d hours)",
		roles: map[user.Role]string{
			user.RoleStudent:    "Student",
			user.RoleTrainer:    "Trainer",
			user.RoleSupervisor: "Supervisor",
		},
		guidance: map[user.Role]string{
			user.RoleStudent:    "Help the student with useful advice and suggestions to complete their skill record.",
			user.RoleTrainer:    "Help the trainer improve their courses, manage educational content, suggest new course ideas, and review projects.",
			user.RoleSupervisor: "Help the supervisor analyze platform performance, manage users, review activities, and make appropriate administrative decisions.",
		},
	},
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// title picks the localized title, falling back to the Arabic one.
func title(lang Language, ar, en string) string {
	if lang == English && en != "" {
		return en
	}
	return ar
}

func buildPrompt(lang Language, pc promptContext) string {
	l, ok := promptLabels[lang]
	if !ok {
		lang, l = Arabic, promptLabels[Arabic]
	}
	role := pc.role
	if !role.Valid() {
		role = user.RoleStudent
	}

	var approvedCount, approvedHours int
	for _, a := range pc.activities {
		if a.Status == activity.StatusApproved {
			approvedCount++
			approvedHours += a.Hours
		}
	}
	var completedCount int
	enrolled := make(map[string]bool, len(pc.enrollments))
	for _, e := range pc.enrollments {
		enrolled[e.CourseID] = true
		if e.IsCompleted {
			completedCount++
		}
	}

	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(l.intro)
	line("")
	line(l.userInfo)
	line("- %s: %s", l.name, pc.user.Name())
	line("- %s: %s", l.role, l.roles[role])
	line("- %s: %s", l.studentID, orDefault(pc.profile.StudentID, l.notSet))
	line("- %s: %s", l.major, orDefault(pc.profile.Major, l.notSet))
	line("- %s: %d", l.approvedActs, approvedCount)
	line("- %s: %d", l.approvedHours, approvedHours)
	line("- %s: %d", l.enrolled, len(pc.enrollments))
	line("- %s: %d", l.completed, completedCount)
	line("- %s: %d", l.certificates, len(pc.certificates))

	if role == user.RoleTrainer || role == user.RoleSupervisor {
		var published int
		items := make([]string, 0, maxTaughtCourses)
		for i, c := range pc.taught {
			tag := l.draftTag
			if c.IsPublished {
				published++
				tag = l.publishedTag
			}
			if i < maxTaughtCourses {
				items = append(items, fmt.Sprintf(l.courseFmt, title(lang, c.TitleAr, c.TitleEn), tag, c.Duration, l.hoursUnit))
			}
		}
		line("")
		line(l.trainerInfo)
		line("- %s: %d", l.totalCourses, len(pc.taught))
		line("- %s: %d", l.published, published)
		line("- %s: %d", l.drafts, len(pc.taught)-published)
		line("- %s: %s", l.courses, orDefault(strings.Join(items, l.listSep), l.none))
	}

	if role == user.RoleSupervisor {
		var pending, approved, rejected int
		for _, a := range pc.allActivities {
			switch a.Status {
			case activity.StatusSubmitted:
				pending++
			case activity.StatusApproved:
				approved++
			case activity.StatusRejected:
				rejected++
			}
		}
		var students, trainers int
		for _, u := range pc.allUsers {
			switch u.Role {
			case user.RoleTrainer:
				trainers++
			case user.RoleSupervisor:
			default:
				students++
			}
		}
		line("")
		line(l.supervisionInfo)
		line("- %s: "+l.usersFmt, l.totalUsers, len(pc.allUsers), students, trainers)
		line("- %s: %d", l.pending, pending)
		line("- %s: %d", l.approved, approved)
		line("- %s: %d", l.rejected, rejected)
		line("- %s: %d", l.totalActs, len(pc.allActivities))
		line("- %s: %d", l.publishedCourses, len(pc.published))
	}

	progress := activity.ProgressOf(pc.activities)
	line("")
	line(l.requiredPerType)
	for _, p := range progress {
		line(l.requiredFmt, p.Type, p.Required, p.Achieved)
	}

	line("")
	line(l.neededTypes)
	var needed int
	for _, p := range progress {
		if p.Remaining > 0 {
			needed++
			line(l.neededFmt, p.Type, p.Remaining)
		}
	}
	if needed == 0 {
		line(l.allDone)
	}

	line("")
	line(l.available)
	var available int
	for _, c := range pc.published {
		if available == maxAvailableCourses {
			break
		}
		if enrolled[c.ID] {
			continue
		}
		available++
		line(l.availableFmt, title(lang, c.TitleAr, c.TitleEn), c.Duration)
	}
	if available == 0 {
		line(l.noneAvailable)
	}

	line("")
	b.WriteString(l.guidance[role])
	return b.String()
}
