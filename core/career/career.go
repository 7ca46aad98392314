// Package career suggests a major from the answers of the career guidance questionnaire.
package career

import (
	"github.com/go-playground/validator/v10"
)

type Answer struct {
	QuestionID int    `json:"questionId"`
	Answer     string `json:"answer" validate:"required"`
}

type Questionnaire struct {
	Answers []Answer `json:"answers" validate:"required,dive"`
}

func (q *Questionnaire) Validate(validate *validator.Validate) error {
	return validate.Struct(q)
}

type Suggestion struct {
	SuggestedMajor string   `json:"suggestedMajor"`
	MajorAr        string   `json:"majorAr"`
	MatchingSkills []string `json:"matchingSkills"`
	CareerPaths    []string `json:"careerPaths"`
	Description    string   `json:"description"`
	DescriptionAr  string   `json:"descriptionAr"`
}

type major struct {
	key        string
	keywords   []string
	suggestion Suggestion
}

const keywordWeight = 2

// majors is ordered: on equal scores the first major wins.
var majors = []major{
	{
		key:      "it",
		keywords: []string{"it", "coding", "technical", "computers"},
		suggestion: Suggestion{
			SuggestedMajor: "Information Technology",
			MajorAr:        "تكنولوجيا المعلومات",
			MatchingSkills: []string{"Programming", "Problem Solving", "Logical Thinking", "Technical Skills"},
			CareerPaths:    []string{"Software Developer", "Web Developer", "Mobile App Developer", "System Administrator"},
			Description:    "Information Technology is ideal for those who love technology, programming, and solving technical problems.",
			DescriptionAr:  "تكنولوجيا المعلومات مثالي لمن يحب التقنية والبرمجة وحل المشكلات التقنية.",
		},
	},
	{
		key:      "engineering",
		keywords: []string{"engineering", "design", "math", "tools"},
		suggestion: Suggestion{
			SuggestedMajor: "Engineering",
			MajorAr:        "الهندسة",
			MatchingSkills: []string{"Problem Solving", "Mathematics", "Technical Skills", "Analytical Thinking"},
			CareerPaths:    []string{"Civil Engineer", "Mechanical Engineer", "Electrical Engineer", "Project Manager"},
			Description:    "Engineering is perfect for those who enjoy applying science and mathematics to solve real-world problems.",
			DescriptionAr:  "الهندسة مثالية لمن يستمتع بتطبيق العلوم والرياضيات لحل مشاكل العالم الحقيقي.",
		},
	},
	{
		key:      "business",
		keywords: []string{"business", "leadership", "efficiency", "numbers"},
		suggestion: Suggestion{
			SuggestedMajor: "Business Administration",
			MajorAr:        "إدارة الأعمال",
			MatchingSkills: []string{"Communication", "Leadership", "Organization", "Analytical Thinking"},
			CareerPaths:    []string{"Business Manager", "Marketing Specialist", "Financial Analyst", "HR Manager"},
			Description:    "Business Administration suits those who enjoy leadership and working with numbers.",
			DescriptionAr:  "إدارة الأعمال مناسبة لمن يستمتع بالقيادة والتواصل والعمل مع الأرقام.",
		},
	},
	{
		key:      "health",
		keywords: []string{"health", "helping", "scientific", "service"},
		suggestion: Suggestion{
			SuggestedMajor: "Health Sciences",
			MajorAr:        "العلوم الصحية",
			MatchingSkills: []string{"Helping Others", "Scientific Knowledge", "Attention to Detail", "Compassion"},
			CareerPaths:    []string{"Physician", "Nurse", "Pharmacist", "Physical Therapist"},
			Description:    "Health Sciences is ideal for those passionate about helping others.",
			DescriptionAr:  "العلوم الصحية مثالية لمن شغوف بمساعدة الآخرين.",
		},
	},
	{
		key:      "arts",
		keywords: []string{"arts", "creative", "images", "creative_space"},
		suggestion: Suggestion{
			SuggestedMajor: "Arts & Design",
			MajorAr:        "الفنون والتصميم",
			MatchingSkills: []string{"Creativity", "Visual Thinking", "Artistic Skills", "Imagination"},
			CareerPaths:    []string{"Graphic Designer", "UI/UX Designer", "Interior Designer", "Multimedia Artist"},
			Description:    "Arts & Design is perfect for creative individuals.",
			DescriptionAr:  "الفنون والتصميم مثالي للأفراد المبدعين.",
		},
	},
	{
		key:      "science",
		keywords: []string{"science", "analysis", "research", "lab"},
		suggestion: Suggestion{
			SuggestedMajor: "Computer Science",
			MajorAr:        "علوم الحاسب",
			MatchingSkills: []string{"Logical Thinking", "Problem Solving", "Research", "Mathematics"},
			CareerPaths:    []string{"Software Engineer", "Data Scientist", "AI Researcher", "Machine Learning Engineer"},
			Description:    "Computer Science suits those who love algorithms and data.",
			DescriptionAr:  "علوم الحاسب مناسبة لمن يحب الخوارزميات والبيانات.",
		},
	},
	{
		key:      "media",
		keywords: []string{"media", "words", "communication", "customer_facing"},
		suggestion: Suggestion{
			SuggestedMajor: "Media & Communication",
			MajorAr:        "الإعلام والتواصل",
			MatchingSkills: []string{"Communication", "Creativity", "Writing", "Social Skills"},
			CareerPaths:    []string{"Content Creator", "Journalist", "Social Media Manager", "Marketing Coordinator"},
			Description:    "Media & Communication is ideal for those who enjoy storytelling.",
			DescriptionAr:  "الإعلام والتواصل مثالي لمن يستمتع بسرد القصص.",
		},
	},
	{
		key:      "education",
		keywords: []string{"education", "people", "helping", "teaching"},
		suggestion: Suggestion{
			SuggestedMajor: "Education & Training",
			MajorAr:        "التعليم والتدريب",
			MatchingSkills: []string{"Communication", "Patience", "Helping Others", "Presentation Skills"},
			CareerPaths:    []string{"Teacher", "Trainer", "Educational Administrator", "Curriculum Developer"},
			Description:    "Education is perfect for those who love sharing knowledge.",
			DescriptionAr:  "التعليم مثالي لمن يحب مشاركة المعرفة.",
		},
	},
}

// Analyze scores every major against the answers and returns the best match.
// Each answer matching one of a major's keywords adds to its score. Information Technology is the default.
func Analyze(answers []Answer) Suggestion {
	best, bestScore := majors[0], 0
	for _, m := range majors {
		var score int
		for _, a := range answers {
			for _, kw := range m.keywords {
				if a.Answer == kw {
					score += keywordWeight
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = m, score
		}
	}
	return best.suggestion
}
