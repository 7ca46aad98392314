package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sejali/core/course"
)

var sampleCourses = []course.Course{
	{
		TitleAr:       "مقدمة في البرمجة بلغة بايثون",
		TitleEn:       "Introduction to Python Programming",
		DescriptionAr: "تعلم أساسيات البرمجة باستخدام لغة بايثون من الصفر. يشمل المتغيرات، الحلقات، الدوال، والتعامل مع الملفات.",
		DescriptionEn: "Learn programming fundamentals using Python from scratch. Covers variables, loops, functions, and file handling.",
		Category:      "Programming",
		Duration:      20,
	},
	{
		TitleAr:       "تطوير تطبيقات الويب",
		TitleEn:       "Web Development Fundamentals",
		DescriptionAr: "تعلم تطوير مواقع الويب باستخدام HTML وCSS وJavaScript. بناء مشاريع عملية وتعلم أساسيات التصميم المتجاوب.",
		DescriptionEn: "Learn web development using HTML, CSS, and JavaScript. Build practical projects and learn responsive design basics.",
		Category:      "Web Development",
		Duration:      30,
	},
	{
		TitleAr:       "تحليل البيانات والذكاء الاصطناعي",
		TitleEn:       "Data Analysis & AI",
		DescriptionAr: "مقدمة في تحليل البيانات باستخدام بايثون والمكتبات الشائعة. تعلم أساسيات التعلم الآلي وتطبيقاته العملية.",
		DescriptionEn: "Introduction to data analysis using Python and popular libraries. Learn machine learning basics and practical applications.",
		Category:      "Data Science",
		Duration:      25,
	},
	{
		TitleAr:       "القيادة وإدارة الفرق",
		TitleEn:       "Leadership & Team Management",
		DescriptionAr: "تطوير المهارات القيادية وتعلم أساليب إدارة الفرق الفعّالة. يشمل التواصل، التخطيط، وحل المشكلات.",
		DescriptionEn: "Develop leadership skills and learn effective team management methods. Includes communication, planning, and problem-solving.",
		Category:      "Leadership",
		Duration:      15,
	},
	{
		TitleAr:       "ريادة الأعمال والابتكار",
		TitleEn:       "Entrepreneurship & Innovation",
		DescriptionAr: "تعلم كيفية تحويل الأفكار إلى مشاريع ناجحة. يشمل دراسة الجدوى، خطة العمل، والتمويل.",
		DescriptionEn: "Learn how to turn ideas into successful projects. Covers feasibility studies, business plans, and funding.",
		Category:      "Business",
		Duration:      18,
	},
	{
		TitleAr:       "مهارات التواصل والعرض",
		TitleEn:       "Communication & Presentation Skills",
		DescriptionAr: "تعلم فن التواصل الفعّال ومهارات العرض التقديمي. يشمل التحدث أمام الجمهور والكتابة المهنية.",
		DescriptionEn: "Master effective communication and presentation skills. Includes public speaking and professional writing.",
		Category:      "Soft Skills",
		Duration:      10,
	},
}

// SeedCourses inserts the sample published courses when there are no courses yet.
// Returns the number of courses inserted.
func SeedCourses(ctx context.Context, repo course.Repository) (int, error) {
	existing, err := repo.QueryCourses(ctx, false)
	if err != nil {
		return 0, errors.Wrap(err, "querying courses")
	}
	if len(existing) > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for i, c := range sampleCourses {
		c.ID = uuid.NewString()
		c.IsPublished = true
		// spaced out so the listing keeps the sample order
		c.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		c.UpdatedAt = c.CreatedAt
		if _, err = repo.CreateCourse(ctx, c); err != nil {
			return i, errors.Wrap(err, "creating sample course")
		}
	}
	return len(sampleCourses), nil
}
