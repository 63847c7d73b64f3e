package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRubric(t *testing.T) {
	cases := []struct {
		name    string
		signals RubricSignals
		want    Rubric
	}{
		{"pe department", RubricSignals{Department: "Physical Education", AcademicType: "CORE"}, RubricPhysicalEducation},
		{"pe short department", RubricSignals{Department: "PE"}, RubricPhysicalEducation},
		{"pe email", RubricSignals{Email: "pe.ravi@school.edu"}, RubricPhysicalEducation},
		{"sport title", RubricSignals{Title: "Improve Sports Day drills"}, RubricPhysicalEducation},
		{"pe beats visual arts", RubricSignals{Department: "Physical Education", Category: "Visual Arts"}, RubricPhysicalEducation},
		{"visual arts", RubricSignals{Department: "Visual Arts"}, RubricVisualArts},
		{"visual arts beats music", RubricSignals{Department: "Visual Arts", Title: "Music integration"}, RubricVisualArts},
		{"arts department", RubricSignals{Department: "Arts", AcademicType: "CORE"}, RubricPerformingArts},
		{"music category", RubricSignals{Category: "Music"}, RubricPerformingArts},
		{"drama title", RubricSignals{Title: "Drama club scaffolding"}, RubricPerformingArts},
		{"core", RubricSignals{Department: "Mathematics", AcademicType: "core"}, RubricCore},
		{"non core", RubricSignals{Department: "Library", AcademicType: "NON_CORE"}, RubricNonCore},
		{"empty", RubricSignals{}, RubricNonCore},
		{"attendance title stays core", RubricSignals{Department: "Mathematics", Title: "Improve student attendance", AcademicType: "CORE"}, RubricCore},
		{"guidance title stays core", RubricSignals{Department: "Mathematics", Title: "Strengthen academic guidance", AcademicType: "CORE"}, RubricCore},
		{"transport title stays core", RubricSignals{Department: "Mathematics", Title: "Plan school transport safety", AcademicType: "CORE"}, RubricCore},
		{"dramatic title stays core", RubricSignals{Department: "English", Title: "Dramatic reading circles", AcademicType: "CORE"}, RubricCore},
		{"punctuated phrase", RubricSignals{Category: "Performing-Arts"}, RubricPerformingArts},
		{"physical education in title", RubricSignals{Title: "Physical education warm-ups", AcademicType: "CORE"}, RubricPhysicalEducation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyRubric(tc.signals))
		})
	}
}

func TestEveryRubricHasIndicators(t *testing.T) {
	for _, r := range []Rubric{RubricCore, RubricPhysicalEducation, RubricVisualArts, RubricPerformingArts, RubricNonCore} {
		assert.NotEmpty(t, RubricIndicators(r), string(r))
	}
	assert.Nil(t, RubricIndicators("UNKNOWN"))
}
