package workflow

import (
	"strings"
	"unicode"
)

// Rubric identifies the rating framework used for a self-reflection.
type Rubric string

const (
	RubricCore              Rubric = "CORE"
	RubricPhysicalEducation Rubric = "PHYSICAL_EDUCATION"
	RubricVisualArts        Rubric = "VISUAL_ARTS"
	RubricPerformingArts    Rubric = "PERFORMING_ARTS"
	RubricNonCore           Rubric = "NON_CORE"
)

// AcademicTypeCore marks goals owned by core-subject teachers.
const AcademicTypeCore = "CORE"

// RubricSignals are the goal and teacher attributes the classifier reads.
type RubricSignals struct {
	Department   string
	Email        string
	Category     string
	Title        string
	AcademicType string
}

// ClassifyRubric picks the reflection rubric. Guards run in a fixed total
// order: physical education, visual arts, performing arts, core academic
// type, then the non-core fallback. An earlier match excludes later ones.
// Signals match on whole words, so "attendance" never reads as "dance".
func ClassifyRubric(s RubricSignals) Rubric {
	dept := normalizeSignal(s.Department)
	text := [][]string{signalWords(s.Department), signalWords(s.Category), signalWords(s.Title)}
	local := emailLocalPart(s.Email)

	switch {
	case dept == "pe" || dept == "p.e." || anyPhrase(text, "physical education", "sport", "sports") || strings.HasPrefix(local, "pe."):
		return RubricPhysicalEducation
	case anyPhrase(text, "visual art", "visual arts", "fine art", "fine arts") || strings.HasPrefix(local, "va."):
		return RubricVisualArts
	case dept == "arts" || anyPhrase(text, "performing art", "performing arts", "music", "dance", "theatre", "theater", "drama") || strings.HasPrefix(local, "pa."):
		return RubricPerformingArts
	case strings.EqualFold(strings.TrimSpace(s.AcademicType), AcademicTypeCore):
		return RubricCore
	default:
		return RubricNonCore
	}
}

// RubricIndicators lists the indicators a reflection must rate.
func RubricIndicators(r Rubric) []string {
	switch r {
	case RubricCore:
		return []string{"planning_preparation", "classroom_environment", "instruction", "professional_responsibilities"}
	case RubricPhysicalEducation:
		return []string{"lesson_planning", "skill_instruction", "safety_management", "student_engagement", "assessment"}
	case RubricVisualArts:
		return []string{"artistic_process", "studio_management", "creative_instruction", "critique_feedback"}
	case RubricPerformingArts:
		return []string{"rehearsal_planning", "performance_technique", "ensemble_direction", "creative_expression"}
	case RubricNonCore:
		return []string{"planning", "delivery", "learning_environment", "professional_growth"}
	default:
		return nil
	}
}

func normalizeSignal(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}

func emailLocalPart(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

func signalWords(v string) []string {
	return strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// anyPhrase reports whether any value holds one of the phrases as a run of
// consecutive words.
func anyPhrase(values [][]string, phrases ...string) bool {
	for _, words := range values {
		for _, p := range phrases {
			if containsWords(words, strings.Fields(p)) {
				return true
			}
		}
	}
	return false
}

func containsWords(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(words); i++ {
		match := true
		for j, w := range phrase {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
