package performance

// SubjectMarks holds the two mark components of a subject, each out of 100.
type SubjectMarks struct {
	Internal float64
	External float64
}

// PredictedScore is round((internal+external)/2).
func (m SubjectMarks) PredictedScore() int {
	return Round((m.Internal + m.External) / 2)
}

// HasMarks reports whether any mark has been entered.
func (m SubjectMarks) HasMarks() bool {
	return m.Internal > 0 || m.External > 0
}

// AnyMarks reports whether at least one subject carries marks.
func AnyMarks(subjects []SubjectMarks) bool {
	for _, s := range subjects {
		if s.HasMarks() {
			return true
		}
	}
	return false
}

// OverallFromSubjects averages the per-subject predicted scores, each
// rounded first, then rounds the mean. Returns false for an empty list.
func OverallFromSubjects(subjects []SubjectMarks) (int, bool) {
	if len(subjects) == 0 {
		return 0, false
	}
	total := 0
	for _, s := range subjects {
		total += s.PredictedScore()
	}
	return Round(float64(total) / float64(len(subjects))), true
}
