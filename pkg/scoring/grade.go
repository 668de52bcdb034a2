package scoring

// Grader is anything that can be reduced to a numeric grade.
type Grader interface {
	NumericGrade() int
}

var (
	letters = [BandCount]string{"F", "D", "C", "B", "A"}
	labels  = [BandCount]string{"Poor", "Fair", "Good", "Very Good", "Excellent"}
)

// Letter returns the display letter for a numeric grade.
// Grades outside 1..5 are clamped.
func Letter(grade int) string {
	return letters[gradeSlot(grade)]
}

// Label returns the long form of a numeric grade.
func Label(grade int) string {
	return labels[gradeSlot(grade)]
}

// TextGrade returns the display letter of g.
func TextGrade(g Grader) string {
	return Letter(g.NumericGrade())
}

func gradeSlot(grade int) int {
	switch {
	case grade < WorstGrade:
		return 0
	case grade > BestGrade:
		return BandCount - 1
	default:
		return grade - 1
	}
}
