package answer

// Decision is the confidence gate's verdict on a retrieval result.
type Decision struct {
	Hit    bool
	Answer string
	Score  float64 // score of the inspected candidate, 0 when there was none
}

// Decide trusts the candidate iff it exists and its score is strictly greater than
// threshold. A score equal to the threshold is a miss.
func Decide(candidate *Candidate, threshold float64) Decision {
	if candidate == nil {
		return Decision{}
	}
	if candidate.Score > threshold {
		return Decision{Hit: true, Answer: candidate.Answer, Score: candidate.Score}
	}
	return Decision{Score: candidate.Score}
}
