package quiz

// Detail is the grading outcome of one question.
type Detail struct {
	QuestionIndex  int  `json:"question_index"`
	Correct        bool `json:"correct"`
	CorrectIndex   int  `json:"correct_index"`
	SubmittedIndex *int `json:"submitted_index"`
}

type Result struct {
	Score   int      `json:"score"`
	Total   int      `json:"total"`
	Details []Detail `json:"details"`
}

// Grade compares submitted[i] with the key's i-th index. Positions missing from
// submitted, or holding a negative index, are graded incorrect; extra
// submitted entries are ignored.
func Grade(key Key, submitted []int) Result {
	res := Result{Total: len(key.Indices), Details: make([]Detail, 0, len(key.Indices))}
	for i, want := range key.Indices {
		d := Detail{QuestionIndex: i, CorrectIndex: want}
		if i < len(submitted) && submitted[i] >= 0 {
			got := submitted[i]
			d.SubmittedIndex = &got
			d.Correct = got == want
		}
		if d.Correct {
			res.Score++
		}
		res.Details = append(res.Details, d)
	}
	return res
}
