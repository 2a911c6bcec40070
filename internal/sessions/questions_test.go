package sessions

import "testing"

func TestFallbackQuestion(t *testing.T) {
	// Known topic
	q := fallbackQuestion("Mathematics", "")
	if q == nil {
		t.Fatal("no fallback question for Mathematics")
	}
	if q.Topic != "Mathematics" {
		t.Errorf("topic = %q, want Mathematics", q.Topic)
	}
	if q.ID != 0 {
		t.Errorf("fallback question has ID %d, want 0", q.ID)
	}

	// Difficulty filter applies when matches exist
	q = fallbackQuestion("Mathematics", "easy")
	if q == nil || q.Difficulty != "easy" {
		t.Errorf("fallbackQuestion(Mathematics, easy) = %+v, want easy question", q)
	}

	// Unmatched difficulty falls back to any question for the topic
	q = fallbackQuestion("English", "expert")
	if q == nil {
		t.Error("unmatched difficulty should still serve a question")
	}

	// Unknown topic
	if q := fallbackQuestion("Astrology", ""); q != nil {
		t.Errorf("unknown topic returned %+v, want nil", q)
	}
}

func TestFallbackQuestionsHaveCorrectAnswer(t *testing.T) {
	for topic, bank := range fallbackBank {
		for _, q := range bank {
			found := false
			for _, a := range q.Answers {
				if a.IsCorrect && a.Text == q.CorrectAnswer {
					found = true
				}
			}
			if !found {
				t.Errorf("%s question %q: correct_answer %q not marked in answers", topic, q.Question, q.CorrectAnswer)
			}
		}
	}
}

func TestFallbackTopics(t *testing.T) {
	topics := fallbackTopics()
	if len(topics) != len(fallbackBank) {
		t.Fatalf("fallbackTopics returned %d topics, want %d", len(topics), len(fallbackBank))
	}
	for _, topic := range topics {
		if len(fallbackBank[topic]) == 0 {
			t.Errorf("topic %q has no questions", topic)
		}
	}
}
