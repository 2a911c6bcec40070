package sessions

import (
	"math/rand"

	"github.com/studyquest/backend/internal/models"
)

// fallbackBank keeps the quiz endpoint usable before any questions are
// seeded into the database. Fallback questions carry ID 0 and are not
// tracked for repeats.
var fallbackBank = map[string][]models.QuizQuestion{
	"Mathematics": {
		{
			Topic: "Mathematics", Difficulty: "easy",
			Question: "What is 7 × 8?",
			Answers: []models.QuizAnswer{
				{Text: "54"}, {Text: "56", IsCorrect: true}, {Text: "58"}, {Text: "64"},
			},
			CorrectAnswer: "56",
			Explanation:   "7 × 8 = 56.",
		},
		{
			Topic: "Mathematics", Difficulty: "medium",
			Question: "What is the value of x if 3x + 5 = 20?",
			Answers: []models.QuizAnswer{
				{Text: "3"}, {Text: "5", IsCorrect: true}, {Text: "7"}, {Text: "15"},
			},
			CorrectAnswer: "5",
			Explanation:   "3x = 15, so x = 5.",
		},
	},
	"Science": {
		{
			Topic: "Science", Difficulty: "easy",
			Question: "What gas do plants absorb from the atmosphere?",
			Answers: []models.QuizAnswer{
				{Text: "Oxygen"}, {Text: "Carbon dioxide", IsCorrect: true}, {Text: "Nitrogen"}, {Text: "Hydrogen"},
			},
			CorrectAnswer: "Carbon dioxide",
			Explanation:   "Photosynthesis converts carbon dioxide and water into glucose and oxygen.",
		},
		{
			Topic: "Science", Difficulty: "medium",
			Question: "What is the chemical symbol for iron?",
			Answers: []models.QuizAnswer{
				{Text: "Ir"}, {Text: "In"}, {Text: "Fe", IsCorrect: true}, {Text: "I"},
			},
			CorrectAnswer: "Fe",
			Explanation:   "From the Latin 'ferrum'.",
		},
	},
	"English": {
		{
			Topic: "English", Difficulty: "easy",
			Question: "Which word is a synonym of 'happy'?",
			Answers: []models.QuizAnswer{
				{Text: "Joyful", IsCorrect: true}, {Text: "Angry"}, {Text: "Tired"}, {Text: "Afraid"},
			},
			CorrectAnswer: "Joyful",
		},
	},
	"History": {
		{
			Topic: "History", Difficulty: "easy",
			Question: "In which year did World War II end?",
			Answers: []models.QuizAnswer{
				{Text: "1943"}, {Text: "1944"}, {Text: "1945", IsCorrect: true}, {Text: "1946"},
			},
			CorrectAnswer: "1945",
		},
	},
}

func fallbackTopics() []string {
	topics := make([]string, 0, len(fallbackBank))
	for t := range fallbackBank {
		topics = append(topics, t)
	}
	return topics
}

func fallbackQuestion(topic, difficulty string) *models.QuizQuestion {
	bank := fallbackBank[topic]
	if len(bank) == 0 {
		return nil
	}

	if difficulty != "" {
		var matching []models.QuizQuestion
		for _, q := range bank {
			if q.Difficulty == difficulty {
				matching = append(matching, q)
			}
		}
		if len(matching) > 0 {
			bank = matching
		}
	}

	q := bank[rand.Intn(len(bank))]
	return &q
}
