package content

import (
	"math/rand"

	"github.com/humphreyhhui/LanguageGames/internal/models"
)

// fallbackSets ships with the binary so a content-service outage degrades to
// canned questions instead of a failed session start.
var fallbackSets = map[string][]models.Question{
	"vocabulary": {
		{Prompt: "the house", Answer: "la casa"},
		{Prompt: "the book", Answer: "el libro"},
		{Prompt: "the water", Answer: "el agua"},
		{Prompt: "the friend", Answer: "el amigo"},
		{Prompt: "the city", Answer: "la ciudad"},
		{Prompt: "the morning", Answer: "la mañana"},
		{Prompt: "the food", Answer: "la comida"},
		{Prompt: "the school", Answer: "la escuela"},
		{Prompt: "the family", Answer: "la familia"},
		{Prompt: "the time", Answer: "el tiempo"},
	},
	"grammar": {
		{Prompt: "I ___ (to be) happy", Answer: "estoy", Choices: []string{"estoy", "soy", "era", "fui"}},
		{Prompt: "She ___ (to have) a dog", Answer: "tiene", Choices: []string{"tiene", "tengo", "tenemos", "tienen"}},
		{Prompt: "We ___ (to go) home", Answer: "vamos", Choices: []string{"vamos", "van", "voy", "vais"}},
		{Prompt: "They ___ (to speak) Spanish", Answer: "hablan", Choices: []string{"hablan", "habla", "hablamos", "hablo"}},
		{Prompt: "You ___ (to want) coffee", Answer: "quieres", Choices: []string{"quieres", "quiere", "quiero", "queremos"}},
	},
	"translation": {
		{Prompt: "Good morning, how are you?", Answer: "buenos días, cómo estás"},
		{Prompt: "Where is the train station?", Answer: "dónde está la estación de tren"},
		{Prompt: "I would like a coffee, please", Answer: "quisiera un café, por favor"},
		{Prompt: "What time is it?", Answer: "qué hora es"},
		{Prompt: "See you tomorrow", Answer: "hasta mañana"},
	},
	"idioms": {
		{Prompt: "It's raining cats and dogs", Answer: "está lloviendo a cántaros"},
		{Prompt: "Piece of cake", Answer: "pan comido"},
		{Prompt: "Better late than never", Answer: "más vale tarde que nunca"},
		{Prompt: "Once in a blue moon", Answer: "de higos a brevas"},
		{Prompt: "To cost an arm and a leg", Answer: "costar un ojo de la cara"},
	},
}

// FallbackQuestionSet returns a shuffled static set for the category.
// Grammar sets are server-judged like generated ones; everything else is
// free-text and also server-judged. Never fails.
func FallbackQuestionSet(category string, count int) *models.QuestionSet {
	pool, ok := fallbackSets[category]
	if !ok {
		pool = fallbackSets["vocabulary"]
	}

	shuffled := make([]models.Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if count < 1 || count > len(shuffled) {
		count = len(shuffled)
	}

	return &models.QuestionSet{
		Category:     category,
		ServerJudged: true,
		Questions:    shuffled[:count],
	}
}
