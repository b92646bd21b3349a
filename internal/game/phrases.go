package game

import (
	"sort"
	"strings"
)

// Phrases maps each trigger word to the absurd phrase a player shouts to
// score it in full. Every phrase contains its trigger word.
var Phrases = map[string]string{
	"wifi":      "pandas hack wifi",
	"banana":    "wizards juggle banana",
	"pickle":    "grandma launches pickle",
	"toaster":   "robots marry toaster",
	"noodle":    "penguins surf noodle",
	"taco":      "dinosaurs worship taco",
	"sock":      "aliens steal sock",
	"pizza":     "ninjas deliver pizza",
	"unicorn":   "llamas ride unicorn",
	"cactus":    "goblins hug cactus",
	"waffle":    "pirates bury waffle",
	"spoon":     "vampires polish spoon",
	"trumpet":   "squirrels blast trumpet",
	"potato":    "knights duel potato",
	"donut":     "koalas orbit donut",
	"mustache":  "babies grow mustache",
	"volcano":   "hamsters climb volcano",
	"lasagna":   "cowboys lasso lasagna",
	"kazoo":     "zombies hum kazoo",
	"broccoli":  "astronauts fear broccoli",
	"pancake":   "octopus flips pancake",
	"gravity":   "chickens defy gravity",
	"hamster":   "tornado chases hamster",
	"spaghetti": "sharks slurp spaghetti",
	"disco":     "grandpa invents disco",
	"jellybean": "dragons sneeze jellybean",
}

// PhraseFor returns the phrase mapped to a trigger word
func PhraseFor(word string) (string, bool) {
	phrase, ok := Phrases[strings.ToLower(strings.TrimSpace(word))]
	return phrase, ok
}

// TriggerWords returns the word pool in sorted order so a seeded shuffle is
// reproducible
func TriggerWords() []string {
	words := make([]string, 0, len(Phrases))
	for w := range Phrases {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
