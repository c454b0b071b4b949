package merge

import (
	"sort"

	"sori/internal/vocab"
)

// Combine folds student documents in input order into one hub document.
// First occurrence wins every deduplication, so the configured repository
// order decides conflicts. Nil documents are skipped.
func Combine(docs []*vocab.Document) *vocab.Document {
	var (
		subjects, times, places, objects, verbs []vocab.Item
		descSubjects, adjectives, adverbs       []vocab.Item
		categories                              []vocab.Category
		introTopics, introNouns                 []vocab.Item
		quizSituations                          []vocab.Item
	)
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if doc.Action != nil {
			subjects = append(subjects, doc.Action.Subjects...)
			times = append(times, doc.Action.Times...)
			places = append(places, doc.Action.Places...)
			objects = append(objects, doc.Action.Objects...)
			verbs = append(verbs, doc.Action.Verbs...)
		}
		if doc.Describe != nil {
			descSubjects = append(descSubjects, doc.Describe.Subjects...)
			adjectives = append(adjectives, doc.Describe.Adjectives...)
			adverbs = append(adverbs, doc.Describe.Adverbs...)
		}
		if doc.Flashcards != nil {
			categories = append(categories, doc.Flashcards.Categories...)
		}
		if doc.Intro != nil {
			introTopics = append(introTopics, doc.Intro.Topics...)
			introNouns = append(introNouns, doc.Intro.Nouns...)
		}
		if doc.Quiz != nil {
			quizSituations = append(quizSituations, doc.Quiz.Situations...)
		}
	}

	merged := &vocab.Document{
		Student: "Hub",
		Action: &vocab.Action{
			Subjects: dedupByKr(subjects),
			Times:    dedupByKr(times),
			Places:   dedupByKr(places),
			Objects:  dedupByKr(objects),
			Verbs:    mergeVerbs(verbs),
		},
		Describe: &vocab.Describe{
			Subjects:   dedupByKr(descSubjects),
			Adjectives: dedupByKr(adjectives),
			Adverbs:    dedupByKr(adverbs),
		},
		Flashcards: &vocab.Flashcards{
			Categories: mergeCategories(categories),
		},
	}
	if len(introTopics) > 0 {
		merged.Intro = &vocab.Intro{
			Topics: mergeIntroTopics(introTopics),
			Nouns:  dedupByKr(introNouns),
		}
	}
	if len(quizSituations) > 0 {
		merged.Quiz = &vocab.Quiz{
			Situations: mergeQuizSituations(quizSituations),
		}
	}
	return merged
}

// dedupByKr keeps the first item per kr value and drops entries without
// one.
func dedupByKr(items []vocab.Item) []vocab.Item {
	seen := make(map[string]struct{}, len(items))
	out := make([]vocab.Item, 0, len(items))
	for _, item := range items {
		kr := item.Str("kr")
		if kr == "" {
			continue
		}
		if _, ok := seen[kr]; ok {
			continue
		}
		seen[kr] = struct{}{}
		out = append(out, item)
	}
	return out
}

// mergeVerbs dedups by id, falling back to the present-tense form. The
// first occurrence supplies every field; objectTypes and
// compatibleObjects become sorted unions across occurrences and are
// always present on the result, even when empty.
func mergeVerbs(all []vocab.Item) []vocab.Item {
	type entry struct {
		item        vocab.Item
		objectTypes map[string]struct{}
		compatible  map[string]struct{}
	}
	byID := make(map[string]*entry, len(all))
	order := make([]string, 0, len(all))
	for _, verb := range all {
		id := verb.Str("id")
		if id == "" {
			id = verb.Str("present")
		}
		if id == "" {
			continue
		}
		e, ok := byID[id]
		if !ok {
			byID[id] = &entry{
				item:        cloneItem(verb),
				objectTypes: stringSet(verb.Strings("objectTypes")),
				compatible:  stringSet(verb.Strings("compatibleObjects")),
			}
			order = append(order, id)
			continue
		}
		addAll(e.objectTypes, verb.Strings("objectTypes"))
		addAll(e.compatible, verb.Strings("compatibleObjects"))
	}

	out := make([]vocab.Item, 0, len(order))
	for _, id := range order {
		e := byID[id]
		e.item["objectTypes"] = sortedKeys(e.objectTypes)
		e.item["compatibleObjects"] = sortedKeys(e.compatible)
		out = append(out, e.item)
	}
	return out
}

// mergeCategories pools flashcards by category name (unnamed categories
// land in "Other"), dedups cards per category, and orders categories by
// name. Only the name and cards survive; per-student category metadata
// does not belong in the hub.
func mergeCategories(all []vocab.Category) []vocab.Category {
	byName := make(map[string][]vocab.Item)
	for _, category := range all {
		name := category.Name
		if name == "" {
			name = "Other"
		}
		byName[name] = append(byName[name], category.Cards...)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]vocab.Category, 0, len(names))
	for _, name := range names {
		out = append(out, vocab.Category{Name: name, Cards: dedupByKr(byName[name])})
	}
	return out
}

// mergeIntroTopics dedups by kr with compatibleNounTypes unioned across
// occurrences; an empty union removes the field entirely.
func mergeIntroTopics(all []vocab.Item) []vocab.Item {
	type entry struct {
		item  vocab.Item
		types map[string]struct{}
	}
	byKr := make(map[string]*entry, len(all))
	order := make([]string, 0, len(all))
	for _, topic := range all {
		kr := topic.Str("kr")
		if kr == "" {
			continue
		}
		e, ok := byKr[kr]
		if !ok {
			byKr[kr] = &entry{
				item:  cloneItem(topic),
				types: stringSet(topic.Strings("compatibleNounTypes")),
			}
			order = append(order, kr)
			continue
		}
		addAll(e.types, topic.Strings("compatibleNounTypes"))
	}

	out := make([]vocab.Item, 0, len(order))
	for _, kr := range order {
		e := byKr[kr]
		if len(e.types) > 0 {
			e.item["compatibleNounTypes"] = sortedKeys(e.types)
		} else {
			delete(e.item, "compatibleNounTypes")
		}
		out = append(out, e.item)
	}
	return out
}

// mergeQuizSituations keeps the first item per situation text.
func mergeQuizSituations(all []vocab.Item) []vocab.Item {
	seen := make(map[string]struct{}, len(all))
	out := make([]vocab.Item, 0, len(all))
	for _, situation := range all {
		key := situation.Str("situation")
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, situation)
	}
	return out
}

func cloneItem(item vocab.Item) vocab.Item {
	out := make(vocab.Item, len(item))
	for key, value := range item {
		out[key] = value
	}
	return out
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func addAll(set map[string]struct{}, values []string) {
	for _, value := range values {
		set[value] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
