package vocab

import (
	"sort"

	"sori/internal/hangul"
)

var verbTenses = []string{"past", "present", "future"}

// Texts returns every unique text that needs audio, sorted. Objects,
// description subjects, and intro nouns contribute both their plain form and
// the form with the matching particle attached, which is how the practice
// modules play them back. Empty strings are dropped.
func Texts(doc *Document, sentences *Sentences) []string {
	set := make(map[string]struct{})
	add := func(text string) {
		if text != "" {
			set[text] = struct{}{}
		}
	}

	if doc != nil {
		if a := doc.Action; a != nil {
			for _, s := range a.Subjects {
				add(s.Str("kr"))
			}
			for _, item := range a.Times {
				add(item.Str("kr"))
			}
			for _, p := range a.Places {
				add(p.Str("kr"))
				if form := p.Child("formE"); form != nil {
					add(form.Str("kr"))
				}
				if form := p.Child("formEseo"); form != nil {
					add(form.Str("kr"))
				}
			}
			for _, o := range a.Objects {
				kr := o.Str("kr")
				add(kr)
				if kr != "" {
					add(kr + hangul.ObjectParticle(kr))
				}
			}
			for _, v := range a.Verbs {
				for _, tense := range verbTenses {
					add(v.Str(tense))
				}
			}
		}

		if d := doc.Describe; d != nil {
			for _, s := range d.Subjects {
				kr := s.Str("kr")
				add(kr)
				if kr != "" {
					add(kr + hangul.SubjectParticle(kr))
				}
			}
			for _, a := range d.Adjectives {
				add(a.Str("kr"))
			}
			for _, adv := range d.Adverbs {
				add(adv.Str("kr"))
			}
		}

		if fc := doc.Flashcards; fc != nil {
			for _, cat := range fc.Categories {
				for _, card := range cat.Cards {
					add(card.Str("kr"))
				}
			}
		}

		if in := doc.Intro; in != nil {
			for _, topic := range in.Topics {
				add(topic.Str("kr"))
			}
			for _, n := range in.Nouns {
				kr := n.Str("kr")
				add(kr)
				if kr != "" {
					add(kr + hangul.PoliteCopula(kr))
				}
			}
		}

		if q := doc.Quiz; q != nil {
			for _, situation := range q.Situations {
				add(situation.Str("correct"))
				for _, opt := range situation.Strings("options") {
					add(opt)
				}
			}
		}
	}

	if sentences != nil {
		for _, ch := range sentences.Chapters {
			for _, s := range ch.Sentences {
				add(s.Str("kr"))
			}
		}
	}

	out := make([]string, 0, len(set))
	for text := range set {
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}
