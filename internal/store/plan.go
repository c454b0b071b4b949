package store

import (
	"path/filepath"
	"sort"

	"sori/internal/assetname"
	"sori/internal/refstore"
)

// ItemAction says how a planned item will be satisfied.
type ItemAction string

const (
	ActionCopy       ItemAction = "copy"
	ActionSynthesize ItemAction = "synthesize"
)

// PlannedItem pairs a text with its artifact name and sourcing decision.
type PlannedItem struct {
	Index    int
	Text     string
	Artifact string
	Action   ItemAction
	// RefPath is the reference file a copy action reads from.
	RefPath string
}

// Plan is the partition of required texts into copies and syntheses.
type Plan struct {
	Items     []PlannedItem
	Copies    int
	Syntheses int
}

// Plan derives artifact names for the required texts and decides, per
// text, whether the reference store can supply the audio or synthesis is
// needed. Artifact names depend on the text's position in the sorted
// unique list, so the same inputs always plan the same names.
func (b *Builder) Plan(texts []string) *Plan {
	return buildPlan(texts, b.refs, b.extension)
}

// Preview derives the same plan a Builder would without requiring a
// synthesizer, for read-only plan output. refs may be nil; extension
// defaults to ".mp3".
func Preview(texts []string, refs *refstore.Store, extension string) *Plan {
	if extension == "" {
		extension = ".mp3"
	}
	if refs == nil {
		refs = refstore.Open("", nil)
	}
	return buildPlan(texts, refs, extension)
}

func buildPlan(texts []string, refs *refstore.Store, extension string) *Plan {
	texts = normalizeTexts(texts)
	plan := &Plan{Items: make([]PlannedItem, 0, len(texts))}
	for i, text := range texts {
		item := PlannedItem{
			Index:    i,
			Text:     text,
			Artifact: assetname.Derive(text, i, extension),
			Action:   ActionSynthesize,
		}
		if refPath, ok := refs.Resolve(text); ok {
			item.Action = ActionCopy
			item.RefPath = refPath
		}
		if item.Action == ActionCopy {
			plan.Copies++
		} else {
			plan.Syntheses++
		}
		plan.Items = append(plan.Items, item)
	}
	return plan
}

// artifactPath returns the store path for an artifact name.
func (b *Builder) artifactPath(artifact string) string {
	return filepath.Join(b.dir, artifact)
}

// normalizeTexts drops empties, deduplicates, and sorts. Byte order
// equals code point order for UTF-8, which keeps Korean text ordering
// stable across runs.
func normalizeTexts(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	sort.Strings(out)
	return out
}
