package collect

// Match classifies a candidate translation against existing records.
type Match string

const (
	// MatchNone: no existing record shares the candidate's source text.
	MatchNone Match = "none"
	// MatchExact: an existing record has the same normalized source AND
	// target text.
	MatchExact Match = "exact"
	// MatchSource: an existing record has the same normalized source
	// text with a different target (the source phrase already has a
	// prior translation).
	MatchSource Match = "source"
)

// FindDuplicate classifies a candidate (sourceText, targetText) pair
// against existing records. Both fields are compared after trimming and
// case-folding. When several records match, the first one in the given
// slice wins, so callers should order candidates most-relevant-first
// (remote queries order by creation time descending).
//
// Pure read; never mutates anything.
func FindDuplicate(existing []Record, sourceText, targetText string) (*Record, Match) {
	source := NormalizeText(sourceText)
	target := NormalizeText(targetText)

	var sourceMatch *Record
	for i := range existing {
		if NormalizeText(existing[i].SourceText) != source {
			continue
		}
		if NormalizeText(existing[i].TargetText) == target {
			return &existing[i], MatchExact
		}
		if sourceMatch == nil {
			sourceMatch = &existing[i]
		}
	}

	if sourceMatch != nil {
		return sourceMatch, MatchSource
	}
	return nil, MatchNone
}
