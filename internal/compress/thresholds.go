package compress

const (
	defaultMinimumLines = 50

	minimumRepeatThreshold   = 1
	minimumCommentBlockLines = 3
	minimumFunctionBodyLines = 2
	minimumImportLines       = 1
)

// LevelThresholds holds the tunables applied by one compression level.
type LevelThresholds struct {
	// RepeatThreshold is the longest run of identical lines left untouched.
	RepeatThreshold int
	// CommentBlockLines is the longest comment or docstring block left untouched.
	CommentBlockLines int
	// FunctionBodyLines is the longest function body left untouched. Light ignores it.
	FunctionBodyLines int
	// ImportLines is the longest run of import lines left untouched. Light ignores it.
	ImportLines int
}

// Thresholds configures every level of the compressor.
type Thresholds struct {
	MinimumLines int
	Light        LevelThresholds
	Medium       LevelThresholds
	Heavy        LevelThresholds
}

// DefaultThresholds returns the built-in heuristics.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinimumLines: defaultMinimumLines,
		Light:        LevelThresholds{RepeatThreshold: 3, CommentBlockLines: 8},
		Medium:       LevelThresholds{RepeatThreshold: 3, CommentBlockLines: 5, FunctionBodyLines: 15, ImportLines: 8},
		Heavy:        LevelThresholds{RepeatThreshold: 2, CommentBlockLines: 3, FunctionBodyLines: 8, ImportLines: 3},
	}
}

// Normalized clamps thresholds to their minimums and makes every stricter level at least as
// strict as the level below it. Later steps must never undo what an earlier step left in place.
func (thresholds Thresholds) Normalized() Thresholds {
	result := thresholds
	if result.MinimumLines < 1 {
		result.MinimumLines = 1
	}
	result.Light = result.Light.clamped()
	result.Medium = result.Medium.clamped().noLooserThan(result.Light)
	result.Heavy = result.Heavy.clamped().noLooserThan(result.Medium)
	if result.Heavy.FunctionBodyLines > result.Medium.FunctionBodyLines {
		result.Heavy.FunctionBodyLines = result.Medium.FunctionBodyLines
	}
	if result.Heavy.ImportLines > result.Medium.ImportLines {
		result.Heavy.ImportLines = result.Medium.ImportLines
	}
	return result
}

func (thresholds LevelThresholds) clamped() LevelThresholds {
	result := thresholds
	if result.RepeatThreshold < minimumRepeatThreshold {
		result.RepeatThreshold = minimumRepeatThreshold
	}
	if result.CommentBlockLines < minimumCommentBlockLines {
		result.CommentBlockLines = minimumCommentBlockLines
	}
	if result.FunctionBodyLines < minimumFunctionBodyLines {
		result.FunctionBodyLines = minimumFunctionBodyLines
	}
	if result.ImportLines < minimumImportLines {
		result.ImportLines = minimumImportLines
	}
	return result
}

func (thresholds LevelThresholds) noLooserThan(lower LevelThresholds) LevelThresholds {
	result := thresholds
	if result.RepeatThreshold > lower.RepeatThreshold {
		result.RepeatThreshold = lower.RepeatThreshold
	}
	if result.CommentBlockLines > lower.CommentBlockLines {
		result.CommentBlockLines = lower.CommentBlockLines
	}
	return result
}
