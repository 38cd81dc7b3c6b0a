package domain

import "strings"

// SmellType selects which engines run
type SmellType string

const (
	SmellTypeCode          SmellType = "code"
	SmellTypeArchitectural SmellType = "architectural"
	SmellTypeStructural    SmellType = "structural"
	SmellTypeAll           SmellType = "all"
)

// ParseSmellType validates a --type flag value
func ParseSmellType(s string) (SmellType, error) {
	switch SmellType(strings.ToLower(strings.TrimSpace(s))) {
	case SmellTypeCode:
		return SmellTypeCode, nil
	case SmellTypeArchitectural:
		return SmellTypeArchitectural, nil
	case SmellTypeStructural:
		return SmellTypeStructural, nil
	case SmellTypeAll, "":
		return SmellTypeAll, nil
	}
	return "", NewInvalidInputError("type must be one of: code, architectural, structural, all", nil)
}

// Includes reports whether smells of the given category should be emitted
func (t SmellType) Includes(category SmellCategory) bool {
	switch t {
	case SmellTypeAll:
		return true
	case SmellTypeCode:
		return category == CategoryCode
	case SmellTypeArchitectural:
		return category == CategoryArchitectural
	case SmellTypeStructural:
		return category == CategoryStructural
	}
	return false
}

// AnalyzeRequest describes one analysis run
type AnalyzeRequest struct {
	ProjectPath string
	ConfigPath  string
	Type        SmellType
	OutputPath  string // base path; .txt and .csv reports derive from it
	ExportPath  string // optional JSON facts/graph snapshot
	Debug       bool
}

// FileError records a recoverable per-file failure
type FileError struct {
	FilePath string
	Message  string
}

// AnalyzeResponse is the outcome of one analysis run
type AnalyzeResponse struct {
	Smells        []Smell
	FilesAnalyzed int
	FilesSkipped  int
	ModuleCount   int
	ClassCount    int
	Errors        []FileError
}

// CountByCategory tallies smells per category
func (r *AnalyzeResponse) CountByCategory() map[SmellCategory]int {
	counts := make(map[SmellCategory]int)
	for _, s := range r.Smells {
		counts[s.Category]++
	}
	return counts
}
