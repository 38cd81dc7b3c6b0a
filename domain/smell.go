package domain

import "fmt"

// SmellCategory groups smells by the engine that produced them
type SmellCategory string

const (
	CategoryCode          SmellCategory = "Code"
	CategoryStructural    SmellCategory = "Structural"
	CategoryArchitectural SmellCategory = "Architectural"
)

// Severity is the reported weight of a finding
type Severity string

const (
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// highSeverityRatio is the engine-wide escalation point: a metric at or
// above 1.5x its threshold is High, anything else over threshold is Medium.
const highSeverityRatio = 1.5

// SeverityFor derives severity from a metric/threshold pair. It is a pure
// function so repeated runs on unchanged input always agree.
func SeverityFor(metric, threshold float64) Severity {
	if threshold > 0 && metric >= threshold*highSeverityRatio {
		return SeverityHigh
	}
	return SeverityMedium
}

// Smell is one reported finding. Instances are created by detectors and
// owned by the report aggregator until serialized.
type Smell struct {
	Category    SmellCategory
	Kind        string
	Description string
	FilePath    string
	ModuleClass string
	Line        int // 0 when the smell has no single source line
	Severity    Severity
	Metric      float64
	Threshold   float64
}

func (s Smell) String() string {
	return fmt.Sprintf("%s: %s", s.Kind, s.Description)
}

// Smell kinds reported by the code smell engine
const (
	KindLongMethod         = "Long Method"
	KindLargeClass         = "Large Class"
	KindPrimitiveObsession = "Primitive Obsession"
	KindLongParameterList  = "Long Parameter List"
	KindDataClumps         = "Data Clumps"
	KindSwitchStatements   = "Switch Statements"
	KindTemporaryField     = "Temporary Field"
	KindRefusedBequest     = "Refused Bequest"
	KindAlternativeClasses = "Alternative Classes with Different Interfaces"
	KindDivergentChange    = "Divergent Change"
	KindShotgunSurgery     = "Shotgun Surgery"
	KindFeatureEnvy        = "Feature Envy"
	KindDataClass          = "Data Class"
	KindLazyClass          = "Lazy Class"
	KindMessageChains      = "Message Chains"
	KindMiddleMan          = "Middle Man"
)

// Smell kinds reported by the structural metrics engine
const (
	KindHighWMC        = "High Weighted Methods per Class (WMC)"
	KindHighNOM        = "High Number of Methods (NOM)"
	KindLargeSize2     = "Large Class (SIZE2)"
	KindHighLCOM       = "High Lack of Cohesion of Methods (LCOM)"
	KindHighCBO        = "High Coupling Between Object Classes (CBO)"
	KindHighRFC        = "High Response for a Class (RFC)"
	KindDeepDIT        = "Deep Inheritance Tree (DIT)"
	KindHighNOC        = "High Number of Classes (NOC)"
	KindHighComplexity = "High Cyclomatic Complexity"
	KindTooManyBranch  = "Too Many Branches"
	KindHighLOC        = "High Lines of Code (LOC)"
	KindHighFanIn      = "High Fan-in"
	KindHighFanOut     = "High Fan-out"
)

// Smell kinds reported by the architectural smell engine
const (
	KindCyclicDependency       = "Cyclic Dependency"
	KindHubLikeDependency      = "Hub-like Dependency"
	KindUnstableDependency     = "Unstable Dependency"
	KindOrphanModule           = "Orphan Module"
	KindGodObject              = "God Object"
	KindScatteredFunctionality = "Scattered Functionality"
	KindRedundantAbstractions  = "Redundant Abstractions"
	KindImproperAPIUsage       = "Improper API Usage"
)
