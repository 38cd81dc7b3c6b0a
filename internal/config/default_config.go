package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Threshold metric names. Detectors reference thresholds through these
// constants so a typo fails at review instead of silently reading 0.
const (
	// code_smells
	LongMethodLines      = "long_method_lines"
	LargeClassMethods    = "large_class_methods"
	PrimitiveObsession   = "primitive_obsession_count"
	LongParameterList    = "long_parameter_list"
	DataClumpsGroupSize  = "data_clumps_group_size"
	ComplexConditional   = "complex_conditional_branches"
	RefusedBequestRatio  = "refused_bequest_ratio"
	AlternativeClasses   = "alternative_classes_shared_methods"
	DivergentChange      = "divergent_change_prefixes"
	ShotgunSurgeryCalls  = "shotgun_surgery_calls"
	FeatureEnvyRatio     = "feature_envy_ratio"
	LazyClassMethods     = "lazy_class_methods"
	MessageChainLength   = "message_chain_length"
	MiddleManRatio       = "middle_man_ratio"

	// structural_smells
	WMCThreshold         = "wmc_threshold"
	NOMThreshold         = "nom_threshold"
	Size2Threshold       = "size2_threshold"
	LCOMThreshold        = "lcom_threshold"
	CBOThreshold         = "cbo_threshold"
	RFCThreshold         = "rfc_threshold"
	DITThreshold         = "dit_threshold"
	NOCThreshold         = "noc_threshold"
	CyclomaticComplexity = "cyclomatic_complexity_threshold"
	MaxBranches          = "max_branches"
	MaxNestingDepth      = "max_nesting_depth"
	LOCThreshold         = "loc_threshold"
	MaxFanIn             = "max_fanin"
	MaxFanOut            = "max_fanout"
	NOCSizeBandMediumLOC = "noc_size_band_medium_loc"
	NOCSizeBandLargeLOC  = "noc_size_band_large_loc"
	NOCSizeFactorMedium  = "noc_size_factor_medium"
	NOCSizeFactorLarge   = "noc_size_factor_large"

	// architectural_smells
	GodObjectFunctions     = "god_object_functions"
	UnstableDependency     = "unstable_dependency_threshold"
	UnstableMinDegree      = "unstable_dependency_min_degree"
	HubDependencyFraction  = "hub_like_dependency_fraction"
	ScatteredModules       = "scattered_functionality_modules"
	RedundantSimilarity    = "redundant_abstraction_similarity"
	RedundantUseOverlap    = "redundant_abstraction_use_overlap"
	ImproperAPIRepetition  = "improper_api_repetition"
)

func defaultCodeSmells() Section {
	return Section{
		LongMethodLines:     {45, "Maximum lines in a method before it is reported as a Long Method"},
		LargeClassMethods:   {15, "Maximum methods in a class before it is reported as a Large Class"},
		PrimitiveObsession:  {4, "Maximum primitive-typed parameters of one method before Primitive Obsession"},
		LongParameterList:   {5, "Maximum parameters before a Long Parameter List is reported"},
		DataClumpsGroupSize: {3, "Minimum size of a parameter group repeated across methods to count as a Data Clump"},
		ComplexConditional:  {3, "Maximum elif branches in one conditional chain"},
		RefusedBequestRatio: {0.5, "Maximum fraction of inherited methods a subclass may leave unused"},
		AlternativeClasses:  {3, "Minimum shared method names between unrelated classes"},
		DivergentChange:     {5, "Maximum distinct method-name prefixes in one class"},
		ShotgunSurgeryCalls: {7, "Maximum distinct external callers of one method"},
		FeatureEnvyRatio:    {2, "Maximum ratio of foreign attribute accesses to own accesses"},
		LazyClassMethods:    {2, "Minimum methods a non-trivial class should define"},
		MessageChainLength:  {3, "Maximum chained attribute accesses in one expression"},
		MiddleManRatio:      {0.5, "Maximum fraction of methods that only delegate"},
	}
}

func defaultStructuralSmells() Section {
	return Section{
		WMCThreshold:         {50, "Maximum weighted methods per class"},
		NOMThreshold:         {10, "Maximum number of methods per class"},
		Size2Threshold:       {30, "Maximum methods plus attributes per class"},
		LCOMThreshold:        {20, "Maximum lack of cohesion of methods"},
		CBOThreshold:         {8, "Maximum coupling between object classes"},
		RFCThreshold:         {30, "Maximum response for a class"},
		DITThreshold:         {3, "Maximum depth of inheritance tree"},
		NOCThreshold:         {7, "Maximum weighted number of children"},
		CyclomaticComplexity: {10, "Maximum cyclomatic complexity per function"},
		MaxBranches:          {10, "Maximum branch statements per function"},
		MaxNestingDepth:      {3, "Maximum nesting depth per function"},
		LOCThreshold:         {250, "Maximum effective lines of code per module"},
		MaxFanIn:             {15, "Maximum modules importing one module"},
		MaxFanOut:            {15, "Maximum modules one module imports"},
		NOCSizeBandMediumLOC: {5000, "Project LOC above which the NOC threshold is relaxed"},
		NOCSizeBandLargeLOC:  {10000, "Project LOC above which the NOC threshold is relaxed further"},
		NOCSizeFactorMedium:  {1.2, "NOC threshold multiplier for medium projects"},
		NOCSizeFactorLarge:   {1.5, "NOC threshold multiplier for large projects"},
	}
}

func defaultArchitecturalSmells() Section {
	return Section{
		GodObjectFunctions:    {20, "Maximum functions per module before it is a God Object"},
		UnstableDependency:    {0.7, "Instability above which a module is an Unstable Dependency"},
		UnstableMinDegree:     {3, "Minimum total degree for instability to be reported"},
		HubDependencyFraction: {0.5, "Fraction of all modules connected to one module that makes it a hub"},
		ScatteredModules:      {3, "Minimum modules sharing a functionality prefix to count as scattered"},
		RedundantSimilarity:   {0.8, "Method-set similarity above which two classes are redundant"},
		RedundantUseOverlap:   {0, "Set to 1 to compare method sets with overlap coefficient instead of Jaccard"},
		ImproperAPIRepetition: {5, "Minimum repeated calls to one external API from a module"},
	}
}

var defaultEntryPoints = []string{"main", "__main__", "setup", "manage", "conftest", "wsgi", "asgi"}

// Defaults returns a fresh ThresholdConfig with every built-in value
func Defaults() *ThresholdConfig {
	return &ThresholdConfig{
		CodeSmells:          defaultCodeSmells(),
		ArchitecturalSmells: defaultArchitecturalSmells(),
		StructuralSmells:    defaultStructuralSmells(),
		EntryPoints:         append([]string(nil), defaultEntryPoints...),
	}
}

// DefaultConfigYAML renders the default configuration as a YAML document
// with sections and metric names in stable order, suitable for init.
func DefaultConfigYAML() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	appendSection(root, "code_smells", defaultCodeSmells())
	appendSection(root, "structural_smells", defaultStructuralSmells())
	appendSection(root, "architectural_smells", defaultArchitecturalSmells())

	epKey := &yaml.Node{Kind: yaml.ScalarNode, Value: "entry_points"}
	epVal := &yaml.Node{Kind: yaml.SequenceNode}
	for _, ep := range defaultEntryPoints {
		epVal.Content = append(epVal.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: ep})
	}
	root.Content = append(root.Content, epKey, epVal)

	var buf bytes.Buffer
	buf.WriteString("# pysmell configuration\n")
	buf.WriteString("# Every threshold is optional; omitted entries use built-in defaults.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendSection(root *yaml.Node, name string, section Section) {
	key := &yaml.Node{Kind: yaml.ScalarNode, Value: name}
	val := &yaml.Node{Kind: yaml.MappingNode}
	for _, metric := range section.SortedNames() {
		entry := section[metric]
		metricKey := &yaml.Node{Kind: yaml.ScalarNode, Value: metric}
		metricVal := &yaml.Node{Kind: yaml.MappingNode}
		metricVal.Content = append(metricVal.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "value"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: formatValue(entry.Value)},
			&yaml.Node{Kind: yaml.ScalarNode, Value: "explanation"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: entry.Explanation},
		)
		val.Content = append(val.Content, metricKey, metricVal)
	}
	root.Content = append(root.Content, key, val)
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
