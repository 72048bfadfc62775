package htmldown

// RewriteStage is a named text to text transformation applied to the
// output of the structural pass.
type RewriteStage struct {
	Name  string
	Apply func(string) string
}

// Stage names in execution order.
const (
	StageCodeFence      = "code-fence"
	StageHorizontalRule = "horizontal-rule"
	StageLists          = "lists"
	StageBlockquotes    = "blockquotes"
	StageTables         = "tables"
	StageInlineStyles   = "inline-styles"
	StageForms          = "forms"
	StageCustomElements = "custom-elements"
	StageContainers     = "containers"
	StageSemantic       = "semantic"
	StageDetails        = "details"
	StageFigures        = "figures"
	StageShortcodes     = "shortcodes"
)

// buildStages returns the rewrite pipeline. Custom elements are relabeled
// before containers are unwrapped so the relabeled tags survive.
func buildStages(elements ElementMap, shortcodes ShortcodeMap) []RewriteStage {
	return []RewriteStage{
		{Name: StageCodeFence, Apply: fenceCodeBlocks},
		{Name: StageHorizontalRule, Apply: normalizeRules},
		{Name: StageLists, Apply: formatLists},
		{Name: StageBlockquotes, Apply: formatBlockquotes},
		{Name: StageTables, Apply: formatTables},
		{Name: StageInlineStyles, Apply: mapInlineStyles},
		{Name: StageForms, Apply: flattenForms},
		{Name: StageCustomElements, Apply: relabelElements(elements)},
		{Name: StageContainers, Apply: unwrapContainers},
		{Name: StageSemantic, Apply: unwrapSemantic},
		{Name: StageDetails, Apply: flattenDetails},
		{Name: StageFigures, Apply: consolidateFigures},
		{Name: StageShortcodes, Apply: expandShortcodes(shortcodes)},
	}
}
