package kb

// Built-in malware reference table. Technique ids must exist in the built-in
// taxonomy; the loader rejects the table otherwise. `threatlens update`
// swaps this for the full upstream bundle.

var builtinEntities = []Entity{
	{
		CanonicalName: "Emotet",
		Aliases:       []string{"Heodo", "Geodo"},
		TechniqueIDs:  []string{"T1566.001", "T1059.001", "T1547.001", "T1105"},
	},
	{
		CanonicalName: "TrickBot",
		Aliases:       []string{"Totbrick"},
		TechniqueIDs:  []string{"T1055", "T1082", "T1005", "T1071.001"},
	},
	{
		CanonicalName: "Qakbot",
		Aliases:       []string{"Qbot", "Pinkslipbot"},
		TechniqueIDs:  []string{"T1055", "T1566.002", "T1021.002", "T1056.001"},
	},
	{
		CanonicalName: "Cobalt Strike",
		TechniqueIDs:  []string{"T1071", "T1059", "T1055", "T1105"},
	},
	{
		CanonicalName: "Ryuk",
		TechniqueIDs:  []string{"T1486", "T1489", "T1490"},
	},
	{
		CanonicalName: "Conti",
		TechniqueIDs:  []string{"T1486", "T1490", "T1021.002"},
	},
	{
		CanonicalName: "LockBit",
		TechniqueIDs:  []string{"T1486", "T1490", "T1070.004"},
	},
	{
		CanonicalName: "Agent Tesla",
		Aliases:       []string{"AgentTesla"},
		TechniqueIDs:  []string{"T1056.001", "T1555", "T1071.001", "T1567"},
	},
	{
		CanonicalName: "njRAT",
		Aliases:       []string{"Bladabindi"},
		TechniqueIDs:  []string{"T1056.001", "T1113", "T1105"},
	},
	{
		CanonicalName: "PlugX",
		Aliases:       []string{"Korplug"},
		TechniqueIDs:  []string{"T1055", "T1071.001", "T1105"},
	},
	{
		CanonicalName: "IcedID",
		Aliases:       []string{"BokBot"},
		TechniqueIDs:  []string{"T1566.001", "T1055", "T1071.001"},
	},
	{
		CanonicalName: "Maze",
		TechniqueIDs:  []string{"T1486", "T1041"},
	},
}
