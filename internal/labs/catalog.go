package labs

// Canonical lab keys. The catalog is closed: keys only change here.
const (
	KeyHbA1c           = "hba1c"
	KeyFastingGlucose  = "fasting_glucose"
	KeyPPGlucose       = "pp_glucose"
	KeyHemoglobin      = "hemoglobin"
	KeyWBC             = "wbc"
	KeyPlatelets       = "platelets"
	KeyUrea            = "urea"
	KeyCreatinine      = "creatinine"
	KeySodium          = "sodium"
	KeyPotassium       = "potassium"
	KeyChloride        = "chloride"
	KeyBilirubinTotal  = "bilirubin_total"
	KeyBilirubinDirect = "bilirubin_direct"
	KeyASTSGOT         = "ast_sgot"
	KeyALTSGPT         = "alt_sgpt"
	KeyALP             = "alp"
	KeyAlbumin         = "albumin"
	KeyCholTotal       = "chol_total"
	KeyTriglycerides   = "triglycerides"
	KeyHDL             = "hdl"
	KeyLDL             = "ldl"
	KeyVLDL            = "vldl"
)

// Measurement is one catalog entry: a canonical key and the rules that
// locate it, tried in order.
type Measurement struct {
	Key   string
	Name  string
	Unit  string
	Rules []Rule
}

// Rule matches any of Labels (regexp fragments, case-insensitive), skips
// the non-digit run that follows and captures the first decimal number.
// Occurrences preceded by a NotAfter word ("glycated" hemoglobin) or
// followed by a NotBefore word (hb "A1c") are ignored.
type Rule struct {
	Labels    []string
	NotAfter  []string
	NotBefore []string
}

// DefaultCatalog is the measurement table used by Extract.
var DefaultCatalog = []Measurement{
	{
		Key: KeyHbA1c, Name: "HbA1c", Unit: "%",
		Rules: []Rule{
			{Labels: []string{`hb\s*a1c`, `ha?emoglobin\s+a1c`}},
			{Labels: []string{`glycated\s+ha?emoglobin`, `glycosylated\s+ha?emoglobin`}},
			{Labels: []string{`\ba1c\b`}},
		},
	},
	{
		Key: KeyFastingGlucose, Name: "Fasting glucose", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`fasting\s+plasma\s+glucose`, `fasting\s+blood\s+glucose`}},
			{Labels: []string{`fasting\s+blood\s+sugar`, `glucose[\s,(-]*fasting`, `fasting\s+glucose`}},
			{Labels: []string{`\bfpg\b`, `\bfbg\b`, `\bfbs\b`}},
		},
	},
	{
		Key: KeyPPGlucose, Name: "Post-prandial glucose", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`post[\s-]*prandial\s+(?:plasma\s+|blood\s+)?(?:glucose|sugar)`}},
			{Labels: []string{`glucose[\s,(-]*(?:pp|post[\s-]*prandial)\b`, `\bpp\s+(?:glucose|sugar)`}},
			{Labels: []string{`\bppg\b`, `\bppbs\b`}},
		},
	},
	{
		Key: KeyHemoglobin, Name: "Hemoglobin", Unit: "g/dL",
		Rules: []Rule{
			{
				Labels:    []string{`\bha?emoglobin\b`},
				NotAfter:  []string{"glycated", "glycosylated", "corpuscular", "cell"},
				NotBefore: []string{"a1c"},
			},
			{Labels: []string{`\bhgb\b`, `\bhb\b`}, NotBefore: []string{"a1c"}},
		},
	},
	{
		Key: KeyWBC, Name: "Total leucocyte count", Unit: "/cumm",
		Rules: []Rule{
			{Labels: []string{`total\s+leu[ck]ocyte\s+count`, `total\s+wbc\s+count`}},
			{Labels: []string{`\btlc\b`, `\bwbc\b`, `white\s+blood\s+cell\s+count`}},
		},
	},
	{
		Key: KeyPlatelets, Name: "Platelet count", Unit: "lakh/cumm",
		Rules: []Rule{
			{Labels: []string{`platelet\s+count`}},
			{Labels: []string{`\bplt\b`, `\bplatelets\b`}},
		},
	},
	{
		Key: KeyUrea, Name: "Urea", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`blood\s+urea`, `serum\s+urea`}},
			{Labels: []string{`\burea\b`}},
		},
	},
	{
		Key: KeyCreatinine, Name: "Creatinine", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`serum\s+creatinine`}},
			{Labels: []string{`\bcreatinine\b`}},
		},
	},
	{
		Key: KeySodium, Name: "Sodium", Unit: "mmol/L",
		Rules: []Rule{
			{Labels: []string{`\bsodium\b`}},
			{Labels: []string{`\bna\b`}},
		},
	},
	{
		Key: KeyPotassium, Name: "Potassium", Unit: "mmol/L",
		Rules: []Rule{
			{Labels: []string{`\bpotassium\b`}},
			{Labels: []string{`\bk\b`}},
		},
	},
	{
		Key: KeyChloride, Name: "Chloride", Unit: "mmol/L",
		Rules: []Rule{
			{Labels: []string{`\bchloride\b`}},
			{Labels: []string{`\bcl\b`}},
		},
	},
	{
		Key: KeyBilirubinTotal, Name: "Total bilirubin", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`bilirubin[\s,(-]*total`, `total\s+bilirubin`}},
		},
	},
	{
		Key: KeyBilirubinDirect, Name: "Direct bilirubin", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`bilirubin[\s,(-]*(?:direct|conjugated)`, `(?:direct|conjugated)\s+bilirubin`}},
		},
	},
	{
		Key: KeyASTSGOT, Name: "AST (SGOT)", Unit: "U/L",
		Rules: []Rule{
			{Labels: []string{`\bsgot\b`}},
			{Labels: []string{`\bast\b`, `aspartate\s+aminotransferase`}},
		},
	},
	{
		Key: KeyALTSGPT, Name: "ALT (SGPT)", Unit: "U/L",
		Rules: []Rule{
			{Labels: []string{`\bsgpt\b`}},
			{Labels: []string{`\balt\b`, `alanine\s+aminotransferase`}},
		},
	},
	{
		Key: KeyALP, Name: "Alkaline phosphatase", Unit: "U/L",
		Rules: []Rule{
			{Labels: []string{`alkaline\s+phosphatase`}},
			{Labels: []string{`\balp\b`}},
		},
	},
	{
		Key: KeyAlbumin, Name: "Albumin", Unit: "g/dL",
		Rules: []Rule{
			{Labels: []string{`serum\s+albumin`}},
			{Labels: []string{`\balbumin\b`}, NotAfter: []string{"micro"}},
		},
	},
	{
		Key: KeyCholTotal, Name: "Total cholesterol", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`total\s+cholesterol`, `cholesterol[\s,(-]*total`}},
			{Labels: []string{`serum\s+cholesterol`}},
		},
	},
	{
		Key: KeyTriglycerides, Name: "Triglycerides", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`\btriglycerides?\b`}},
			{Labels: []string{`\btg\b`}},
		},
	},
	{
		Key: KeyHDL, Name: "HDL cholesterol", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`\bhdl\b`}, NotAfter: []string{"non"}},
		},
	},
	{
		Key: KeyLDL, Name: "LDL cholesterol", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`\bldl\b`}},
		},
	},
	{
		Key: KeyVLDL, Name: "VLDL cholesterol", Unit: "mg/dL",
		Rules: []Rule{
			{Labels: []string{`\bvldl\b`}},
		},
	},
}

// Keys returns the canonical keys of DefaultCatalog in table order.
func Keys() []string {
	keys := make([]string, len(DefaultCatalog))
	for i, m := range DefaultCatalog {
		keys[i] = m.Key
	}
	return keys
}

// IsKnownKey reports whether key is in DefaultCatalog.
func IsKnownKey(key string) bool {
	for _, m := range DefaultCatalog {
		if m.Key == key {
			return true
		}
	}
	return false
}
