package domain

// UnknownBrand is stored when the provider reports a brand we cannot map.
const UnknownBrand = "UK"

// brandCodes maps the provider's raw card brand strings to the short codes
// stored on payment records.
var brandCodes = map[string]string{
	"VISA":       "VC",
	"MASTERCARD": "MC",
	"EPS":        "EP",
}

// NormalizeBrand maps a raw provider brand string to its short code,
// falling back to UnknownBrand for anything unmapped.
func NormalizeBrand(raw string) string {
	if code, ok := brandCodes[raw]; ok {
		return code
	}
	return UnknownBrand
}
