package morph

import "strings"

// CanonicalSurface returns the string a token is indexed and looked up
// under. Compounds collapse to their concatenated parts, inflected forms to
// their stem, and the dependent noun 거 to 것.
func CanonicalSurface(t Token) string {
	switch t.Feature.Type {
	case FeatureCompound:
		return compoundSurface(t.Feature.Expression)
	case FeatureInflect:
		stem, _, _ := strings.Cut(t.Feature.Expression, "/")
		return stem
	}

	if t.Surface == "거" {
		if c, err := Classify(t.Tag); err == nil && c == DependentNoun {
			return "것"
		}
	}

	return t.Surface
}

// compoundSurface strips tags and boundary markers from an expression such
// as "가족/NNG/*+관계/NNG/*".
func compoundSurface(expr string) string {
	var sb strings.Builder
	for _, part := range strings.Split(expr, "+") {
		surface, _, _ := strings.Cut(part, "/")
		sb.WriteString(surface)
	}
	return sb.String()
}
