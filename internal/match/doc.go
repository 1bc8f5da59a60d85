// Package match resolves partial product identity into ranked recall
// matches. Lookups walk a strict fallback chain from the most precise
// identifier down to fuzzy name search, tagging results with a
// confidence derived from the tier that produced them.
package match
