// Package titlenorm reduces display titles to canonical comparison keys.
//
// Normalization is the matching engine's core assumption: two titles a human
// would consider identical modulo case, punctuation, or diacritics must
// normalize to the same string. It makes no attempt to reconcile word order,
// abbreviations, or edition suffixes; those are handled (or refused) by the
// tiered matcher itself.
package titlenorm
