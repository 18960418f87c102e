// Package corpus implements lexical search over a small curated set of
// health documents. Scoring is weighted token overlap with symptom-synonym
// expansion, tuned for short Korean queries.
package corpus
