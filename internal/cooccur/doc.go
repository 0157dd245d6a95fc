// Package cooccur builds a term co-occurrence graph from a corpus.
//
// A corpus is split into sentences, each sentence into sorted tokens. Every
// pair of tokens sharing a sentence is registered once and scored with the
// G2 log-likelihood ratio over the sentence-membership contingency table:
//
//	k11 = |Sa ∩ Sb|   k12 = |Sb \ Sa|
//	k21 = |Sa \ Sb|   k22 = S - |Sa ∪ Sb|
//
// where Sa is the set of sentences containing term a and S the sentence count.
package cooccur
