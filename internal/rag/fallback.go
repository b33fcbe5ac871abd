package rag

import (
	"fmt"
	"strings"
)

// Hand-tuned score cutoffs for the fallback decision table. They separate
// "no usable signal" from "some signal" from "confidently relevant" and are
// configuration constants, not derived values.
const (
	// WeakMatchThreshold: below this, even the best hit is treated as noise.
	WeakMatchThreshold = 0.05

	// RelatedIncidentThreshold: secondary hits above this are listed as
	// related incidents in the strong-match answer.
	RelatedIncidentThreshold = 0.1
)

// SupportContact is the escalation address included in fallback answers.
const SupportContact = "guardian-support@cbp.dhs.gov"

// rephraseGuidance is shared by the no-context and weak-match branches.
const rephraseGuidance = "Try rephrasing your question with more specific details " +
	"(error codes, service names, or symptoms), or contact the Guardian support team at " +
	SupportContact + "."

// Fallback synthesizes a templated answer purely from retrieved context and
// similarity scores. It is deterministic, makes no network calls, and is used
// both as the generation failure path and independently.
//
// Decision table (first match wins):
//   - no documents: apology + rephrase guidance + support contact
//   - top score below WeakMatchThreshold: weak-match template
//   - otherwise: strong-match template with related incidents
func Fallback(query string, docs []ContextDocument) string {
	if len(docs) == 0 {
		return noContextAnswer()
	}
	if docs[0].Score < WeakMatchThreshold {
		return weakMatchAnswer(docs[0])
	}
	return strongMatchAnswer(docs[0], docs[1:])
}

// noContextAnswer is the empty-context branch.
func noContextAnswer() string {
	return "I'm sorry, I couldn't find any specific information about your question " +
		"in the Guardian incident history.\n\n" + rephraseGuidance
}

// weakMatchAnswer states uncertainty and shows only the top document.
func weakMatchAnswer(top ContextDocument) string {
	var b strings.Builder
	b.WriteString("I'm not confident I have relevant information for your question. ")
	b.WriteString("The closest match in the incident history is:\n\n")
	fmt.Fprintf(&b, "%s\n%s\n", top.Title, top.Content)
	if top.Resolution != "" {
		fmt.Fprintf(&b, "\nResolution: %s\n", top.Resolution)
	}
	b.WriteString("\n")
	b.WriteString(rephraseGuidance)
	return b.String()
}

// strongMatchAnswer renders the top document with its resolution and lists
// other sufficiently similar documents as related incidents.
func strongMatchAnswer(top ContextDocument, rest []ContextDocument) string {
	var b strings.Builder
	b.WriteString("Based on the Guardian incident history, here is the most relevant information:\n\n")
	fmt.Fprintf(&b, "**%s** (%s / %s)\n\n", top.Title, top.Category, top.Severity)
	b.WriteString(top.Content)
	b.WriteString("\n")

	if top.Resolution != "" {
		fmt.Fprintf(&b, "\nRecommended Resolution: %s\n", top.Resolution)
	}

	var related []ContextDocument
	for _, doc := range rest {
		if doc.Score > RelatedIncidentThreshold {
			related = append(related, doc)
		}
	}
	if len(related) > 0 {
		b.WriteString("\nRelated incidents:\n")
		for _, doc := range related {
			fmt.Fprintf(&b, "- %s (%s)\n", doc.Title, doc.Category)
		}
	}

	return b.String()
}
