// Package domain holds the core business types for rosterqa: member
// messages, indexed documents, retrieval candidates, answers, and corpus
// quality reports. It has no dependencies on adapters or infrastructure.
package domain
