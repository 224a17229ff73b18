// Package domain contains the core types shared across the attribution
// pipeline: source records (contacts, leads, clients, audits, sequence
// stats, threads), the closed pipeline/method enums, and the report
// structures emitted at the end of a run.
package domain
