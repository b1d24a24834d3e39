// Package models defines the core domain types for Equimapp.
//
// # Domain
//
// A household (Group) logs shared monthly expenses. Each member declares a
// monthly income, and the authority computes every member's proportional
// share of the total. The client never computes shares itself: every mutation
// returns a fresh Shares snapshot from the authority.
//
// # Models
//
//   - Group: a household with members, expenses, and the latest Shares snapshot
//   - Member: a participant; either a real account holder or a phantom
//     placeholder for someone without an account
//   - Expense: a flat monthly amount logged by a member
//   - Shares: the authoritative proportional split across members
//   - Invitation: a single-use token admitting a new member into a group
//   - DomainEvent: a typed change notification delivered over the realtime feed
//
// # Design Principles
//
//  1. Ids are opaque strings (UUIDs), never pointers to sibling structs,
//     to avoid circular references.
//  2. A Member is real XOR phantom: real members carry a UserID and inherit
//     pseudo/income from their profile; phantom members carry pseudo/income
//     directly on the membership row.
//  3. Shares are always produced remotely. A locally-held snapshot may be
//     momentarily stale between a mutation and the next reconciliation.
package models
