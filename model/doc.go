// Package model defines the canonical value types and the closed error
// taxonomy shared by every contract in the kit.
//
// These types form the explicit data contract between clause code and
// provider implementations: a provider under certification must produce
// and consume exactly these shapes, and must surface exactly these error
// kinds under the documented failure conditions. Substituting an absent
// value or a generic error where a clause requires a taxonomy error is
// itself a contract violation.
package model
