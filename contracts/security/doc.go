// Package security defines the IAM authorization contract: a policy
// engine evaluated against declarative allow/deny statements.
package security
