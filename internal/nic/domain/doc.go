// Package domain contains the pure decode/validate engine for Sri Lankan
// National Identity Card (NIC) numbers.
//
// # Encodings
//
// Two lexical forms are accepted:
//
//	legacy  9 digits + one of V/X   YYDDDSSSSC   (YY: 2-digit year, DDD: day code)
//	modern  12 digits               YYYYDDDSSSSS (YYYY: 4-digit year, DDD: day code)
//
// The day code carries both the day of the year and the holder's gender:
// codes above 500 belong to female holders and are offset by 500.
//
// # Domain Purity
//
//	✓ No I/O
//	✓ No context.Context in function signatures
//	✓ No time.Now() calls
//	✓ Every input, however malformed, produces a value; nothing panics
//
// Persistence, lockouts, audit and metrics are the service layer's concern.
package domain
