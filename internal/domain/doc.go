// Package domain models fire-weather warnings and wildfire occurrences for
// forecast verification.
//
// # Data Sources
//
// Warnings are NWS Red Flag Warnings (valid time event code FW.W) exported
// from the warning product archive. Fires come from a federal wildfire
// occurrence database joined to NWS fire weather zones and to the nearest
// fire danger station's indices.
//
// # Conventions
//
// Dates:
//
//	Calendar dates are YYYYMMDD. Fire discovery dates may carry a trailing
//	time component; only the first 8 digits are significant ([ParseDate]).
//	Warning timestamps are YYYYMMDDHHMM in UTC ([ParseTimestamp]).
//
// Zones and offices:
//
//	Zones are NWS UGC fire weather zone codes, e.g. "WAZ675". Offices are
//	Weather Forecast Office (WFO) identifiers, e.g. "OTX" (Spokane, WA).
//
// Cause codes:
//
//	1 = lightning, 2-12 = human causes (equipment, smoking, campfire, debris
//	burning, railroad, arson, children, miscellaneous, fireworks, powerline,
//	structure), 13 = missing/undetermined. See [CauseFromCode].
//
// Danger indices:
//
//	BI_PERC, ERC_PERC, FM100_PERC and FM1000_PERC are percentiles (0-100) of
//	the Burning Index, Energy Release Component, and 100/1000-hour fuel
//	moisture on the discovery date.
//
// # Flattening
//
// A warning is verified against every calendar day it covers. [FlattenWarning]
// turns one warning product into one [WarningRecord] per day: a warning that
// expires by the first midnight after issuance covers only its issuance date;
// one that runs past midnight covers each date from issuance through
// expiration inclusive.
//
// # Occurrence keys
//
// Both warnings and fires reduce to (date, zone) [OccurrenceKey] values before
// matching. Several fires in one zone on one day collapse to a single key:
// verification is of day/zone coincidence, not of fire counts.
package domain
