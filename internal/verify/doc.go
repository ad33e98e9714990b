// Package verify scores Red Flag Warnings against observed fires.
//
// A run filters the records ([Filter]), reduces them to (date, zone) key
// sets, matches warnings to fires with a day-lag tolerance ([Matcher]),
// derives the categorical ratios ([ContingencyTable.Statistics]), builds a
// resampled no-skill reference ([ClimatologyGenerator]) and finally
// normalizes the forecast against it ([Score]). [Verifier] chains the steps.
package verify
