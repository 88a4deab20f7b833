// Package logs tails foldersort.log for the `foldersort logs` command.
//
// Reads use bounded memory: a negative offset returns the last N lines, a
// non-negative offset resumes where a previous call stopped, and follow mode
// polls until new lines arrive or the wait expires. A Match function narrows
// output to one run or component.
package logs
